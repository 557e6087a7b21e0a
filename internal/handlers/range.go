package handlers

import (
	"errors"
	"strconv"
	"strings"
)

var errInvalidRange = errors.New("invalid range")

// parseByteRange interprets a single-range Range header against a file of
// the given size. The suffix form bytes=-N is accepted. An absent or
// out-of-bounds end is clamped to the last byte; everything else outside
// the file is an error the caller maps to 416.
func parseByteRange(header string, size int64) (start, end int64, err error) {
	value, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return 0, 0, errInvalidRange
	}
	if strings.Contains(value, ",") {
		return 0, 0, errInvalidRange
	}
	if size <= 0 {
		return 0, 0, errInvalidRange
	}

	first, rest, ok := strings.Cut(value, "-")
	if !ok {
		return 0, 0, errInvalidRange
	}

	if first == "" {
		// Suffix form: the last N bytes of the file.
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, errInvalidRange
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, perr := strconv.ParseInt(first, 10, 64)
	if perr != nil || start < 0 || start >= size {
		return 0, 0, errInvalidRange
	}

	end = size - 1
	if rest != "" {
		end, perr = strconv.ParseInt(rest, 10, 64)
		if perr != nil || end < start {
			return 0, 0, errInvalidRange
		}
		if end >= size {
			end = size - 1
		}
	}

	return start, end, nil
}
