package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ottbox/backend/internal/logging"
)

// VideoCatalog is the slice of video persistence the sync engine drives.
type VideoCatalog interface {
	Upsert(ctx context.Context, title, filename, description string, duration int) (int64, error)
	PruneMissing(ctx context.Context, live []string) error
}

// Syncer makes the set of catalog rows equal to the set of .mp4 files
// present in the media directory at the moment of the scan.
type Syncer struct {
	dir    string
	videos VideoCatalog
}

// NewSyncer constructs a Syncer over the media directory.
func NewSyncer(dir string, videos VideoCatalog) *Syncer {
	return &Syncer{dir: dir, videos: videos}
}

// Sync scans the media directory once, upserting a row per playable file and
// pruning rows whose file has disappeared. Any upsert failure aborts the
// scan before the prune step so a transient error never empties the catalog.
func (s *Syncer) Sync(ctx context.Context) error {
	done := logging.Operation(ctx, "catalog-sync")

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		err = fmt.Errorf("read media directory %s: %w", s.dir, err)
		done(err)
		return err
	}

	var live []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".mp4") {
			continue
		}

		if _, err := s.videos.Upsert(ctx, TitleFromFilename(name), name, "", 0); err != nil {
			err = fmt.Errorf("upsert %s: %w", name, err)
			done(err)
			return err
		}
		live = append(live, name)
	}

	if err := s.videos.PruneMissing(ctx, live); err != nil {
		done(err)
		return err
	}

	done(nil)
	return nil
}

// TitleFromFilename derives a display title from an on-disk basename: the
// final extension is dropped and underscores and dashes become spaces. The
// raw filename is kept when that would leave nothing.
func TitleFromFilename(name string) string {
	base := name
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	if strings.TrimSpace(base) == "" {
		return name
	}
	return base
}
