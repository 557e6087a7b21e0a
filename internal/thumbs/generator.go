package thumbs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ottbox/backend/internal/logging"
)

// CommandRunner executes an external command and waits for it.
type CommandRunner func(ctx context.Context, binary string, args ...string) error

// Generator lazily produces poster frames next to a deterministic cache
// path, shelling out to ffmpeg on a miss. Generation for a given video id is
// serialised so two concurrent misses never race on the same file.
type Generator struct {
	Binary string
	Dir    string
	Run    CommandRunner

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewGenerator constructs a Generator writing JPEGs under dir.
func NewGenerator(binary, dir string) *Generator {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Generator{
		Binary: binary,
		Dir:    dir,
		Run:    defaultCommandRunner,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// Ensure returns the cache path for the video, regenerating the frame when
// the cached copy is missing or older than the source file. On encoder
// failure the partial output is removed and the error surfaces to the caller.
func (g *Generator) Ensure(ctx context.Context, videoID int64, srcPath string) (string, error) {
	lock := g.lockFor(videoID)
	lock.Lock()
	defer lock.Unlock()

	src, err := os.Stat(srcPath)
	if err != nil {
		return "", fmt.Errorf("stat source %s: %w", srcPath, err)
	}

	dst := filepath.Join(g.Dir, fmt.Sprintf("%d.jpg", videoID))
	if cached, err := os.Stat(dst); err == nil && !cached.ModTime().Before(src.ModTime()) {
		return dst, nil
	}

	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail directory: %w", err)
	}

	done := logging.Operation(ctx, "thumbnail-generate")
	run := g.Run
	if run == nil {
		run = defaultCommandRunner
	}

	err = run(ctx, g.Binary,
		"-y",
		"-loglevel", "error",
		"-ss", "5",
		"-i", srcPath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		dst,
	)
	if err != nil {
		os.Remove(dst)
		err = fmt.Errorf("generate thumbnail for video %d: %w", videoID, err)
		done(err)
		return "", err
	}

	done(nil)
	return dst, nil
}

func (g *Generator) lockFor(videoID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[videoID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[videoID] = lock
	}
	return lock
}

// defaultCommandRunner discards the child's output; only the exit status
// decides success.
func defaultCommandRunner(ctx context.Context, binary string, args ...string) error {
	return exec.CommandContext(ctx, binary, args...).Run()
}
