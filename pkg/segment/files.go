package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const segmentsDir = "segments"

func segmentPath(dir string, id uuid.UUID) string {
	return filepath.Join(dir, segmentsDir, fmt.Sprintf("segment.%s.log", id))
}

// fileCache shares read-only segment handles between readers. Evicted
// handles are closed, so a reader must reopen on os.ErrClosed.
type fileCache struct {
	dir   string
	files *lru.Cache[uuid.UUID, *os.File]

	mu     sync.Mutex
	closed bool
}

func newFileCache(dir string, size int) (*fileCache, error) {
	files, err := lru.NewWithEvict[uuid.UUID, *os.File](size, func(_ uuid.UUID, f *os.File) {
		f.Close()
	})
	if err != nil {
		return nil, err
	}

	return &fileCache{dir: dir, files: files}, nil
}

func (c *fileCache) get(id uuid.UUID) (*os.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if f, ok := c.files.Get(id); ok {
		return f, nil
	}

	f, err := os.Open(segmentPath(c.dir, id))
	if err != nil {
		return nil, fmt.Errorf("open segment %v: %w", id, err)
	}

	if prev, ok, _ := c.files.PeekOrAdd(id, f); ok {
		f.Close()
		return prev, nil
	}
	return f, nil
}

// forget drops id so the next get opens a fresh handle.
func (c *fileCache) forget(id uuid.UUID) {
	c.files.Remove(id)
}

// close closes every cached handle. Later calls to get fail with ErrClosed.
func (c *fileCache) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.files.Purge()
}
