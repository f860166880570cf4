package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
)

const (
	manifestFile     = "manifest.json"
	manifestTempFile = "manifest.temp"
)

// Manifest is the ordered list of segments in a log directory. The order of
// the list is the order in which segments are read.
type Manifest struct {
	dirPath  string
	rwlock   sync.RWMutex
	segments []SegmentInfo
}

// SegmentInfo identifies a segment file and the codec its frames use.
type SegmentInfo struct {
	ID          uuid.UUID `json:"id"`
	Compression string    `json:"compression"`
}

type manifestData struct {
	Segments []SegmentInfo `json:"segments"`
}

// OpenManifest loads the manifest in dirPath, creating an empty one if none
// exists.
func OpenManifest(dirPath string) (*Manifest, error) {
	m := &Manifest{dirPath: dirPath}
	if err := m.readFromFile(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) Add(info SegmentInfo) {
	m.rwlock.Lock()
	defer m.rwlock.Unlock()
	m.segments = append(m.segments, info)
}

func (m *Manifest) Segments() []SegmentInfo {
	m.rwlock.RLock()
	defer m.rwlock.RUnlock()
	return slices.Clone(m.segments)
}

// Save writes the manifest to a temporary file and renames it into place.
func (m *Manifest) Save() error {
	m.rwlock.RLock()
	defer m.rwlock.RUnlock()
	return m.atomicSwap()
}

func (m *Manifest) atomicSwap() error {
	tmp := filepath.Join(m.dirPath, manifestTempFile)
	b, err := json.Marshal(manifestData{Segments: m.segments})
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return os.Rename(tmp, filepath.Join(m.dirPath, manifestFile))
}

func (m *Manifest) readFromFile() error {
	b, err := os.ReadFile(filepath.Join(m.dirPath, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return m.Save()
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var data manifestData
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	m.segments = data.Segments
	return nil
}
