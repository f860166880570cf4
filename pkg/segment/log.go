package segment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/johnjamespj/chainlog/pkg/iterator"
)

var ErrClosed = errors.New("segment: log is closed")

type Option func(*Log)

func WithLogger(log *zap.Logger) Option {
	return func(l *Log) {
		l.log = log
	}
}

// Log is an append-only sequence of rows stored across segment files.
// Appends go to the newest segment; Scan reads every segment in order as a
// single stream.
//
// Log is safe for concurrent use. The iterators returned by Scan are not.
type Log struct {
	cfg      Config
	codec    Codec
	manifest *Manifest
	files    *fileCache
	frames   *lru.TwoQueueCache[frameKey, cachedFrame]
	log      *zap.Logger

	mu          sync.Mutex
	active      *os.File
	activeInfo  SegmentInfo
	activeCodec Codec
	size        int64
	sequence    int64
	closed      bool
}

func Open(cfg Config, opts ...Option) (*Log, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	codec, err := codecFor(cfg.Compression)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(cfg.Dir, segmentsDir), 0o755); err != nil {
		return nil, err
	}

	manifest, err := OpenManifest(cfg.Dir)
	if err != nil {
		return nil, err
	}

	files, err := newFileCache(cfg.Dir, cfg.MaxOpenFiles)
	if err != nil {
		return nil, err
	}

	frames, err := lru.New2Q[frameKey, cachedFrame](cfg.FrameCacheSize)
	if err != nil {
		return nil, err
	}

	l := &Log{
		cfg:      cfg,
		codec:    codec,
		manifest: manifest,
		files:    files,
		frames:   frames,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.recover(); err != nil {
		files.close()
		return nil, err
	}

	return l, nil
}

// recover reopens the newest segment for appending and restores the
// sequence counter. A torn frame at the end of the newest segment is
// truncated away; any other corrupt frame fails recovery so the frames
// after it are left on disk.
func (l *Log) recover() error {
	segments := l.manifest.Segments()
	if len(segments) == 0 {
		return l.rotate()
	}

	last := segments[len(segments)-1]
	r, err := l.newReader(last)
	if err != nil {
		return err
	}

	var torn bool
	for r.HasNext() {
		row, err := r.Next()
		if errors.Is(err, ErrTornFrame) {
			torn = true
			break
		}
		if err != nil {
			return fmt.Errorf("recover segment %v: %w", last.ID, err)
		}
		l.sequence = row.Sequence
	}

	// The newest segment may be empty right after a rotation.
	for i := len(segments) - 2; i >= 0 && l.sequence == 0; i-- {
		seq, err := l.lastSequence(segments[i])
		if err != nil {
			return err
		}
		l.sequence = seq
	}

	f, err := os.OpenFile(segmentPath(l.cfg.Dir, last.ID), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open segment %v: %w", last.ID, err)
	}

	if torn {
		l.log.Warn("truncating torn segment tail",
			zap.Stringer("segment", last.ID),
			zap.Int64("offset", r.Offset()),
			zap.Error(r.Err()))
		if err := f.Truncate(r.Offset()); err != nil {
			f.Close()
			return fmt.Errorf("truncate segment %v: %w", last.ID, err)
		}
	}

	l.active = f
	l.activeInfo = last
	l.activeCodec = r.codec
	l.size = r.Offset()

	l.log.Debug("opened log",
		zap.String("dir", l.cfg.Dir),
		zap.Int("segments", len(segments)),
		zap.Int64("sequence", l.sequence))
	return nil
}

func (l *Log) lastSequence(info SegmentInfo) (int64, error) {
	r, err := l.newReader(info)
	if err != nil {
		return 0, err
	}

	var seq int64
	for r.HasNext() {
		row, err := r.Next()
		if err != nil {
			return 0, fmt.Errorf("recover segment %v: %w", info.ID, err)
		}
		seq = row.Sequence
	}
	return seq, nil
}

// Append writes a row to the newest segment and returns it with its
// sequence number and timestamp filled in.
//
// If the write succeeds but the following rotation fails, the row is
// returned together with the error.
func (l *Log) Append(typ RowType, key, value []byte) (*Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}

	row := &Row{
		Sequence:  l.sequence + 1,
		Timestamp: time.Now().UnixNano(),
		Type:      typ,
		Key:       key,
		Value:     value,
	}

	b, err := MarshalRow(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}

	payload, err := l.activeCodec.Compress(b)
	if err != nil {
		return nil, fmt.Errorf("compress row: %w", err)
	}

	frame := encodeFrame(payload)
	if _, err := l.active.Write(frame); err != nil {
		// Drop whatever part of the frame made it to disk.
		_ = l.active.Truncate(l.size)
		return nil, fmt.Errorf("write segment %v: %w", l.activeInfo.ID, err)
	}

	if l.cfg.SyncWrites {
		if err := l.active.Sync(); err != nil {
			return nil, fmt.Errorf("sync segment %v: %w", l.activeInfo.ID, err)
		}
	}

	l.sequence = row.Sequence
	l.size += int64(len(frame))

	if l.size >= l.cfg.MaxSegmentSize {
		if err := l.rotate(); err != nil {
			return row, fmt.Errorf("rotate: %w", err)
		}
	}

	return row, nil
}

// Rotate closes the newest segment for writing and starts a new one.
func (l *Log) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	return l.rotate()
}

func (l *Log) rotate() error {
	info := SegmentInfo{ID: uuid.New(), Compression: l.codec.Name()}
	f, err := os.OpenFile(segmentPath(l.cfg.Dir, info.ID), os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create segment %v: %w", info.ID, err)
	}

	l.manifest.Add(info)
	if err := l.manifest.Save(); err != nil {
		f.Close()
		return fmt.Errorf("save manifest: %w", err)
	}

	if l.active != nil {
		if err := l.active.Close(); err != nil {
			l.log.Warn("close segment", zap.Stringer("segment", l.activeInfo.ID), zap.Error(err))
		}
	}

	l.log.Debug("rotated segment",
		zap.Stringer("segment", info.ID),
		zap.Stringer("previous", l.activeInfo.ID),
		zap.Int64("previousSize", l.size))

	l.active = f
	l.activeInfo = info
	l.activeCodec = l.codec
	l.size = 0
	return nil
}

// Segments returns the segments of the log, oldest first.
func (l *Log) Segments() []SegmentInfo {
	return l.manifest.Segments()
}

// Sequence returns the sequence number of the last appended row.
func (l *Log) Sequence() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sequence
}

// Scan returns an iterator over every row in the log, oldest first. Each
// segment is read through its own Reader; segments the caller never reaches
// are never opened. Rows appended after Scan returns may or may not be seen.
func (l *Log) Scan() (*iterator.CompositeIterator[*Row], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}

	it := iterator.NewCompositeIterator[*Row]()
	for _, info := range l.manifest.Segments() {
		r, err := l.newReader(info)
		if err != nil {
			return nil, err
		}
		if err := it.Add(r); err != nil {
			return nil, err
		}
	}

	return it, nil
}

// NewReader returns a reader over a single segment of the log.
func (l *Log) NewReader(info SegmentInfo) (*Reader, error) {
	return l.newReader(info)
}

func (l *Log) newReader(info SegmentInfo) (*Reader, error) {
	codec, err := codecFor(info.Compression)
	if err != nil {
		return nil, fmt.Errorf("segment %v: %w", info.ID, err)
	}

	return &Reader{
		info:   info,
		codec:  codec,
		files:  l.files,
		frames: l.frames,
		log:    l.log,
	}, nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	l.files.close()

	var errs []error
	if l.active != nil {
		errs = append(errs, l.active.Close())
	}
	errs = append(errs, l.manifest.Save())
	return errors.Join(errs...)
}
