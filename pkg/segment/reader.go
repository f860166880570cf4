package segment

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/johnjamespj/chainlog/pkg/iterator"
)

type frameKey struct {
	segment uuid.UUID
	offset  int64
}

type cachedFrame struct {
	row  *Row
	size int64
}

// Reader reads the rows of one segment in the order they were appended. It
// does not touch the segment file until HasNext is first called, and reads at
// most one frame ahead.
//
// A corrupt frame ends the segment. The error is returned once by Next and
// remains available from Err.
//
// Rows returned by a Reader may be shared with other readers through the
// frame cache and must not be modified.
type Reader struct {
	info   SegmentInfo
	codec  Codec
	files  *fileCache
	frames *lru.TwoQueueCache[frameKey, cachedFrame]
	log    *zap.Logger

	off     int64
	next    *Row
	pending error
	err     error
	done    bool
}

var _ iterator.Source[*Row] = (*Reader)(nil)

func (r *Reader) Segment() SegmentInfo {
	return r.info
}

func (r *Reader) HasNext() bool {
	if r.next != nil || r.pending != nil {
		return true
	}
	if r.done {
		return false
	}

	row, err := r.readRow()
	if err != nil {
		r.done = true
		if errors.Is(err, io.EOF) {
			return false
		}

		r.log.Warn("segment read failed",
			zap.Stringer("segment", r.info.ID),
			zap.Int64("offset", r.off),
			zap.Error(err))
		r.pending, r.err = err, err
		return true
	}

	r.next = row
	return true
}

func (r *Reader) Next() (*Row, error) {
	if !r.HasNext() {
		return nil, iterator.ErrExhausted
	}

	if err := r.pending; err != nil {
		r.pending = nil
		return nil, err
	}

	row := r.next
	r.next = nil
	return row, nil
}

// Err returns the error that ended the segment early, if any.
func (r *Reader) Err() error {
	return r.err
}

// Offset is the position of the first frame not yet read.
func (r *Reader) Offset() int64 {
	return r.off
}

func (r *Reader) readRow() (*Row, error) {
	key := frameKey{segment: r.info.ID, offset: r.off}
	if f, ok := r.frames.Get(key); ok {
		r.off += f.size
		return f.row, nil
	}

	payload, size, err := r.readFrame()
	if err != nil {
		return nil, err
	}

	raw, err := r.codec.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress at offset %d: %v", ErrCorruptFrame, r.off, err)
	}

	row, err := UnmarshalRow(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: at offset %d: %v", ErrCorruptFrame, r.off, err)
	}

	r.frames.Add(key, cachedFrame{row: row, size: size})
	r.off += size
	return row, nil
}

func (r *Reader) readFrame() ([]byte, int64, error) {
	f, err := r.files.get(r.info.ID)
	if err != nil {
		return nil, 0, err
	}

	payload, size, err := readFrame(f, r.off)
	if errors.Is(err, os.ErrClosed) {
		// The handle was evicted while we were using it.
		r.files.forget(r.info.ID)
		if f, err = r.files.get(r.info.ID); err != nil {
			return nil, 0, err
		}
		payload, size, err = readFrame(f, r.off)
	}
	return payload, size, err
}
