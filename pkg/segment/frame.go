package segment

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// A frame is laid out as
//
//	[16 byte md5 of payload][8 byte little-endian payload length][payload]
const frameHeaderSize = md5.Size + 8

var ErrCorruptFrame = errors.New("segment: corrupt frame")

// ErrTornFrame is a corrupt frame cut short by the end of the segment, as
// left behind by an interrupted write.
var ErrTornFrame = fmt.Errorf("%w: frame runs past end of segment", ErrCorruptFrame)

func encodeFrame(payload []byte) []byte {
	frame := make([]byte, frameHeaderSize+len(payload))
	sum := md5.Sum(payload)
	copy(frame, sum[:])
	binary.LittleEndian.PutUint64(frame[md5.Size:], uint64(len(payload)))
	copy(frame[frameHeaderSize:], payload)
	return frame
}

// readFrame reads the frame at off and returns its payload and the total
// number of bytes the frame occupies. It returns io.EOF only when off is
// exactly the end of the data.
func readFrame(r io.ReaderAt, off int64) ([]byte, int64, error) {
	var header [frameHeaderSize]byte
	n, err := r.ReadAt(header[:], off)
	if n == 0 && errors.Is(err, io.EOF) {
		return nil, 0, io.EOF
	}
	if n < frameHeaderSize {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: short header at offset %d", ErrTornFrame, off)
		}
		return nil, 0, err
	}

	size := binary.LittleEndian.Uint64(header[md5.Size:])
	if size > maxFrameSize {
		return nil, 0, fmt.Errorf("%w: payload size %d at offset %d", ErrCorruptFrame, size, off)
	}

	payload := make([]byte, size)
	n, err = r.ReadAt(payload, off+frameHeaderSize)
	if n < len(payload) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: short payload at offset %d", ErrTornFrame, off)
		}
		return nil, 0, err
	}

	sum := md5.Sum(payload)
	if !bytes.Equal(sum[:], header[:md5.Size]) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch at offset %d", ErrCorruptFrame, off)
	}

	return payload, frameHeaderSize + int64(size), nil
}

const maxFrameSize = 1 << 30
