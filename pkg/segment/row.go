package segment

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack"
)

type RowType int

const (
	Put RowType = iota
	Delete
)

func (t RowType) String() string {
	switch t {
	case Put:
		return "put"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("RowType(%d)", int(t))
	}
}

type Row struct {
	Sequence  int64
	Timestamp int64
	Type      RowType

	Key   []byte
	Value []byte
}

// MarshalRow encodes the row fields in declaration order.
func MarshalRow(r *Row) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	if err := enc.EncodeInt64(r.Sequence); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt64(r.Timestamp); err != nil {
		return nil, err
	}
	if err := enc.EncodeInt64(int64(r.Type)); err != nil {
		return nil, err
	}
	if err := enc.EncodeBytes(r.Key); err != nil {
		return nil, err
	}
	if err := enc.EncodeBytes(r.Value); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func UnmarshalRow(b []byte) (*Row, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))

	sequence, err := dec.DecodeInt64()
	if err != nil {
		return nil, fmt.Errorf("decode sequence: %w", err)
	}

	timestamp, err := dec.DecodeInt64()
	if err != nil {
		return nil, fmt.Errorf("decode timestamp: %w", err)
	}

	typ, err := dec.DecodeInt64()
	if err != nil {
		return nil, fmt.Errorf("decode type: %w", err)
	}

	key, err := dec.DecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}

	value, err := dec.DecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	return &Row{
		Sequence:  sequence,
		Timestamp: timestamp,
		Type:      RowType(typ),
		Key:       key,
		Value:     value,
	}, nil
}

func (r *Row) Size() int {
	return len(r.Key) + len(r.Value) + 3*8
}

func (r *Row) String() string {
	return fmt.Sprintf("Row{Sequence: %d, Timestamp: %d, Type: %v, Key: %s, size: %d}",
		r.Sequence, r.Timestamp, r.Type, hex.EncodeToString(r.Key), r.Size())
}
