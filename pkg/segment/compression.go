package segment

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// Codec compresses frame payloads.
type Codec interface {
	Name() string
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
}

const (
	CompressionNone = "none"
	CompressionLz4  = "lz4"
)

func codecFor(name string) (Codec, error) {
	switch name {
	case "", CompressionNone:
		return noCompression{}, nil
	case CompressionLz4:
		return lz4Compression{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

type noCompression struct{}

func (noCompression) Name() string { return CompressionNone }

func (noCompression) Compress(p []byte) ([]byte, error) {
	return p, nil
}

func (noCompression) Decompress(p []byte) ([]byte, error) {
	return p, nil
}

type lz4Compression struct{}

func (lz4Compression) Name() string { return CompressionLz4 }

func (lz4Compression) Compress(p []byte) ([]byte, error) {
	var b bytes.Buffer
	writer := lz4.NewWriter(&b)
	if _, err := writer.Write(p); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func (lz4Compression) Decompress(p []byte) ([]byte, error) {
	var b bytes.Buffer
	if _, err := io.Copy(&b, lz4.NewReader(bytes.NewReader(p))); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
