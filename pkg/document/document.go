package document

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack"
)

// Document is a JSON-like object stored in msgpack form. The decoded map is
// cached after first use.
type Document struct {
	bin   []byte
	cache map[string]any
}

func NewDocumentFromJSON(str string) (*Document, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(str), &obj); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return NewDocumentFromMap(obj)
}

func NewDocumentFromMap(obj map[string]any) (*Document, error) {
	res, err := msgpack.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	return &Document{
		bin:   res,
		cache: obj,
	}, nil
}

// NewDocumentFromBytes wraps msgpack produced by Bytes. The data is decoded
// lazily.
func NewDocumentFromBytes(bin []byte) *Document {
	return &Document{bin: bin}
}

func (d *Document) Bytes() []byte {
	return d.bin
}

func (d *Document) Map() (map[string]any, error) {
	if d.cache == nil {
		var obj map[string]any
		if err := msgpack.Unmarshal(d.bin, &obj); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		d.cache = obj
	}

	return d.cache, nil
}

// Eval compiles and evaluates a JSONata expression against the document.
// Use Compile for expressions evaluated more than once.
func (d *Document) Eval(expr string) (any, error) {
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Eval(d)
}
