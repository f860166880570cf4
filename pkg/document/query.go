package document

import (
	"errors"
	"fmt"

	"github.com/blues/jsonata-go"

	"github.com/johnjamespj/chainlog/pkg/iterator"
	"github.com/johnjamespj/chainlog/pkg/segment"
)

// Query is a compiled JSONata expression.
type Query struct {
	src  string
	expr *jsonata.Expr
}

func Compile(expr string) (*Query, error) {
	e, err := jsonata.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}

	return &Query{src: expr, expr: e}, nil
}

func (q *Query) String() string {
	return q.src
}

func (q *Query) Eval(d *Document) (any, error) {
	obj, err := d.Map()
	if err != nil {
		return nil, err
	}

	return q.expr.Eval(obj)
}

// Matches reports whether the query evaluates to boolean true. An undefined
// result does not match.
func (q *Query) Matches(d *Document) (bool, error) {
	v, err := q.Eval(d)
	if errors.Is(err, jsonata.ErrUndefined) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", q.src, err)
	}

	ok, _ := v.(bool)
	return ok, nil
}

// Rows decodes the values of put rows as documents. Delete rows are
// skipped.
func Rows(src iterator.Source[*segment.Row]) iterator.Source[*Document] {
	puts := iterator.Where(src, func(r *segment.Row) (bool, error) {
		return r.Type == segment.Put, nil
	})

	return iterator.Map(puts, func(r *segment.Row) (*Document, error) {
		return NewDocumentFromBytes(r.Value), nil
	})
}

// Select yields the documents of src that match q.
func Select(src iterator.Source[*Document], q *Query) iterator.Source[*Document] {
	return iterator.Where(src, q.Matches)
}
