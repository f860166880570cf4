package iterator

import "errors"

var (
	ErrInUse           = errors.New("iterator: sources cannot be added after iteration has started")
	ErrDuplicateSource = errors.New("iterator: source already added")
	ErrNilSource       = errors.New("iterator: nil source")
	ErrExhausted       = errors.New("iterator: no more elements")
)
