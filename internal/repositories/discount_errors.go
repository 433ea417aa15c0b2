package repositories

import "errors"

var (
	// ErrDiscountExhausted indicates the code's usage limit has been reached.
	ErrDiscountExhausted = errors.New("discount repository: usage limit reached")
)
