package campaign

import "errors"

var (
	ErrNotFound   = errors.New("campaign not found")
	ErrValidation = errors.New("validation error")
)
