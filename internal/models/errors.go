package models

import "errors"

// ErrValidation marks input rejected before it reaches the store
var ErrValidation = errors.New("validation error")
