package repository

import "errors"

var ErrInvalidCheckRange = errors.New("min check exceeds max check")
