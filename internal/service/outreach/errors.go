package outreach

import "errors"

// Sentinel errors for the outreach service layer.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("recipient username already exists")
	ErrDuplicateCode     = errors.New("template code already exists")
	ErrBatchComplete     = errors.New("batch is already complete")
)
