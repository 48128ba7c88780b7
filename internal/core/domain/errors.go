package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidKey   = errors.New("invalid key")
	ErrInvalidValue = errors.New("invalid value")
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTenantNotFound and ErrPairNotFound both match ErrNotFound so the
	// transport can map them to one status while callers can still tell
	// them apart.
	ErrTenantNotFound = fmt.Errorf("tenant %w", ErrNotFound)
	ErrPairNotFound   = fmt.Errorf("pair %w", ErrNotFound)
)
