package rib

import "github.com/pkg/errors"

// Sentinel errors returned by table operations. They are wrapped with
// operation context, test with errors.Is.
var (
	ErrInvalidPrefix      = errors.New("invalid prefix")
	ErrFamilyMismatch     = errors.New("address family mismatch")
	ErrUnknownPrefix      = errors.New("no exact match")
	ErrImmutableAttribute = errors.New("prefix is immutable")
)
