package domain

import "errors"

// Sentinel errors for the service and transport layers. Services wrap these
// with %w and context; the HTTP handler maps them to status codes with
// errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
