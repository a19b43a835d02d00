package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, providers and adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: principal or record does not exist in the backing store
//   - ErrExpired: token or session has expired
//   - ErrUnavailable: backend temporarily unavailable
//   - ErrClosed: component was torn down
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
