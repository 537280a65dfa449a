package errs

import "errors"

// Sentinel errors shared across store, controller and handlers.
var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrBinNotFound      = errors.New("bin not found")
	ErrTicketClosed     = errors.New("ticket is closed")
	ErrQuotaExceeded    = errors.New("max open tickets reached")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5 stars")
	ErrUnknownCategory  = errors.New("unknown ticket category")
)
