package tracking

import "errors"

// Error taxonomy surfaced to the HTTP layer. Anything else coming out of the
// store is wrapped as ErrStoreUnavailable so the ingestion path can treat it
// as non-fatal telemetry loss.
var (
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrListingNotFound  = errors.New("listing not found for vendor")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("store unavailable")
)
