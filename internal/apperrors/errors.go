package apperrors

import "errors"

// Gateway errors represent failures talking to the market data provider.
// They are always recovered locally by the estimation engine, which treats
// them as "this tier failed, try the next".
var (
	// ErrGatewayUnavailable indicates a network, timeout, or parse failure
	// for a single gateway lookup.
	ErrGatewayUnavailable = errors.New("market data gateway unavailable")

	// ErrNoMatchingQuote indicates a holding's stock code could not be
	// matched against the bulk quote snapshot.
	ErrNoMatchingQuote = errors.New("no matching quote for holding")

	// ErrSentinelValue indicates a live-estimate lookup returned the
	// provider's placeholder value, indistinguishable from "no real data".
	ErrSentinelValue = errors.New("live estimate is a provider placeholder")

	// ErrFundNotFound indicates the provider has no fund for the given code.
	ErrFundNotFound = errors.New("fund not found")
)

// Estimation errors represent terminal outcomes of the fallback chain.
var (
	// ErrNotAvailable is the terminal result when all estimation tiers
	// fail. It is the only estimation error surfaced across the component
	// boundary, so callers can distinguish "no data" from "zero change".
	ErrNotAvailable = errors.New("no estimation available")
)

// Validation errors represent rejected caller input.
var (
	// ErrInvalidFundCode indicates a fund code that is not a 6-digit string.
	ErrInvalidFundCode = errors.New("fund code must be 6 digits")

	// ErrDuplicateEntry indicates the watch-list already contains the code.
	ErrDuplicateEntry = errors.New("fund already in watch-list")

	// ErrInvalidImportPayload indicates an import body that is neither the
	// canonical record form nor the legacy string-array form.
	ErrInvalidImportPayload = errors.New("unrecognized watch-list import format")
)

// Storage errors represent local persistence failures.
var (
	// ErrStoreCorrupt indicates the watch-list file was unreadable or
	// unparsable. The store recovers by treating the list as empty, but
	// surfaces the condition so the user knows data may have been lost.
	ErrStoreCorrupt = errors.New("watch-list file corrupt")

	// ErrSnapshotNotFound indicates no snapshot has been recorded for a fund.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Backup errors represent failures of the optional cloud backup channel.
var (
	// ErrBackupNotConfigured indicates the gist ID or token is missing.
	ErrBackupNotConfigured = errors.New("cloud backup not configured")

	// ErrBackupFailed indicates the remote blob operation did not succeed.
	ErrBackupFailed = errors.New("cloud backup operation failed")
)
