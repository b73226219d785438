package model

// WatchlistEntry is one fund the user tracks. Entries are ordered and
// unique by Code. Name is a cached display name captured when the entry
// was added; the authoritative name always comes from the gateway.
type WatchlistEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// WatchlistValue pairs a watch-list entry with its freshly computed
// estimate. When the estimate is unavailable, Stale carries the most
// recently recorded snapshot (if any) so callers can show a clearly
// labeled stale value instead of a fabricated one.
type WatchlistValue struct {
	Entry  WatchlistEntry    `json:"entry"`
	Result *EstimationResult `json:"result,omitempty"`
	Stale  *Snapshot         `json:"stale,omitempty"`
	Error  string            `json:"error,omitempty"`
}
