package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fundwatch/fundwatch-backend/internal/apperrors"
	"github.com/fundwatch/fundwatch-backend/internal/eastmoney"
	"github.com/fundwatch/fundwatch-backend/internal/model"
	"github.com/fundwatch/fundwatch-backend/internal/store"
)

// refreshConcurrency bounds parallel estimations during a watch-list
// refresh. The bulk quote fetch is shared (cached at the gateway), so the
// per-fund work is the holdings and NAV lookups.
const refreshConcurrency = 4

// WatchlistService manages the tracked fund list and orchestrates batch
// valuation of it.
type WatchlistService struct {
	store     *store.FileStore
	funds     *FundService
	snapshots *SnapshotService
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(fileStore *store.FileStore, funds *FundService, snapshots *SnapshotService) *WatchlistService {
	return &WatchlistService{
		store:     fileStore,
		funds:     funds,
		snapshots: snapshots,
	}
}

// Entries returns the persisted watch-list in order.
func (s *WatchlistService) Entries() []model.WatchlistEntry {
	return s.store.Load()
}

// Corrupt reports whether the persisted watch-list was unreadable on the
// last load, meaning data may have been lost.
func (s *WatchlistService) Corrupt() bool {
	return s.store.Corrupt()
}

// Add appends a fund to the watch-list, caching its display name from the
// gateway. Adding a code already present is a no-op; the second return
// reports whether the entry is new. A profile lookup failure does not
// block the add — the code itself is used as the cached name.
func (s *WatchlistService) Add(ctx context.Context, code string) (model.WatchlistEntry, bool, error) {
	if !eastmoney.IsValidFundCode(code) {
		return model.WatchlistEntry{}, false, apperrors.ErrInvalidFundCode
	}

	for _, existing := range s.store.Load() {
		if existing.Code == code {
			return existing, false, nil
		}
	}

	entry := model.WatchlistEntry{Code: code, Name: code}
	if profile, err := s.funds.Profile(ctx, code); err == nil && profile.Name != "" {
		entry.Name = profile.Name
	} else if err != nil {
		log.Printf("profile lookup failed for %s, caching code as name: %v", code, err)
	}

	if err := s.store.Add(entry); err != nil {
		return model.WatchlistEntry{}, false, err
	}
	return entry, true, nil
}

// Remove deletes a fund from the watch-list.
func (s *WatchlistService) Remove(code string) error {
	return s.store.Remove(code)
}

// ValueFor estimates a single fund and packages the result with a stale
// fallback. On success the result is also recorded as a snapshot; on
// failure the most recent snapshot (if any) is attached so the caller can
// show a clearly labeled stale value.
func (s *WatchlistService) ValueFor(ctx context.Context, entry model.WatchlistEntry, now time.Time) model.WatchlistValue {
	value := model.WatchlistValue{Entry: entry}

	result, err := s.funds.Estimate(ctx, entry.Code, now)
	if err != nil {
		value.Error = "unable to compute a value for this fund right now"
		if snapshot, serr := s.snapshots.Latest(ctx, entry.Code); serr == nil {
			value.Stale = &snapshot
		}
		return value
	}

	value.Result = &result
	if _, err := s.snapshots.Record(ctx, result); err != nil {
		log.Printf("failed to record snapshot for %s: %v", entry.Code, err)
	}
	return value
}

// Values estimates every watched fund, bounded-concurrently. The slice is
// ordered like the watch-list; per-fund failures are embedded, never
// returned as an overall error.
func (s *WatchlistService) Values(ctx context.Context, now time.Time) []model.WatchlistValue {
	entries := s.store.Load()
	values := make([]model.WatchlistValue, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			values[i] = s.ValueFor(gctx, entry, now)
			return nil
		})
	}
	// Workers never return errors; failures live inside each value.
	_ = g.Wait()

	return values
}

// ExportJSON produces the canonical watch-list representation; the bytes
// round-trip exactly through Import.
func (s *WatchlistService) ExportJSON() ([]byte, error) {
	return s.store.ExportAll()
}

// ExportCSV produces a point-in-time snapshot of the watch-list with the
// most recently computed value and change per fund. It is a report, not a
// re-importable backup.
func (s *WatchlistService) ExportCSV(ctx context.Context, now time.Time) ([]byte, error) {
	values := s.Values(ctx, now)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"code", "name", "value", "change_percent", "source", "computed_at"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, v := range values {
		record := []string{v.Entry.Code, v.Entry.Name, "", "", "", ""}
		switch {
		case v.Result != nil:
			record[2] = strconv.FormatFloat(v.Result.Value, 'f', 4, 64)
			record[3] = strconv.FormatFloat(v.Result.ChangePercent, 'f', 2, 64)
			record[4] = v.Result.SourceLabel
			record[5] = v.Result.ComputedAt.Format(time.RFC3339)
		case v.Stale != nil:
			record[2] = strconv.FormatFloat(v.Stale.Value, 'f', 4, 64)
			record[3] = strconv.FormatFloat(v.Stale.ChangePercent, 'f', 2, 64)
			record[4] = v.Stale.SourceLabel + " (stale)"
			record[5] = v.Stale.ComputedAt.Format(time.RFC3339)
		default:
			record[4] = "no data"
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// Import merges entries into the watch-list, deduplicating by code with
// last-write-wins on cached names. Accepts the canonical record form and
// the legacy string-array form. Returns the number of entries processed.
func (s *WatchlistService) Import(data []byte) (int, error) {
	entries, err := store.ParseEntries(data)
	if err != nil {
		return 0, err
	}

	for i, entry := range entries {
		if !eastmoney.IsValidFundCode(entry.Code) {
			return 0, fmt.Errorf("entry %q: %w", entry.Code, apperrors.ErrInvalidFundCode)
		}
		// Legacy string-array imports carry no names.
		if entry.Name == "" {
			entries[i].Name = entry.Code
		}
	}

	if err := s.store.ImportAll(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
