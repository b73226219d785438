package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fundwatch/fundwatch-backend/internal/model"
	"github.com/fundwatch/fundwatch-backend/internal/repository"
)

// SnapshotService records computed estimation results and serves the last
// known value per fund, so the display layer can show a clearly labeled
// stale number when every live tier fails.
type SnapshotService struct {
	repo *repository.SnapshotRepository
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(repo *repository.SnapshotRepository) *SnapshotService {
	return &SnapshotService{repo: repo}
}

// Record persists one estimation result as a snapshot.
func (s *SnapshotService) Record(ctx context.Context, result model.EstimationResult) (model.Snapshot, error) {
	snapshot := model.Snapshot{
		ID:            uuid.New().String(),
		FundCode:      result.Code,
		Kind:          result.Kind,
		Value:         result.Value,
		ChangePercent: result.ChangePercent,
		SourceLabel:   result.SourceLabel,
		SampleCount:   result.SampleCount,
		SampleWeight:  result.SampleWeight,
		ComputedAt:    result.ComputedAt,
	}

	if err := s.repo.Insert(ctx, snapshot); err != nil {
		return model.Snapshot{}, err
	}
	return snapshot, nil
}

// Latest returns the most recent snapshot for a fund.
func (s *SnapshotService) Latest(ctx context.Context, fundCode string) (model.Snapshot, error) {
	return s.repo.Latest(ctx, fundCode)
}

// LatestByFund returns the most recent snapshot per fund code; codes
// without history are absent from the map.
func (s *SnapshotService) LatestByFund(ctx context.Context, fundCodes []string) (map[string]model.Snapshot, error) {
	return s.repo.LatestByFund(ctx, fundCodes)
}

// History returns up to limit snapshots for a fund, newest first.
func (s *SnapshotService) History(ctx context.Context, fundCode string, limit int) ([]model.Snapshot, error) {
	return s.repo.History(ctx, fundCode, limit)
}

// Prune removes snapshots older than the retention window.
func (s *SnapshotService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PruneBefore(ctx, time.Now().Add(-retention))
}
