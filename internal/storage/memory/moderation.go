package memory

import (
	"context"
	"sync"
	"time"

	"github.com/encorelive/encore-backend/internal/models"
)

// ModerationStore keeps blocks, mutes, removals and reports in memory.
type ModerationStore struct {
	mu       sync.RWMutex
	blocks   []models.Block
	mutes    []models.Mute
	removals []models.ChatRemoval
	reports  map[string]*models.Report
}

func NewModerationStore() *ModerationStore {
	return &ModerationStore{reports: make(map[string]*models.Report)}
}

func (s *ModerationStore) CreateBlock(ctx context.Context, b models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.blocks {
		if existing.BlockerID == b.BlockerID && existing.BlockedID == b.BlockedID && existing.EventID == b.EventID {
			return nil // already blocked, keep the original record
		}
	}
	s.blocks = append(s.blocks, b)
	return nil
}

func (s *ModerationStore) DeleteBlock(ctx context.Context, blockerID, blockedID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.blocks[:0]
	for _, b := range s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID && (eventID == "" || b.EventID == eventID) {
			continue
		}
		kept = append(kept, b)
	}
	s.blocks = kept
	return nil
}

// BlocksBetween returns every directed block touching the (a, b) pair,
// including global blocks.
func (s *ModerationStore) BlocksBetween(ctx context.Context, a, b string) ([]models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Block
	for _, blk := range s.blocks {
		if (blk.BlockerID == a && blk.BlockedID == b) || (blk.BlockerID == b && blk.BlockedID == a) {
			out = append(out, blk)
		}
	}
	return out, nil
}

func (s *ModerationStore) CreateMute(ctx context.Context, m models.Mute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutes = append(s.mutes, m)
	return nil
}

// ActiveMute returns the in-force mute for the user in the event, or nil.
func (s *ModerationStore) ActiveMute(ctx context.Context, eventID, userID string, now time.Time) (*models.Mute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.mutes {
		m := s.mutes[i]
		if m.EventID == eventID && m.UserID == userID && m.ActiveAt(now) {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func (s *ModerationStore) CreateRemoval(ctx context.Context, r models.ChatRemoval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removals = append(s.removals, r)
	return nil
}

func (s *ModerationStore) Removal(ctx context.Context, eventID, userID string) (*models.ChatRemoval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.removals {
		r := s.removals[i]
		if r.EventID == eventID && r.UserID == userID {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

func (s *ModerationStore) CreateReport(ctx context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *r
	s.reports[stored.ID] = &stored
	return nil
}

func (s *ModerationStore) ReportsForEvent(ctx context.Context, eventID string) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Report
	for _, r := range s.reports {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *ModerationStore) UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	t := resolvedAt
	r.ResolvedAt = &t
	return nil
}
