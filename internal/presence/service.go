package presence

import (
	"context"
	"time"

	"kitchen-collab/internal/errors"
)

type Service interface {
	Heartbeat(ctx context.Context, projectID, userID string) error
	SetStatus(ctx context.Context, projectID, userID string, status Status) error
	ListActive(ctx context.Context, projectID string) ([]ActiveUser, error)
	Sweep(ctx context.Context) (int64, error)
}

type DefaultService struct {
	repository Repository
	window     time.Duration // liveness window applied on reads
	expiry     time.Duration // idle horizon for the sweep
	now        func() time.Time
}

func NewService(repository Repository, window, expiry time.Duration) Service {
	return &DefaultService{
		repository: repository,
		window:     window,
		expiry:     expiry,
		now:        time.Now,
	}
}

// Heartbeat refreshes the caller's last-seen timestamp without touching the
// stored status. There is deliberately no project existence check: presence
// must not race against project creation/deletion.
func (s *DefaultService) Heartbeat(ctx context.Context, projectID, userID string) error {
	if userID == "" {
		return errors.Unauthorized("No caller identity", nil)
	}
	return s.repository.Upsert(ctx, projectID, userID, nil, s.now().UTC())
}

// SetStatus sets the caller's own participation status and refreshes
// last-seen in the same write.
func (s *DefaultService) SetStatus(ctx context.Context, projectID, userID string, status Status) error {
	if userID == "" {
		return errors.Unauthorized("No caller identity", nil)
	}
	if !status.Valid() {
		return errors.BadRequest("Invalid status value", nil)
	}
	return s.repository.Upsert(ctx, projectID, userID, &status, s.now().UTC())
}

// ListActive returns every user seen within the liveness window. Stale rows
// are filtered here, on the read path, so every caller gets the same view.
func (s *DefaultService) ListActive(ctx context.Context, projectID string) ([]ActiveUser, error) {
	cutoff := s.now().UTC().Add(-s.window)
	users, err := s.repository.ListActiveSince(ctx, projectID, cutoff)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []ActiveUser{}
	}
	return users, nil
}

// Sweep deletes rows idle past the expiry horizon so the table stays bounded
func (s *DefaultService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.expiry)
	return s.repository.DeleteSeenBefore(ctx, cutoff)
}
