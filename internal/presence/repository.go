package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Upsert(ctx context.Context, projectID, userID string, status *Status, at time.Time) error
	ListActiveSince(ctx context.Context, projectID string, cutoff time.Time) ([]ActiveUser, error)
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new presence repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Upsert creates or refreshes the single row keyed by (project_id, user_id).
// A nil status refreshes last_seen_at only and preserves whatever status the
// row already carries; a non-nil status assigns both in the same statement.
// Safe to retry: a second identical call lands on the same row.
func (r *RepositoryImpl) Upsert(ctx context.Context, projectID, userID string, status *Status, at time.Time) error {
	record := Record{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		UserID:     userID,
		Status:     StatusNotParticipating,
		LastSeenAt: at,
	}

	assignments := map[string]interface{}{"last_seen_at": at}
	if status != nil {
		record.Status = *status
		assignments["status"] = *status
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&record).Error
}

// ListActiveSince returns presence rows seen after cutoff, joined with user
// display metadata. Ordering is deterministic: most recently seen first,
// user id as tiebreak.
func (r *RepositoryImpl) ListActiveSince(ctx context.Context, projectID string, cutoff time.Time) ([]ActiveUser, error) {
	var users []ActiveUser
	err := r.db.WithContext(ctx).
		Table("kitchen_presence").
		Select("kitchen_presence.user_id, kitchen_presence.status, kitchen_presence.last_seen_at, users.name AS user_name, users.image AS user_image").
		Joins("INNER JOIN users ON users.id = kitchen_presence.user_id").
		Where("kitchen_presence.project_id = ? AND kitchen_presence.last_seen_at > ?", projectID, cutoff).
		Order("kitchen_presence.last_seen_at DESC, kitchen_presence.user_id ASC").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteSeenBefore removes rows idle since before cutoff
func (r *RepositoryImpl) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("last_seen_at < ?", cutoff).
		Delete(&Record{})
	return result.RowsAffected, result.Error
}
