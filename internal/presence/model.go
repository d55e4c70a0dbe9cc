package presence

import (
	"time"
)

// Status is a user's participation status within a project.
type Status string

const (
	StatusNotParticipating Status = "not_participating"
	StatusParticipating    Status = "participating"
	StatusCompleted        Status = "completed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotParticipating, StatusParticipating, StatusCompleted:
		return true
	}
	return false
}

// Record is the single presence row per (project, user) pair. Heartbeats
// and status updates both land here through an upsert; concurrent writers
// race under last-write-wins.
type Record struct {
	ID         string `gorm:"primaryKey"`
	ProjectID  string `gorm:"uniqueIndex:idx_presence_project_user"`
	UserID     string `gorm:"uniqueIndex:idx_presence_project_user"`
	Status     Status `gorm:"default:not_participating"`
	LastSeenAt time.Time
}

// TableName pins the table name
func (Record) TableName() string {
	return "kitchen_presence"
}

// ActiveUser is a presence row joined with display metadata.
type ActiveUser struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserImage  *string   `json:"user_image"`
	Status     Status    `json:"status"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
