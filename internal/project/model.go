package project

import (
	"encoding/json"
	"time"
)

// Workflow states a project moves through. Stored as plain text; unknown
// values are rejected at the service boundary.
const (
	StatusCooking        = "cooking"
	StatusImageUpload    = "image_upload"
	StatusImageSelection = "image_selection"
	StatusDownload       = "download"
	StatusArchived       = "archived"
)

// ValidStatus reports whether s is a known workflow state
func ValidStatus(s string) bool {
	switch s {
	case StatusCooking, StatusImageUpload, StatusImageSelection, StatusDownload, StatusArchived:
		return true
	}
	return false
}

type Project struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `gorm:"default:cooking" json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "cooking_projects"
}

// Section is one ordered sub-unit of a project's script.
// AllowImageSubmission is tri-state at the boundary: nil means the flag was
// never set and must be treated as allowed.
type Section struct {
	ID                   string    `gorm:"primaryKey" json:"id"`
	ProjectID            string    `gorm:"index" json:"project_id"`
	OrderIndex           int       `json:"order_index"`
	Content              string    `json:"content"`
	ImageInstruction     *string   `json:"image_instruction"`
	ReferenceImageURLs   *string   `gorm:"column:reference_image_urls" json:"-"` // JSON-encoded list
	AllowImageSubmission *bool     `json:"allow_image_submission"`
	IsGenerating         bool      `gorm:"default:false" json:"is_generating"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Section) TableName() string {
	return "cooking_sections"
}

// AllowsSubmission normalizes the tri-state flag with its default-true policy
func (s *Section) AllowsSubmission() bool {
	return s.AllowImageSubmission == nil || *s.AllowImageSubmission
}

// ReferenceImages decodes the stored JSON list, tolerating legacy garbage
func (s *Section) ReferenceImages() []string {
	if s.ReferenceImageURLs == nil {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(*s.ReferenceImageURLs), &urls); err != nil {
		return nil
	}
	return urls
}

// SectionResponse is the wire shape of a section; the stored JSON list of
// reference images is decoded for the client.
type SectionResponse struct {
	ID                   string    `json:"id"`
	ProjectID            string    `json:"project_id"`
	OrderIndex           int       `json:"order_index"`
	Content              string    `json:"content"`
	ImageInstruction     *string   `json:"image_instruction"`
	ReferenceImages      []string  `json:"reference_image_urls"`
	AllowImageSubmission *bool     `json:"allow_image_submission"`
	IsGenerating         bool      `json:"is_generating"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ToResponse converts a Section to its wire shape
func (s *Section) ToResponse() SectionResponse {
	return SectionResponse{
		ID:                   s.ID,
		ProjectID:            s.ProjectID,
		OrderIndex:           s.OrderIndex,
		Content:              s.Content,
		ImageInstruction:     s.ImageInstruction,
		ReferenceImages:      s.ReferenceImages(),
		AllowImageSubmission: s.AllowImageSubmission,
		IsGenerating:         s.IsGenerating,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

// SectionsToResponse converts a slice of sections, never returning nil
func SectionsToResponse(sections []Section) []SectionResponse {
	out := make([]SectionResponse, 0, len(sections))
	for i := range sections {
		out = append(out, sections[i].ToResponse())
	}
	return out
}

// Review states a revision proposal moves through
const (
	ProposalPending  = "pending"
	ProposalApproved = "approved"
	ProposalRejected = "rejected"
)

// ValidProposalStatus reports whether s is a known review state
func ValidProposalStatus(s string) bool {
	switch s {
	case ProposalPending, ProposalApproved, ProposalRejected:
		return true
	}
	return false
}

// Proposal is a suggested rewrite of one section's content. Applying an
// approved proposal copies the proposed content back into the section.
type Proposal struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	SectionID       string    `gorm:"index" json:"section_id"`
	ProposedBy      string    `json:"proposed_by"`
	ProposedContent string    `json:"proposed_content"`
	Status          string    `gorm:"default:pending" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Proposal) TableName() string {
	return "cooking_proposals"
}

type UploadedImage struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ProjectID  string    `gorm:"index" json:"project_id"`
	SectionID  *string   `json:"section_id"` // nil until assigned to a section
	UploadedBy string    `json:"uploaded_by"`
	ImageURL   string    `json:"image_url"`
	IsSelected bool      `gorm:"default:false" json:"is_selected"`
	Comment    *string   `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func (UploadedImage) TableName() string {
	return "cooking_images"
}
