package project

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ProjectsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *Project) error
	ListProjects(ctx context.Context, page, pageSize int) ([]Project, ProjectsMeta, error)
	FindProjectByID(ctx context.Context, id string) (*Project, error)
	UpdateProjectStatus(ctx context.Context, id, status string) error
	DeleteProject(ctx context.Context, id string) error

	ListSections(ctx context.Context, projectID string) ([]Section, error)
	FindSectionByID(ctx context.Context, id string) (*Section, error)
	CreateSection(ctx context.Context, section *Section) error
	UpdateSection(ctx context.Context, id string, updates map[string]interface{}) error
	ReorderSections(ctx context.Context, projectID string, orderedIDs []string) error
	ReplaceSections(ctx context.Context, projectID string, sections []Section) error
	DeleteSection(ctx context.Context, id, projectID string) error

	CreateProposal(ctx context.Context, proposal *Proposal) error
	ListProposalsBySection(ctx context.Context, sectionID string) ([]Proposal, error)
	ListProposalsByProject(ctx context.Context, projectID string) ([]Proposal, error)
	FindProposalByID(ctx context.Context, id string) (*Proposal, error)
	UpdateProposalStatus(ctx context.Context, id, status string) error
	ApplyProposal(ctx context.Context, proposal *Proposal) error

	CreateImage(ctx context.Context, image *UploadedImage) error
	ListImages(ctx context.Context, projectID string) ([]UploadedImage, error)
	ListSelectedImages(ctx context.Context, projectID string) ([]UploadedImage, error)
	FindImageByID(ctx context.Context, id string) (*UploadedImage, error)
	UpdateImage(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteImage(ctx context.Context, id string) error
}

type ProjectRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new project repository
func NewRepository(db *gorm.DB) ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) CreateProject(ctx context.Context, project *Project) error {
	project.CreatedAt = time.Now().UTC()
	project.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepositoryImpl) ListProjects(ctx context.Context, page, pageSize int) ([]Project, ProjectsMeta, error) {
	var projects []Project
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&Project{}).Count(&totalRecords).Error; err != nil {
		return projects, ProjectsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&projects).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return projects, ProjectsMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *ProjectRepositoryImpl) FindProjectByID(ctx context.Context, id string) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) UpdateProjectStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteProject removes the project and everything it owns
func (r *ProjectRepositoryImpl) DeleteProject(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sectionIDs := tx.Model(&Section{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("section_id IN (?)", sectionIDs).Delete(&Proposal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&UploadedImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&Section{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Project{}).Error
	})
}

func (r *ProjectRepositoryImpl) ListSections(ctx context.Context, projectID string) ([]Section, error) {
	var sections []Section
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("order_index ASC").
		Find(&sections).Error
	return sections, err
}

func (r *ProjectRepositoryImpl) FindSectionByID(ctx context.Context, id string) (*Section, error) {
	var section Section
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateSection inserts at the section's order index, shifting the indexes
// of every following section up by one inside a transaction.
func (r *ProjectRepositoryImpl) CreateSection(ctx context.Context, section *Section) error {
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Section{}).
			Where("project_id = ? AND order_index >= ?", section.ProjectID, section.OrderIndex).
			Update("order_index", gorm.Expr("order_index + 1")).Error; err != nil {
			return err
		}
		return tx.Create(section).Error
	})
}

func (r *ProjectRepositoryImpl) UpdateSection(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Section{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ReorderSections rewrites order_index to match the given ID order
func (r *ProjectRepositoryImpl) ReorderSections(ctx context.Context, projectID string, orderedIDs []string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&Section{}).
				Where("id = ? AND project_id = ?", id, projectID).
				Updates(map[string]interface{}{
					"order_index": i,
					"updated_at":  now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSection removes a section and closes the gap in order_index.
// Images bound to it stay in the project with section_id cleared; its
// proposals go with it.
func (r *ProjectRepositoryImpl) DeleteSection(ctx context.Context, id, projectID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var section Section
		if err := tx.Where("id = ? AND project_id = ?", id, projectID).First(&section).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", id).Delete(&Proposal{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&UploadedImage{}).
			Where("section_id = ?", id).
			Update("section_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&Section{}).Error; err != nil {
			return err
		}
		return tx.Model(&Section{}).
			Where("project_id = ? AND order_index > ?", projectID, section.OrderIndex).
			Update("order_index", gorm.Expr("order_index - 1")).Error
	})
}

// ReplaceSections swaps a project's sections wholesale: proposals and image
// bindings on the old sections are cleared, then the new rows are inserted
// with their given order. An empty slice just clears the project.
func (r *ProjectRepositoryImpl) ReplaceSections(ctx context.Context, projectID string, sections []Section) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sectionIDs := tx.Model(&Section{}).Select("id").Where("project_id = ?", projectID)
		if err := tx.Where("section_id IN (?)", sectionIDs).Delete(&Proposal{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&UploadedImage{}).
			Where("project_id = ?", projectID).
			Update("section_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&Section{}).Error; err != nil {
			return err
		}
		for i := range sections {
			sections[i].CreatedAt = now
			sections[i].UpdatedAt = now
			if err := tx.Create(&sections[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ProjectRepositoryImpl) CreateProposal(ctx context.Context, proposal *Proposal) error {
	now := time.Now().UTC()
	proposal.CreatedAt = now
	proposal.UpdatedAt = now
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *ProjectRepositoryImpl) ListProposalsBySection(ctx context.Context, sectionID string) ([]Proposal, error) {
	var proposals []Proposal
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

func (r *ProjectRepositoryImpl) ListProposalsByProject(ctx context.Context, projectID string) ([]Proposal, error) {
	var proposals []Proposal
	err := r.db.WithContext(ctx).
		Table("cooking_proposals").
		Select("cooking_proposals.*").
		Joins("INNER JOIN cooking_sections ON cooking_sections.id = cooking_proposals.section_id").
		Where("cooking_sections.project_id = ?", projectID).
		Order("cooking_proposals.created_at DESC").
		Scan(&proposals).Error
	return proposals, err
}

func (r *ProjectRepositoryImpl) FindProposalByID(ctx context.Context, id string) (*Proposal, error) {
	var proposal Proposal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *ProjectRepositoryImpl) UpdateProposalStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&Proposal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// ApplyProposal writes the proposed content back into the section and marks
// the proposal approved in one transaction.
func (r *ProjectRepositoryImpl) ApplyProposal(ctx context.Context, proposal *Proposal) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Section{}).
			Where("id = ?", proposal.SectionID).
			Updates(map[string]interface{}{
				"content":    proposal.ProposedContent,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&Proposal{}).
			Where("id = ?", proposal.ID).
			Updates(map[string]interface{}{
				"status":     ProposalApproved,
				"updated_at": now,
			}).Error
	})
}

func (r *ProjectRepositoryImpl) CreateImage(ctx context.Context, image *UploadedImage) error {
	image.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *ProjectRepositoryImpl) ListImages(ctx context.Context, projectID string) ([]UploadedImage, error) {
	var images []UploadedImage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&images).Error
	return images, err
}

func (r *ProjectRepositoryImpl) ListSelectedImages(ctx context.Context, projectID string) ([]UploadedImage, error) {
	var images []UploadedImage
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_selected = ?", projectID, true).
		Order("created_at ASC").
		Find(&images).Error
	return images, err
}

func (r *ProjectRepositoryImpl) FindImageByID(ctx context.Context, id string) (*UploadedImage, error) {
	var image UploadedImage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ProjectRepositoryImpl) UpdateImage(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&UploadedImage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *ProjectRepositoryImpl) DeleteImage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&UploadedImage{}).Error
}
