package project

import (
	"context"
	defError "errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kitchen-collab/internal/errors"
	"kitchen-collab/internal/user"
	"kitchen-collab/internal/worker"
	"kitchen-collab/redis"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller is the resolved identity acting on the service
type Caller struct {
	ID   string
	Role string
}

// Privileged reports whether the caller may act on other users' content
func (c Caller) Privileged() bool {
	return c.Role == user.RoleGicho || c.Role == user.RoleMeiyoGiin
}

// ObjectStore is the slice of the storage collaborator the service needs
// for cleanup after image deletion.
type ObjectStore interface {
	Delete(ctx context.Context, key string) error
	KeyFromPublicURL(url string) (string, bool)
}

type Service interface {
	CreateProject(ctx context.Context, caller Caller, title string, description, script *string) (*Project, error)
	GetProjects(ctx context.Context, page, pageSize int) (*PaginatedProjects, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	UpdateProjectStatus(ctx context.Context, caller Caller, id, status string) error
	DeleteProject(ctx context.Context, caller Caller, id string) error

	GetSections(ctx context.Context, projectID string) ([]Section, error)
	CreateSection(ctx context.Context, caller Caller, projectID string, orderIndex int, content string) (*Section, error)
	UpdateSection(ctx context.Context, caller Caller, sectionID string, form UpdateSectionForm) error
	ReorderSections(ctx context.Context, caller Caller, projectID string, orderedIDs []string) error
	DeleteSection(ctx context.Context, caller Caller, sectionID, projectID string) error

	SetProjectScript(ctx context.Context, caller Caller, projectID, script string) ([]Section, error)
	GetProjectScript(ctx context.Context, projectID string, bodyOnly bool) (string, error)

	CreateProposal(ctx context.Context, caller Caller, sectionID, content string) (*Proposal, error)
	ListSectionProposals(ctx context.Context, sectionID string) ([]Proposal, error)
	ListProjectProposals(ctx context.Context, projectID string) ([]Proposal, error)
	ReviewProposal(ctx context.Context, caller Caller, proposalID, status string) error
	ApplyProposal(ctx context.Context, caller Caller, proposalID string) error

	ConfirmImageUpload(ctx context.Context, caller Caller, projectID, imageURL string, sectionID *string) (*UploadedImage, error)
	GetImages(ctx context.Context, projectID string) ([]UploadedImage, error)
	GetSelectedImages(ctx context.Context, projectID string) ([]UploadedImage, error)
	SelectImage(ctx context.Context, caller Caller, imageID string, sectionID *string, isSelected bool) error
	UpdateImageComment(ctx context.Context, caller Caller, imageID, comment string) error
	DeleteImage(ctx context.Context, caller Caller, imageID string) error

	EligibleSections(ctx context.Context, projectID string) ([]Section, error)
	MyUploadCount(ctx context.Context, projectID, userID string) (int, error)
}

type DefaultService struct {
	repository  ProjectRepository
	cache       *redis.Cache
	objectStore ObjectStore
	pool        *worker.Pool
}

func NewService(repository ProjectRepository, cache *redis.Cache, objectStore ObjectStore, pool *worker.Pool) Service {
	return &DefaultService{
		repository:  repository,
		cache:       cache,
		objectStore: objectStore,
		pool:        pool,
	}
}

const projectsVersionKey = "projects:version"

type PaginatedProjects struct {
	Data []Project    `json:"data"`
	Meta ProjectsMeta `json:"meta"`
}

func (s *DefaultService) CreateProject(ctx context.Context, caller Caller, title string, description, script *string) (*Project, error) {
	if title == "" {
		return nil, errors.BadRequest("Title cannot be empty", nil)
	}

	project := &Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      StatusCooking,
		CreatedBy:   caller.ID,
	}
	if err := s.repository.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	// a script given at creation seeds the project's sections
	if script != nil && *script != "" {
		sections := SectionsFromScript(project.ID, *script)
		if err := s.repository.ReplaceSections(ctx, project.ID, sections); err != nil {
			return nil, err
		}
	}

	// increase cache key, so any new fetch will get new version
	s.cache.IncrementVersion(ctx, projectsVersionKey)
	return project, nil
}

func (s *DefaultService) GetProjects(ctx context.Context, page, pageSize int) (*PaginatedProjects, error) {
	v := s.cache.GetVersion(ctx, projectsVersionKey)
	cacheKey := fmt.Sprintf("projects:v:%d:p:%d:ps:%d", v, page, pageSize)

	var result PaginatedProjects
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	projects, meta, err := s.repository.ListProjects(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	result = PaginatedProjects{Data: projects, Meta: meta}
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

func (s *DefaultService) GetProject(ctx context.Context, id string) (*Project, error) {
	project, err := s.repository.FindProjectByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Project not found", err)
		}
		return nil, err
	}
	return project, nil
}

func (s *DefaultService) UpdateProjectStatus(ctx context.Context, caller Caller, id, status string) error {
	if !ValidStatus(status) {
		return errors.BadRequest("Invalid project status", nil)
	}
	if !caller.Privileged() {
		return errors.Forbidden("Only gicho can change project status", nil)
	}
	if _, err := s.GetProject(ctx, id); err != nil {
		return err
	}
	if err := s.repository.UpdateProjectStatus(ctx, id, status); err != nil {
		return err
	}
	s.cache.IncrementVersion(ctx, projectsVersionKey)
	return nil
}

func (s *DefaultService) DeleteProject(ctx context.Context, caller Caller, id string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if project.CreatedBy != caller.ID && !caller.Privileged() {
		return errors.Forbidden("Only the creator or gicho can delete a project", nil)
	}
	if err := s.repository.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.cache.IncrementVersion(ctx, projectsVersionKey)
	return nil
}

// checkWritable rejects mutations on archived projects for ordinary members
func (s *DefaultService) checkWritable(ctx context.Context, caller Caller, projectID string) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Status == StatusArchived && !caller.Privileged() {
		return errors.Forbidden("Project is archived", nil)
	}
	return nil
}

func (s *DefaultService) GetSections(ctx context.Context, projectID string) ([]Section, error) {
	sections, err := s.repository.ListSections(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []Section{}
	}
	return sections, nil
}

func (s *DefaultService) CreateSection(ctx context.Context, caller Caller, projectID string, orderIndex int, content string) (*Section, error) {
	if err := s.checkWritable(ctx, caller, projectID); err != nil {
		return nil, err
	}
	if orderIndex < 0 {
		return nil, errors.BadRequest("Order index must not be negative", nil)
	}

	section := &Section{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		OrderIndex: orderIndex,
		Content:    content,
	}
	if err := s.repository.CreateSection(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

// UpdateSectionForm carries the optional fields of a section update; nil
// means "leave unchanged".
type UpdateSectionForm struct {
	Content              *string
	ImageInstruction     *string
	AllowImageSubmission *bool
	ReferenceImageURLs   *string // JSON-encoded list
}

func (s *DefaultService) UpdateSection(ctx context.Context, caller Caller, sectionID string, form UpdateSectionForm) error {
	section, err := s.repository.FindSectionByID(ctx, sectionID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Section not found", err)
		}
		return err
	}
	if err := s.checkWritable(ctx, caller, section.ProjectID); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if form.Content != nil {
		updates["content"] = *form.Content
	}
	if form.ImageInstruction != nil {
		updates["image_instruction"] = *form.ImageInstruction
	}
	if form.AllowImageSubmission != nil {
		updates["allow_image_submission"] = *form.AllowImageSubmission
	}
	if form.ReferenceImageURLs != nil {
		updates["reference_image_urls"] = *form.ReferenceImageURLs
	}
	if len(updates) == 0 {
		return nil
	}
	return s.repository.UpdateSection(ctx, sectionID, updates)
}

func (s *DefaultService) ReorderSections(ctx context.Context, caller Caller, projectID string, orderedIDs []string) error {
	if err := s.checkWritable(ctx, caller, projectID); err != nil {
		return err
	}
	if len(orderedIDs) == 0 {
		return errors.BadRequest("No section ids given", nil)
	}
	return s.repository.ReorderSections(ctx, projectID, orderedIDs)
}

func (s *DefaultService) DeleteSection(ctx context.Context, caller Caller, sectionID, projectID string) error {
	if err := s.checkWritable(ctx, caller, projectID); err != nil {
		return err
	}
	err := s.repository.DeleteSection(ctx, sectionID, projectID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Section not found", err)
	}
	return err
}

// SetProjectScript replaces a project's sections with ones split out of the
// given script. Existing sections, their proposals, and image bindings are
// discarded.
func (s *DefaultService) SetProjectScript(ctx context.Context, caller Caller, projectID, script string) ([]Section, error) {
	if err := s.checkWritable(ctx, caller, projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(script) == "" {
		return nil, errors.BadRequest("Script cannot be empty", nil)
	}

	sections := SectionsFromScript(projectID, script)
	if err := s.repository.ReplaceSections(ctx, projectID, sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// GetProjectScript reassembles the script from the project's sections. With
// bodyOnly the section contents are joined bare; otherwise the full annotated
// document is rendered.
func (s *DefaultService) GetProjectScript(ctx context.Context, projectID string, bodyOnly bool) (string, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	sections, err := s.GetSections(ctx, projectID)
	if err != nil {
		return "", err
	}
	if bodyOnly {
		return JoinSectionContents(sections), nil
	}
	return BuildScript(project, sections), nil
}

func (s *DefaultService) CreateProposal(ctx context.Context, caller Caller, sectionID, content string) (*Proposal, error) {
	if content == "" {
		return nil, errors.BadRequest("Proposed content cannot be empty", nil)
	}
	section, err := s.repository.FindSectionByID(ctx, sectionID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Section not found", err)
		}
		return nil, err
	}
	if err := s.checkWritable(ctx, caller, section.ProjectID); err != nil {
		return nil, err
	}

	proposal := &Proposal{
		ID:              uuid.NewString(),
		SectionID:       sectionID,
		ProposedBy:      caller.ID,
		ProposedContent: content,
		Status:          ProposalPending,
	}
	if err := s.repository.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (s *DefaultService) ListSectionProposals(ctx context.Context, sectionID string) ([]Proposal, error) {
	proposals, err := s.repository.ListProposalsBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if proposals == nil {
		proposals = []Proposal{}
	}
	return proposals, nil
}

func (s *DefaultService) ListProjectProposals(ctx context.Context, projectID string) ([]Proposal, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	proposals, err := s.repository.ListProposalsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proposals == nil {
		proposals = []Proposal{}
	}
	return proposals, nil
}

// ReviewProposal moves a pending proposal to approved or rejected without
// touching the section. Approving with content applied goes through
// ApplyProposal instead.
func (s *DefaultService) ReviewProposal(ctx context.Context, caller Caller, proposalID, status string) error {
	if !ValidProposalStatus(status) {
		return errors.BadRequest("Invalid proposal status", nil)
	}
	if !caller.Privileged() {
		return errors.Forbidden("Only gicho can review proposals", nil)
	}
	proposal, err := s.repository.FindProposalByID(ctx, proposalID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Proposal not found", err)
		}
		return err
	}
	if proposal.Status != ProposalPending {
		return errors.UnprocessableEntity("Proposal has already been reviewed", nil)
	}
	return s.repository.UpdateProposalStatus(ctx, proposalID, status)
}

// ApplyProposal writes a pending proposal's content into its section and
// marks it approved.
func (s *DefaultService) ApplyProposal(ctx context.Context, caller Caller, proposalID string) error {
	if !caller.Privileged() {
		return errors.Forbidden("Only gicho can apply proposals", nil)
	}
	proposal, err := s.repository.FindProposalByID(ctx, proposalID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Proposal not found", err)
		}
		return err
	}
	if proposal.Status != ProposalPending {
		return errors.UnprocessableEntity("Proposal has already been reviewed", nil)
	}
	return s.repository.ApplyProposal(ctx, proposal)
}

// ConfirmImageUpload registers an uploaded object's public URL. A bound
// section must belong to the same project and still accept submissions.
func (s *DefaultService) ConfirmImageUpload(ctx context.Context, caller Caller, projectID, imageURL string, sectionID *string) (*UploadedImage, error) {
	if imageURL == "" {
		return nil, errors.BadRequest("Image URL cannot be empty", nil)
	}
	if err := s.checkWritable(ctx, caller, projectID); err != nil {
		return nil, err
	}

	if sectionID != nil {
		section, err := s.repository.FindSectionByID(ctx, *sectionID)
		if err != nil {
			return nil, errors.UnprocessableEntity("Can't find section", err)
		}
		if section.ProjectID != projectID {
			return nil, errors.UnprocessableEntity("Section belongs to another project", nil)
		}
		if !section.AllowsSubmission() {
			return nil, errors.UnprocessableEntity("Section does not accept image submissions", nil)
		}
	}

	image := &UploadedImage{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		SectionID:  sectionID,
		UploadedBy: caller.ID,
		ImageURL:   imageURL,
	}
	if err := s.repository.CreateImage(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *DefaultService) GetImages(ctx context.Context, projectID string) ([]UploadedImage, error) {
	images, err := s.repository.ListImages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []UploadedImage{}
	}
	return images, nil
}

func (s *DefaultService) GetSelectedImages(ctx context.Context, projectID string) ([]UploadedImage, error) {
	images, err := s.repository.ListSelectedImages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []UploadedImage{}
	}
	return images, nil
}

func (s *DefaultService) SelectImage(ctx context.Context, caller Caller, imageID string, sectionID *string, isSelected bool) error {
	image, err := s.repository.FindImageByID(ctx, imageID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Image not found", err)
		}
		return err
	}
	if err := s.checkWritable(ctx, caller, image.ProjectID); err != nil {
		return err
	}

	if sectionID != nil {
		section, err := s.repository.FindSectionByID(ctx, *sectionID)
		if err != nil {
			return errors.UnprocessableEntity("Can't find section", err)
		}
		if section.ProjectID != image.ProjectID {
			return errors.UnprocessableEntity("Section belongs to another project", nil)
		}
	}

	return s.repository.UpdateImage(ctx, imageID, map[string]interface{}{
		"section_id":  sectionID,
		"is_selected": isSelected,
	})
}

func (s *DefaultService) UpdateImageComment(ctx context.Context, caller Caller, imageID, comment string) error {
	image, err := s.repository.FindImageByID(ctx, imageID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Image not found", err)
		}
		return err
	}
	if image.UploadedBy != caller.ID && !caller.Privileged() {
		return errors.Forbidden("Only the uploader or gicho can edit the comment", nil)
	}
	return s.repository.UpdateImage(ctx, imageID, map[string]interface{}{
		"comment": comment,
	})
}

func (s *DefaultService) DeleteImage(ctx context.Context, caller Caller, imageID string) error {
	image, err := s.repository.FindImageByID(ctx, imageID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Image not found", err)
		}
		return err
	}
	if image.UploadedBy != caller.ID && !caller.Privileged() {
		return errors.Forbidden("Only the uploader or gicho can delete the image", nil)
	}

	if err := s.repository.DeleteImage(ctx, imageID); err != nil {
		return err
	}

	// drop the stored object in the background; the DB row is authoritative
	if s.objectStore != nil && s.pool != nil {
		if key, ok := s.objectStore.KeyFromPublicURL(image.ImageURL); ok {
			s.pool.Submit(func(ctx context.Context) error {
				if err := s.objectStore.Delete(ctx, key); err != nil {
					log.Printf("[STORAGE] failed to delete object %s: %v", key, err)
				}
				return nil
			})
		}
	}

	return nil
}

// FilterEligible returns the sections still open for image submission.
// A nil flag counts as allowed; only an explicit false excludes a section.
func FilterEligible(sections []Section) []Section {
	eligible := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.AllowsSubmission() {
			eligible = append(eligible, s)
		}
	}
	return eligible
}

// CountUploadsBy counts the images a user uploaded into the project. Used
// for display, never enforcement.
func CountUploadsBy(images []UploadedImage, userID string) int {
	count := 0
	for _, img := range images {
		if img.UploadedBy == userID {
			count++
		}
	}
	return count
}

func (s *DefaultService) EligibleSections(ctx context.Context, projectID string) ([]Section, error) {
	sections, err := s.GetSections(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return FilterEligible(sections), nil
}

func (s *DefaultService) MyUploadCount(ctx context.Context, projectID, userID string) (int, error) {
	images, err := s.repository.ListImages(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return CountUploadsBy(images, userID), nil
}
