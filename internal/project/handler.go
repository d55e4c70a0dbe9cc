package project

import (
	"net/http"

	"kitchen-collab/internal/errors"
	"kitchen-collab/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func callerFrom(c *gin.Context) Caller {
	return Caller{
		ID:   c.GetString("user_id"),
		Role: c.GetString("user_role"),
	}
}

type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Description *string `json:"description"`
	Script      *string `json:"script"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var form CreateProjectRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), callerFrom(c), form.Title, form.Description, form.Script)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *Handler) ListProjects(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.GetProjects(c.Request.Context(), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateProjectStatus(c *gin.Context) {
	var form UpdateStatusRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.UpdateProjectStatus(c.Request.Context(), callerFrom(c), c.Param("id"), form.Status); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.service.DeleteProject(c.Request.Context(), callerFrom(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListSections(c *gin.Context) {
	sections, err := h.service.GetSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, SectionsToResponse(sections))
}

// ListEligibleSections returns only the sections open for image submission
func (h *Handler) ListEligibleSections(c *gin.Context) {
	sections, err := h.service.EligibleSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, SectionsToResponse(sections))
}

type CreateSectionRequest struct {
	OrderIndex int    `json:"order_index"`
	Content    string `json:"content"`
}

func (h *Handler) CreateSection(c *gin.Context) {
	var form CreateSectionRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	section, err := h.service.CreateSection(c.Request.Context(), callerFrom(c), c.Param("id"), form.OrderIndex, form.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, section.ToResponse())
}

type UpdateSectionRequest struct {
	Content              *string `json:"content"`
	ImageInstruction     *string `json:"image_instruction"`
	AllowImageSubmission *bool   `json:"allow_image_submission"`
	ReferenceImageURLs   *string `json:"reference_image_urls"`
}

func (h *Handler) UpdateSection(c *gin.Context) {
	var form UpdateSectionRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	err := h.service.UpdateSection(c.Request.Context(), callerFrom(c), c.Param("sectionId"), UpdateSectionForm{
		Content:              form.Content,
		ImageInstruction:     form.ImageInstruction,
		AllowImageSubmission: form.AllowImageSubmission,
		ReferenceImageURLs:   form.ReferenceImageURLs,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type ReorderSectionsRequest struct {
	SectionIDs []string `json:"section_ids" binding:"required"`
}

func (h *Handler) ReorderSections(c *gin.Context) {
	var form ReorderSectionsRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.ReorderSections(c.Request.Context(), callerFrom(c), c.Param("id"), form.SectionIDs); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteSection(c *gin.Context) {
	if err := h.service.DeleteSection(c.Request.Context(), callerFrom(c), c.Param("sectionId"), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type SetScriptRequest struct {
	Script string `json:"script" binding:"required"`
}

// SetScript overwrites the project's sections from a raw script
func (h *Handler) SetScript(c *gin.Context) {
	var form SetScriptRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	sections, err := h.service.SetProjectScript(c.Request.Context(), callerFrom(c), c.Param("id"), form.Script)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, SectionsToResponse(sections))
}

// GetScript reassembles the project's script; ?body_only=true skips the
// title, description, and per-section annotations.
func (h *Handler) GetScript(c *gin.Context) {
	bodyOnly := c.Query("body_only") == "true"
	script, err := h.service.GetProjectScript(c.Request.Context(), c.Param("id"), bodyOnly)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"script": script})
}

type CreateProposalRequest struct {
	ProposedContent string `json:"proposed_content" binding:"required"`
}

func (h *Handler) CreateProposal(c *gin.Context) {
	var form CreateProposalRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	proposal, err := h.service.CreateProposal(c.Request.Context(), callerFrom(c), c.Param("sectionId"), form.ProposedContent)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

func (h *Handler) ListSectionProposals(c *gin.Context) {
	proposals, err := h.service.ListSectionProposals(c.Request.Context(), c.Param("sectionId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposals)
}

func (h *Handler) ListProjectProposals(c *gin.Context) {
	proposals, err := h.service.ListProjectProposals(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposals)
}

type ReviewProposalRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) ReviewProposal(c *gin.Context) {
	var form ReviewProposalRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.ReviewProposal(c.Request.Context(), callerFrom(c), c.Param("proposalId"), form.Status); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ApplyProposal approves a proposal and writes its content into the section
func (h *Handler) ApplyProposal(c *gin.Context) {
	if err := h.service.ApplyProposal(c.Request.Context(), callerFrom(c), c.Param("proposalId")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type ConfirmUploadRequest struct {
	ImageURL  string  `json:"image_url" binding:"required"`
	SectionID *string `json:"section_id"`
}

func (h *Handler) ConfirmImageUpload(c *gin.Context) {
	var form ConfirmUploadRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	image, err := h.service.ConfirmImageUpload(c.Request.Context(), callerFrom(c), c.Param("id"), form.ImageURL, form.SectionID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, image)
}

func (h *Handler) ListImages(c *gin.Context) {
	images, err := h.service.GetImages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, images)
}

func (h *Handler) ListSelectedImages(c *gin.Context) {
	images, err := h.service.GetSelectedImages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, images)
}

// MyUploadCount returns how many images the caller uploaded to the project
func (h *Handler) MyUploadCount(c *gin.Context) {
	count, err := h.service.MyUploadCount(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

type SelectImageRequest struct {
	SectionID  *string `json:"section_id"`
	IsSelected *bool   `json:"is_selected"`
}

func (h *Handler) SelectImage(c *gin.Context) {
	var form SelectImageRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	isSelected := true
	if form.IsSelected != nil {
		isSelected = *form.IsSelected
	}

	if err := h.service.SelectImage(c.Request.Context(), callerFrom(c), c.Param("imageId"), form.SectionID, isSelected); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type UpdateCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

func (h *Handler) UpdateImageComment(c *gin.Context) {
	var form UpdateCommentRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.UpdateImageComment(c.Request.Context(), callerFrom(c), c.Param("imageId"), form.Comment); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	if err := h.service.DeleteImage(c.Request.Context(), callerFrom(c), c.Param("imageId")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
