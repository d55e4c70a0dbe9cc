package project

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apiError "kitchen-collab/internal/errors"
	"kitchen-collab/internal/middleware"
	"kitchen-collab/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateProject(ctx context.Context, caller Caller, title string, description, script *string) (*Project, error) {
	args := m.Called(ctx, caller, title, description, script)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockService) GetProjects(ctx context.Context, page, pageSize int) (*PaginatedProjects, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaginatedProjects), args.Error(1)
}

func (m *MockService) GetProject(ctx context.Context, id string) (*Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockService) UpdateProjectStatus(ctx context.Context, caller Caller, id, status string) error {
	args := m.Called(ctx, caller, id, status)
	return args.Error(0)
}

func (m *MockService) DeleteProject(ctx context.Context, caller Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockService) GetSections(ctx context.Context, projectID string) ([]Section, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Section), args.Error(1)
}

func (m *MockService) CreateSection(ctx context.Context, caller Caller, projectID string, orderIndex int, content string) (*Section, error) {
	args := m.Called(ctx, caller, projectID, orderIndex, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Section), args.Error(1)
}

func (m *MockService) UpdateSection(ctx context.Context, caller Caller, sectionID string, form UpdateSectionForm) error {
	args := m.Called(ctx, caller, sectionID, form)
	return args.Error(0)
}

func (m *MockService) ReorderSections(ctx context.Context, caller Caller, projectID string, orderedIDs []string) error {
	args := m.Called(ctx, caller, projectID, orderedIDs)
	return args.Error(0)
}

func (m *MockService) DeleteSection(ctx context.Context, caller Caller, sectionID, projectID string) error {
	args := m.Called(ctx, caller, sectionID, projectID)
	return args.Error(0)
}

func (m *MockService) ConfirmImageUpload(ctx context.Context, caller Caller, projectID, imageURL string, sectionID *string) (*UploadedImage, error) {
	args := m.Called(ctx, caller, projectID, imageURL, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UploadedImage), args.Error(1)
}

func (m *MockService) GetImages(ctx context.Context, projectID string) ([]UploadedImage, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UploadedImage), args.Error(1)
}

func (m *MockService) GetSelectedImages(ctx context.Context, projectID string) ([]UploadedImage, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UploadedImage), args.Error(1)
}

func (m *MockService) SelectImage(ctx context.Context, caller Caller, imageID string, sectionID *string, isSelected bool) error {
	args := m.Called(ctx, caller, imageID, sectionID, isSelected)
	return args.Error(0)
}

func (m *MockService) UpdateImageComment(ctx context.Context, caller Caller, imageID, comment string) error {
	args := m.Called(ctx, caller, imageID, comment)
	return args.Error(0)
}

func (m *MockService) DeleteImage(ctx context.Context, caller Caller, imageID string) error {
	args := m.Called(ctx, caller, imageID)
	return args.Error(0)
}

func (m *MockService) EligibleSections(ctx context.Context, projectID string) ([]Section, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Section), args.Error(1)
}

func (m *MockService) MyUploadCount(ctx context.Context, projectID, userID string) (int, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockService) SetProjectScript(ctx context.Context, caller Caller, projectID, script string) ([]Section, error) {
	args := m.Called(ctx, caller, projectID, script)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Section), args.Error(1)
}

func (m *MockService) GetProjectScript(ctx context.Context, projectID string, bodyOnly bool) (string, error) {
	args := m.Called(ctx, projectID, bodyOnly)
	return args.String(0), args.Error(1)
}

func (m *MockService) CreateProposal(ctx context.Context, caller Caller, sectionID, content string) (*Proposal, error) {
	args := m.Called(ctx, caller, sectionID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Proposal), args.Error(1)
}

func (m *MockService) ListSectionProposals(ctx context.Context, sectionID string) ([]Proposal, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Proposal), args.Error(1)
}

func (m *MockService) ListProjectProposals(ctx context.Context, projectID string) ([]Proposal, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Proposal), args.Error(1)
}

func (m *MockService) ReviewProposal(ctx context.Context, caller Caller, proposalID, status string) error {
	args := m.Called(ctx, caller, proposalID, status)
	return args.Error(0)
}

func (m *MockService) ApplyProposal(ctx context.Context, caller Caller, proposalID string) error {
	args := m.Called(ctx, caller, proposalID)
	return args.Error(0)
}

func setupRouter(handler *Handler, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
	})

	router.POST("/projects", handler.CreateProject)
	router.GET("/projects/:id", handler.ShowProject)
	router.PATCH("/projects/:id/status", handler.UpdateProjectStatus)
	router.GET("/projects/:id/sections/eligible", handler.ListEligibleSections)
	router.POST("/projects/:id/images", handler.ConfirmImageUpload)
	router.GET("/projects/:id/images/mine/count", handler.MyUploadCount)
	router.PUT("/projects/:id/script", handler.SetScript)
	router.GET("/projects/:id/script", handler.GetScript)
	router.POST("/sections/:sectionId/proposals", handler.CreateProposal)
	router.GET("/sections/:sectionId/proposals", handler.ListSectionProposals)
	router.PUT("/proposals/:proposalId/status", handler.ReviewProposal)
	router.POST("/proposals/:proposalId/apply", handler.ApplyProposal)

	return router
}

func TestCreateProjectHandler_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleGicho)

	mockService.On("CreateProject", mock.Anything, Caller{ID: "u1", Role: user.RoleGicho}, "Autumn bento", (*string)(nil), (*string)(nil)).
		Return(&Project{ID: "p1", Title: "Autumn bento", Status: StatusCooking, CreatedBy: "u1"}, nil)

	body, _ := json.Marshal(CreateProjectRequest{Title: "Autumn bento"})
	req := httptest.NewRequest("POST", "/projects", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response Project
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "p1", response.ID)
	assert.Equal(t, StatusCooking, response.Status)
	mockService.AssertExpectations(t)
}

func TestCreateProjectHandler_MissingTitle(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleGicho)

	req := httptest.NewRequest("POST", "/projects", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProjectStatusHandler_Forbidden(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("UpdateProjectStatus", mock.Anything, Caller{ID: "u1", Role: user.RoleMember}, "p1", StatusArchived).
		Return(apiError.Forbidden("Only gicho can change project status", nil))

	body, _ := json.Marshal(UpdateStatusRequest{Status: StatusArchived})
	req := httptest.NewRequest("PATCH", "/projects/p1/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "forbidden", response["kind"])
}

func TestShowProjectHandler_NotFound(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("GetProject", mock.Anything, "gone").
		Return(nil, apiError.NotFound("Project not found", nil))

	req := httptest.NewRequest("GET", "/projects/gone", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEligibleSectionsHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	urls := `["https://img.example.com/ref.jpg"]`
	mockService.On("EligibleSections", mock.Anything, "p1").Return([]Section{
		{ID: "s1", ProjectID: "p1", OrderIndex: 0, ReferenceImageURLs: &urls},
	}, nil)

	req := httptest.NewRequest("GET", "/projects/p1/sections/eligible", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []SectionResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response, 1)
	assert.Equal(t, "s1", response[0].ID)
	assert.Equal(t, []string{"https://img.example.com/ref.jpg"}, response[0].ReferenceImages)
}

func TestConfirmImageUploadHandler_MissingURL(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	req := httptest.NewRequest("POST", "/projects/p1/images", bytes.NewBufferString(`{"section_id":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyUploadCountHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("MyUploadCount", mock.Anything, "p1", "u1").Return(3, nil)

	req := httptest.NewRequest("GET", "/projects/p1/images/mine/count", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]int
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, 3, response["count"])
}

func TestSetScriptHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("SetProjectScript", mock.Anything, Caller{ID: "u1", Role: user.RoleMember}, "p1", "Wash\n\nChop").
		Return([]Section{
			{ID: "s1", ProjectID: "p1", OrderIndex: 0, Content: "Wash"},
			{ID: "s2", ProjectID: "p1", OrderIndex: 1, Content: "Chop"},
		}, nil)

	body, _ := json.Marshal(SetScriptRequest{Script: "Wash\n\nChop"})
	req := httptest.NewRequest("PUT", "/projects/p1/script", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []SectionResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response, 2)
	assert.Equal(t, "Chop", response[1].Content)
	mockService.AssertExpectations(t)
}

func TestSetScriptHandler_MissingScript(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	req := httptest.NewRequest("PUT", "/projects/p1/script", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SetProjectScript", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetScriptHandler_BodyOnlyQuery(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("GetProjectScript", mock.Anything, "p1", true).Return("Wash\n\nChop", nil)

	req := httptest.NewRequest("GET", "/projects/p1/script?body_only=true", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Wash\n\nChop", response["script"])
	mockService.AssertExpectations(t)
}

func TestCreateProposalHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("CreateProposal", mock.Anything, Caller{ID: "u1", Role: user.RoleMember}, "s1", "Simmer longer").
		Return(&Proposal{ID: "pr1", SectionID: "s1", ProposedBy: "u1", ProposedContent: "Simmer longer", Status: ProposalPending}, nil)

	body, _ := json.Marshal(CreateProposalRequest{ProposedContent: "Simmer longer"})
	req := httptest.NewRequest("POST", "/sections/s1/proposals", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response Proposal
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "pr1", response.ID)
	assert.Equal(t, ProposalPending, response.Status)
	mockService.AssertExpectations(t)
}

func TestCreateProposalHandler_MissingContent(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	req := httptest.NewRequest("POST", "/sections/s1/proposals", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListSectionProposalsHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("ListSectionProposals", mock.Anything, "s1").Return([]Proposal{
		{ID: "pr1", SectionID: "s1", Status: ProposalPending},
	}, nil)

	req := httptest.NewRequest("GET", "/sections/s1/proposals", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []Proposal
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response, 1)
	assert.Equal(t, "pr1", response[0].ID)
}

func TestReviewProposalHandler_Forbidden(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleMember)

	mockService.On("ReviewProposal", mock.Anything, Caller{ID: "u1", Role: user.RoleMember}, "pr1", ProposalRejected).
		Return(apiError.Forbidden("Only gicho can review proposals", nil))

	body, _ := json.Marshal(ReviewProposalRequest{Status: ProposalRejected})
	req := httptest.NewRequest("PUT", "/proposals/pr1/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApplyProposalHandler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "u1", user.RoleGicho)

	mockService.On("ApplyProposal", mock.Anything, Caller{ID: "u1", Role: user.RoleGicho}, "pr1").Return(nil)

	req := httptest.NewRequest("POST", "/proposals/pr1/apply", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
