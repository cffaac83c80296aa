package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planexa/exam-planner-api/internal/dto"
	"github.com/planexa/exam-planner-api/internal/models"
	appErrors "github.com/planexa/exam-planner-api/pkg/errors"
)

type optimizerStub struct {
	generateResult *dto.ScheduleResult
	generateErr    error
	saveResult     *dto.SaveScheduleResponse
	saveErr        error
	conflicts      []models.Conflict
	exams          []models.ScheduledExam

	lastGenerate dto.GenerateScheduleRequest
	lastSave     dto.SaveScheduleRequest
}

func (s *optimizerStub) Generate(_ context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResult, error) {
	s.lastGenerate = req
	return s.generateResult, s.generateErr
}

func (s *optimizerStub) Save(_ context.Context, req dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error) {
	s.lastSave = req
	return s.saveResult, s.saveErr
}

func (s *optimizerStub) ScanConflicts(_ context.Context) ([]models.Conflict, error) {
	return s.conflicts, nil
}

func (s *optimizerStub) Planning(_ context.Context) ([]models.ScheduledExam, error) {
	return s.exams, nil
}

func setupRouter(stub *optimizerStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ScheduleHandler{service: stub}
	r := gin.New()
	r.POST("/schedule/generate", h.Generate)
	r.POST("/schedule/save", h.Save)
	r.GET("/schedule/planning", h.Planning)
	r.GET("/schedule/conflicts", h.Conflicts)
	return r
}

func TestGenerateEndpoint(t *testing.T) {
	stub := &optimizerStub{
		generateResult: &dto.ScheduleResult{ProposalID: "p1"},
	}
	r := setupRouter(stub)

	body := bytes.NewBufferString(`{"startDate":"2026-01-05","endDate":"2026-01-23","departmentId":3}`)
	req := httptest.NewRequest(http.MethodPost, "/schedule/generate", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-01-05", stub.lastGenerate.StartDate)
	assert.Equal(t, int64(3), stub.lastGenerate.DepartmentID)

	var envelope struct {
		Data dto.ScheduleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "p1", envelope.Data.ProposalID)
}

func TestGenerateEndpointMalformedBody(t *testing.T) {
	r := setupRouter(&optimizerStub{})

	req := httptest.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewBufferString(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateEndpointServiceError(t *testing.T) {
	stub := &optimizerStub{
		generateErr: appErrors.Clone(appErrors.ErrLoadFailure, "no schedulable exam units in the planning window"),
	}
	r := setupRouter(stub)

	body := bytes.NewBufferString(`{"startDate":"2026-01-05","endDate":"2026-01-23"}`)
	req := httptest.NewRequest(http.MethodPost, "/schedule/generate", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrLoadFailure.Code, envelope.Error.Code)
}

func TestSaveEndpoint(t *testing.T) {
	stub := &optimizerStub{
		saveResult: &dto.SaveScheduleResponse{Saved: true, Count: 12, Message: "12 exams saved"},
	}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/schedule/save", bytes.NewBufferString(`{"proposalId":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", stub.lastSave.ProposalID)

	var envelope struct {
		Data dto.SaveScheduleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Saved)
	assert.Equal(t, 12, envelope.Data.Count)
}

func TestSaveEndpointProposalNotFound(t *testing.T) {
	stub := &optimizerStub{
		saveErr: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired"),
	}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/schedule/save", bytes.NewBufferString(`{"proposalId":"gone"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanningEndpoint(t *testing.T) {
	stub := &optimizerStub{
		exams: []models.ScheduledExam{{ID: "e1", ModuleName: "Algorithmique"}},
	}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/schedule/planning", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.ScheduledExam `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "e1", envelope.Data[0].ID)
}

func TestConflictsEndpoint(t *testing.T) {
	stub := &optimizerStub{
		conflicts: []models.Conflict{
			{Kind: models.ConflictStudentOverlap, Severity: models.SeverityCritical, ExamIDs: []string{"a", "b"}},
		},
	}
	r := setupRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/schedule/conflicts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.Conflict `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, models.ConflictStudentOverlap, envelope.Data[0].Kind)
}
