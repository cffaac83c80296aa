package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planexa/exam-planner-api/internal/dto"
	"github.com/planexa/exam-planner-api/internal/models"
	"github.com/planexa/exam-planner-api/internal/service"
	appErrors "github.com/planexa/exam-planner-api/pkg/errors"
	"github.com/planexa/exam-planner-api/pkg/response"
)

type examOptimizer interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResult, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error)
	ScanConflicts(ctx context.Context) ([]models.Conflict, error)
	Planning(ctx context.Context) ([]models.ScheduledExam, error)
}

// ScheduleHandler exposes the scheduling engine over HTTP.
type ScheduleHandler struct {
	service examOptimizer
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.OptimizerService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Generate an optimized exam schedule proposal for a planning window
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Planning window"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Save godoc
// @Summary Commit a generated proposal to persistent storage
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Proposal reference"
// @Success 200 {object} response.Envelope
// @Router /schedule/save [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Planning godoc
// @Summary Read back the committed exam planning
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/planning [get]
func (h *ScheduleHandler) Planning(c *gin.Context) {
	exams, err := h.service.Planning(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams)
}

// Conflicts godoc
// @Summary Scan the committed schedule for invariant violations
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/conflicts [get]
func (h *ScheduleHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.service.ScanConflicts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts)
}
