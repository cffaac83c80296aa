package dto

import "github.com/planexa/exam-planner-api/internal/models"

// GenerateScheduleRequest bounds one generation pass to a planning window and
// an optional priority department.
type GenerateScheduleRequest struct {
	StartDate    string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"endDate" validate:"required,datetime=2006-01-02"`
	DepartmentID int64  `json:"departmentId" validate:"omitempty,min=1"`
}

// UnscheduledUnit reports an exam unit the allocator could not place.
type UnscheduledUnit struct {
	ModuleID   int64  `json:"moduleId"`
	ModuleName string `json:"moduleName"`
	Reason     string `json:"reason"`
}

// ScheduleResult is the outcome of one generation pass: a best-effort
// schedule plus explicit visibility into what could not be scheduled and
// which conflicts remain.
type ScheduleResult struct {
	ProposalID     string                 `json:"proposalId"`
	Entries        []models.ScheduledExam `json:"entries"`
	Conflicts      []models.Conflict      `json:"conflicts"`
	Unscheduled    []UnscheduledUnit      `json:"unscheduled"`
	ElapsedSeconds float64                `json:"elapsedSeconds"`
	BudgetExceeded bool                   `json:"budgetExceeded"`
}

// SaveScheduleRequest commits a previously generated proposal.
type SaveScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// SaveScheduleResponse mirrors the writer contract: a success flag, the
// number of rows written, and a human-readable message.
type SaveScheduleResponse struct {
	Saved   bool   `json:"saved"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}
