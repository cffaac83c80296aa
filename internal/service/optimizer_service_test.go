package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planexa/exam-planner-api/internal/dto"
	"github.com/planexa/exam-planner-api/internal/models"
	"github.com/planexa/exam-planner-api/internal/repository"
	"github.com/planexa/exam-planner-api/pkg/config"
	appErrors "github.com/planexa/exam-planner-api/pkg/errors"
)

type planningRepoStub struct {
	units       []models.ExamUnit
	unitsErr    error
	rooms       []models.Room
	roomsErr    error
	professors  []models.Professor
	enrollments []models.Enrollment
	committed   []models.ScheduledExam
	capacities  map[int64]int

	saveCount   int
	saveErr     error
	saveCalls   int
	lastPayload []byte
}

func (s *planningRepoStub) LoadExamUnits(_ context.Context, _, _ time.Time, _ int64, _ int) ([]models.ExamUnit, error) {
	return s.units, s.unitsErr
}

func (s *planningRepoStub) ListAvailableRooms(_ context.Context) ([]models.Room, error) {
	return s.rooms, s.roomsErr
}

func (s *planningRepoStub) ListActiveProfessors(_ context.Context) ([]models.Professor, error) {
	return s.professors, nil
}

func (s *planningRepoStub) ListEnrollments(_ context.Context) ([]models.Enrollment, error) {
	return s.enrollments, nil
}

func (s *planningRepoStub) ListCommittedExams(_ context.Context) ([]models.ScheduledExam, error) {
	return s.committed, nil
}

func (s *planningRepoStub) ListRoomCapacities(_ context.Context) (map[int64]int, error) {
	return s.capacities, nil
}

func (s *planningRepoStub) SaveSchedule(_ context.Context, payload []byte) (int, error) {
	s.saveCalls++
	s.lastPayload = payload
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	return s.saveCount, nil
}

func newOptimizerFixture(repo *planningRepoStub) *OptimizerService {
	cache := repository.NewCacheRepository(nil, zap.NewNop())
	return NewOptimizerService(repo, cache, nil, nil, zap.NewNop(), config.SchedulerConfig{})
}

func windowRequest() dto.GenerateScheduleRequest {
	return dto.GenerateScheduleRequest{StartDate: "2026-01-05", EndDate: "2026-01-09"}
}

func TestGenerateFullPass(t *testing.T) {
	repo := &planningRepoStub{
		units: []models.ExamUnit{
			{ModuleID: 1, ModuleName: "Algorithmique", StudentCount: 120, Credits: 6, DurationMinutes: 120, ProfessorID: 42},
			{ModuleID: 2, ModuleName: "Analyse", StudentCount: 40, Credits: 6, DurationMinutes: 120, ProfessorID: 43},
		},
		rooms: []models.Room{
			{ID: 1, Name: "Amphi A", Capacity: 150},
			{ID: 2, Name: "Salle B", Capacity: 60},
		},
		professors: []models.Professor{
			{ID: 42, FirstName: "Marie", LastName: "Curie"},
			{ID: 43, FirstName: "Henri", LastName: "Poincaré"},
		},
	}
	svc := newOptimizerFixture(repo)

	result, err := svc.Generate(context.Background(), windowRequest())

	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.NotEmpty(t, result.ProposalID)
	assert.Empty(t, result.Unscheduled)
	assert.Empty(t, result.Conflicts)
	assert.False(t, result.BudgetExceeded)
	assert.GreaterOrEqual(t, result.ElapsedSeconds, 0.0)

	// The bigger cohort ranks first and lands in the first slot.
	assert.Equal(t, int64(1), result.Entries[0].ModuleID)
	assert.Equal(t, time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC), result.Entries[0].StartTime)
}

func TestGenerateReportsUnscheduledUnits(t *testing.T) {
	repo := &planningRepoStub{
		units: []models.ExamUnit{
			{ModuleID: 1, ModuleName: "Introduction au droit", StudentCount: 500, DurationMinutes: 120},
		},
		rooms: []models.Room{
			{ID: 1, Name: "Amphi A", Capacity: 150},
		},
	}
	svc := newOptimizerFixture(repo)

	result, err := svc.Generate(context.Background(), windowRequest())

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	require.Len(t, result.Unscheduled, 1)
	assert.Equal(t, "no room with sufficient capacity", result.Unscheduled[0].Reason)
}

func TestGenerateValidatesPayload(t *testing.T) {
	svc := newOptimizerFixture(&planningRepoStub{})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{StartDate: "05/01/2026", EndDate: "2026-01-09"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateRejectsInvertedWindow(t *testing.T) {
	svc := newOptimizerFixture(&planningRepoStub{})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{StartDate: "2026-01-09", EndDate: "2026-01-05"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateEmptyWindowFails(t *testing.T) {
	svc := newOptimizerFixture(&planningRepoStub{})

	_, err := svc.Generate(context.Background(), windowRequest())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLoadFailure.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "no schedulable exam units")
}

func TestGenerateLoadFailure(t *testing.T) {
	svc := newOptimizerFixture(&planningRepoStub{unitsErr: errors.New("connection refused")})

	_, err := svc.Generate(context.Background(), windowRequest())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLoadFailure.Code, appErrors.FromError(err).Code)
}

func TestSaveRoundTrip(t *testing.T) {
	repo := &planningRepoStub{
		units: []models.ExamUnit{
			{ModuleID: 1, ModuleName: "Algorithmique", StudentCount: 120, DurationMinutes: 120},
		},
		rooms:     []models.Room{{ID: 1, Name: "Amphi A", Capacity: 150}},
		saveCount: 1,
	}
	svc := newOptimizerFixture(repo)

	result, err := svc.Generate(context.Background(), windowRequest())
	require.NoError(t, err)

	resp, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: result.ProposalID})

	require.NoError(t, err)
	assert.True(t, resp.Saved)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "1 exams saved", resp.Message)
	assert.Equal(t, 1, repo.saveCalls)
	assert.NotEmpty(t, repo.lastPayload)

	// The proposal is consumed on success.
	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: result.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveEmptyProposalIssuesNoWrite(t *testing.T) {
	repo := &planningRepoStub{
		units: []models.ExamUnit{
			{ModuleID: 1, ModuleName: "Introduction au droit", StudentCount: 500, DurationMinutes: 120},
		},
		rooms: []models.Room{{ID: 1, Name: "Amphi A", Capacity: 150}},
	}
	svc := newOptimizerFixture(repo)

	result, err := svc.Generate(context.Background(), windowRequest())
	require.NoError(t, err)
	require.Empty(t, result.Entries)

	resp, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: result.ProposalID})

	require.NoError(t, err)
	assert.False(t, resp.Saved)
	assert.Equal(t, "nothing to save", resp.Message)
	assert.Zero(t, repo.saveCalls)
}

func TestSaveWriteFailureKeepsProposal(t *testing.T) {
	repo := &planningRepoStub{
		units: []models.ExamUnit{
			{ModuleID: 1, ModuleName: "Algorithmique", StudentCount: 120, DurationMinutes: 120},
		},
		rooms:     []models.Room{{ID: 1, Name: "Amphi A", Capacity: 150}},
		saveErr:   errors.New("function save_optimized_schedule does not exist"),
		saveCount: 1,
	}
	svc := newOptimizerFixture(repo)

	result, err := svc.Generate(context.Background(), windowRequest())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: result.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWriteFailure.Code, appErrors.FromError(err).Code)

	// Retry after the fault clears succeeds without regeneration.
	repo.saveErr = nil
	resp, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: result.ProposalID})
	require.NoError(t, err)
	assert.True(t, resp.Saved)
	assert.Equal(t, 2, repo.saveCalls)
}

func TestSaveUnknownProposal(t *testing.T) {
	svc := newOptimizerFixture(&planningRepoStub{})

	_, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "missing"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveValidatesPayload(t *testing.T) {
	svc := newOptimizerFixture(&planningRepoStub{})

	_, err := svc.Save(context.Background(), dto.SaveScheduleRequest{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScanConflictsOverCommittedSchedule(t *testing.T) {
	repo := &planningRepoStub{
		committed: []models.ScheduledExam{
			{ID: "a", ModuleID: 1, ProfessorID: 42, RoomID: 1, StudentCount: 50, StartTime: time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)},
			{ID: "b", ModuleID: 2, ProfessorID: 42, RoomID: 1, StudentCount: 50, StartTime: time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)},
			{ID: "c", ModuleID: 3, ProfessorID: 42, RoomID: 1, StudentCount: 50, StartTime: time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC)},
			{ID: "d", ModuleID: 4, ProfessorID: 42, RoomID: 1, StudentCount: 50, StartTime: time.Date(2026, time.January, 5, 16, 0, 0, 0, time.UTC)},
		},
		capacities: map[int64]int{1: 100},
		professors: []models.Professor{{ID: 42, FirstName: "Marie", LastName: "Curie"}},
	}
	svc := newOptimizerFixture(repo)

	conflicts, err := svc.ScanConflicts(context.Background())

	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictProfessorOverload, conflicts[0].Kind)
}

func TestPlanningReadsCommittedExams(t *testing.T) {
	repo := &planningRepoStub{
		committed: []models.ScheduledExam{{ID: "a", ModuleID: 1}},
	}
	svc := newOptimizerFixture(repo)

	exams, err := svc.Planning(context.Background())

	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, "a", exams[0].ID)
}
