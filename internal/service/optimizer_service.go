package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planexa/exam-planner-api/internal/dto"
	"github.com/planexa/exam-planner-api/internal/models"
	"github.com/planexa/exam-planner-api/internal/repository"
	"github.com/planexa/exam-planner-api/pkg/config"
	appErrors "github.com/planexa/exam-planner-api/pkg/errors"
)

const requestDateFormat = "2006-01-02"

type planningRepository interface {
	LoadExamUnits(ctx context.Context, start, end time.Time, departmentID int64, defaultDuration int) ([]models.ExamUnit, error)
	ListAvailableRooms(ctx context.Context) ([]models.Room, error)
	ListActiveProfessors(ctx context.Context) ([]models.Professor, error)
	ListEnrollments(ctx context.Context) ([]models.Enrollment, error)
	ListCommittedExams(ctx context.Context) ([]models.ScheduledExam, error)
	ListRoomCapacities(ctx context.Context) (map[int64]int, error)
	SaveSchedule(ctx context.Context, payload []byte) (int, error)
}

// OptimizerService runs the scheduling pipeline: load, rank, allocate,
// detect, resolve, and hands the result to the writer on save. One invocation
// owns its in-progress schedule exclusively; reference data is read-only for
// the duration of a run.
type OptimizerService struct {
	repo      planningRepository
	store     *proposalStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	policy    ResolutionPolicy
	cfg       config.SchedulerConfig
}

// NewOptimizerService wires the engine's dependencies.
func NewOptimizerService(
	repo planningRepository,
	cache *repository.CacheRepository,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *OptimizerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SoftBudget <= 0 {
		cfg.SoftBudget = 45 * time.Second
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 120
	}
	return &OptimizerService{
		repo:      repo,
		store:     newProposalStore(cfg.ProposalTTL, cache, logger),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		policy:    detectOnlyPolicy{},
		cfg:       cfg,
	}
}

// Generate runs one full scheduling pass over the planning window and caches
// the result as a proposal. Exceeding the soft wall-clock budget is reported,
// never aborted. The result always carries explicit visibility into
// unscheduled units and remaining conflicts.
func (s *OptimizerService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	units, err := s.loadUnits(ctx, start, end, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	rooms, professors, enrollments, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	ranked := rankUnits(units, req.DepartmentID)
	entries, unscheduled := newAllocator(rooms, start, end).Allocate(ranked)

	ref := buildReferenceData(enrollments, roomCapacityMap(rooms), professors)
	conflicts := detectConflicts(entries, ref)
	entries, conflicts = s.policy.Resolve(entries, conflicts)

	elapsed := time.Since(started)
	overBudget := elapsed > s.cfg.SoftBudget
	if overBudget {
		s.logger.Warn("schedule generation exceeded soft budget",
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", s.cfg.SoftBudget),
		)
	}

	result := dto.ScheduleResult{
		ProposalID:     uuid.NewString(),
		Entries:        entries,
		Conflicts:      conflicts,
		Unscheduled:    unscheduled,
		ElapsedSeconds: elapsed.Seconds(),
		BudgetExceeded: overBudget,
	}
	s.store.Save(ctx, scheduleProposal{Result: result, RequestedAt: time.Now().UTC()})
	s.metrics.ObserveGeneration(elapsed, len(entries), len(unscheduled), conflicts, overBudget)

	s.logger.Info("schedule generated",
		zap.String("proposal_id", result.ProposalID),
		zap.Int("scheduled", len(entries)),
		zap.Int("unscheduled", len(unscheduled)),
		zap.Int("conflicts", len(conflicts)),
		zap.Float64("elapsed_seconds", result.ElapsedSeconds),
	)
	return &result, nil
}

// Save serializes a proposal's entries and submits them as a single
// persistence call. An empty proposal fails fast with "nothing to save" and
// issues no call; a write failure keeps the proposal cached so the caller can
// retry the write alone.
func (s *OptimizerService) Save(ctx context.Context, req dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}

	proposal, ok := s.store.Get(ctx, req.ProposalID)
	s.metrics.RecordCacheOperation(ok)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	if len(proposal.Result.Entries) == 0 {
		return &dto.SaveScheduleResponse{Saved: false, Message: "nothing to save"}, nil
	}

	payload, err := json.Marshal(proposal.Result.Entries)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
	}

	queryStart := time.Now()
	count, err := s.repo.SaveSchedule(ctx, payload)
	s.metrics.ObserveDBQuery("save_schedule", time.Since(queryStart))
	if err != nil {
		// Proposal stays in the store for retry.
		s.logger.Error("schedule write failed", zap.String("proposal_id", req.ProposalID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrWriteFailure.Code, appErrors.ErrWriteFailure.Status, fmt.Sprintf("failed to persist schedule: %v", err))
	}

	s.store.Delete(ctx, req.ProposalID)
	s.logger.Info("schedule saved", zap.String("proposal_id", req.ProposalID), zap.Int("count", count))
	return &dto.SaveScheduleResponse{Saved: true, Count: count, Message: fmt.Sprintf("%d exams saved", count)}, nil
}

// ScanConflicts runs the detector over the committed schedule.
func (s *OptimizerService) ScanConflicts(ctx context.Context) ([]models.Conflict, error) {
	exams, err := s.timedCommittedExams(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.repo.ListEnrollments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load enrollments")
	}
	capacities, err := s.repo.ListRoomCapacities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load room capacities")
	}
	professors, err := s.repo.ListActiveProfessors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load professors")
	}

	ref := buildReferenceData(enrollments, capacities, professors)
	return detectConflicts(exams, ref), nil
}

// Planning reads back the committed planning view.
func (s *OptimizerService) Planning(ctx context.Context) ([]models.ScheduledExam, error) {
	return s.timedCommittedExams(ctx)
}

func (s *OptimizerService) loadUnits(ctx context.Context, start, end time.Time, departmentID int64) ([]models.ExamUnit, error) {
	queryStart := time.Now()
	units, err := s.repo.LoadExamUnits(ctx, start, end, departmentID, s.cfg.DefaultDurationMinutes)
	s.metrics.ObserveDBQuery("load_exam_units", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load exam units")
	}
	if len(units) == 0 {
		return nil, appErrors.Clone(appErrors.ErrLoadFailure, "no schedulable exam units in the planning window")
	}
	return units, nil
}

func (s *OptimizerService) loadReference(ctx context.Context) ([]models.Room, []models.Professor, []models.Enrollment, error) {
	rooms, err := s.repo.ListAvailableRooms(ctx)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load rooms")
	}
	professors, err := s.repo.ListActiveProfessors(ctx)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load professors")
	}
	enrollments, err := s.repo.ListEnrollments(ctx)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load enrollments")
	}
	return rooms, professors, enrollments, nil
}

func (s *OptimizerService) timedCommittedExams(ctx context.Context) ([]models.ScheduledExam, error) {
	queryStart := time.Now()
	exams, err := s.repo.ListCommittedExams(ctx)
	s.metrics.ObserveDBQuery("list_committed_exams", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailure.Code, appErrors.ErrLoadFailure.Status, "failed to load committed schedule")
	}
	return exams, nil
}

func parseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(requestDateFormat, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse(requestDateFormat, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}
	return start, end, nil
}
