package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planexa/exam-planner-api/internal/models"
)

// PlanningRepository is the engine's only I/O boundary: it reads candidate
// exam units and reference data for a planning window and commits generated
// schedules. Reads are side-effect free.
type PlanningRepository struct {
	db *sqlx.DB
}

// NewPlanningRepository constructs a PlanningRepository.
func NewPlanningRepository(db *sqlx.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

type examUnitRow struct {
	ModuleID        int64          `db:"module_id"`
	ModuleName      string         `db:"module_name"`
	DepartmentID    sql.NullInt64  `db:"department_id"`
	StudentCount    sql.NullInt64  `db:"student_count"`
	Credits         sql.NullInt64  `db:"credits"`
	DurationMinutes sql.NullInt64  `db:"duration_minutes"`
	ProfessorID     sql.NullInt64  `db:"professor_id"`
}

// LoadExamUnits pulls candidate exam units for the window via the
// load_optimization_data aggregation. Null numeric fields default to zero at
// this boundary; a zero duration is filled with defaultDuration.
func (r *PlanningRepository) LoadExamUnits(ctx context.Context, start, end time.Time, departmentID int64, defaultDuration int) ([]models.ExamUnit, error) {
	const query = `SELECT module_id, module_name, department_id, student_count, credits, duration_minutes, professor_id
		FROM load_optimization_data($1, $2, $3)`

	var rows []examUnitRow
	if err := r.db.SelectContext(ctx, &rows, query, start, end, nullableID(departmentID)); err != nil {
		return nil, fmt.Errorf("load exam units: %w", err)
	}

	units := make([]models.ExamUnit, 0, len(rows))
	for _, row := range rows {
		unit := models.ExamUnit{
			ModuleID:        row.ModuleID,
			ModuleName:      row.ModuleName,
			DepartmentID:    row.DepartmentID.Int64,
			StudentCount:    int(row.StudentCount.Int64),
			Credits:         int(row.Credits.Int64),
			DurationMinutes: int(row.DurationMinutes.Int64),
			ProfessorID:     row.ProfessorID.Int64,
		}
		if unit.DurationMinutes <= 0 {
			unit.DurationMinutes = defaultDuration
		}
		units = append(units, unit)
	}
	return units, nil
}

// ListAvailableRooms returns the bookable room inventory sorted by capacity
// descending, the order the allocator depends on.
func (r *PlanningRepository) ListAvailableRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, capacity, room_type, building
		FROM exam_rooms
		WHERE available = TRUE
		ORDER BY capacity DESC, id`

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}

// ListActiveProfessors returns professors eligible for proctoring duty.
func (r *PlanningRepository) ListActiveProfessors(ctx context.Context) ([]models.Professor, error) {
	const query = `SELECT id, first_name, last_name, department_id, max_hours
		FROM professors
		WHERE active = TRUE
		ORDER BY department_id, id`

	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query); err != nil {
		return nil, fmt.Errorf("list active professors: %w", err)
	}
	return professors, nil
}

// ListEnrollments returns (student, module) pairs for overlap detection.
func (r *PlanningRepository) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT student_id, module_id
		FROM enrollments
		WHERE status = 'enrolled'
		ORDER BY student_id, module_id`

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

type committedExamRow struct {
	ID              string          `db:"id"`
	ModuleID        int64           `db:"module_id"`
	ModuleName      string          `db:"module_name"`
	RoomID          int64           `db:"room_id"`
	RoomName        string          `db:"room_name"`
	ProfessorID     sql.NullInt64   `db:"professor_id"`
	StartTime       time.Time       `db:"start_time"`
	DurationMinutes sql.NullInt64   `db:"duration_minutes"`
	StudentCount    sql.NullInt64   `db:"student_count"`
	PriorityScore   sql.NullFloat64 `db:"priority_score"`
}

// ListCommittedExams reads back the persisted planning view.
func (r *PlanningRepository) ListCommittedExams(ctx context.Context) ([]models.ScheduledExam, error) {
	const query = `SELECT id, module_id, module_name, room_id, room_name, professor_id, start_time, duration_minutes, student_count, priority_score
		FROM v_exam_planning
		ORDER BY start_time, id`

	var rows []committedExamRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list committed exams: %w", err)
	}

	exams := make([]models.ScheduledExam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, models.ScheduledExam{
			ID:              row.ID,
			ModuleID:        row.ModuleID,
			ModuleName:      row.ModuleName,
			RoomID:          row.RoomID,
			RoomName:        row.RoomName,
			ProfessorID:     row.ProfessorID.Int64,
			StartTime:       row.StartTime,
			DurationMinutes: int(row.DurationMinutes.Int64),
			StudentCount:    int(row.StudentCount.Int64),
			PriorityScore:   row.PriorityScore.Float64,
		})
	}
	return exams, nil
}

// ListRoomCapacities returns capacity for every room, available or not, so
// conflict scans over the committed schedule see rooms that have since been
// taken out of rotation.
func (r *PlanningRepository) ListRoomCapacities(ctx context.Context) (map[int64]int, error) {
	const query = `SELECT id, capacity FROM exam_rooms`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list room capacities: %w", err)
	}
	defer rows.Close()

	capacities := make(map[int64]int)
	for rows.Next() {
		var id int64
		var capacity int
		if err := rows.Scan(&id, &capacity); err != nil {
			return nil, fmt.Errorf("scan room capacity: %w", err)
		}
		capacities[id] = capacity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room capacities: %w", err)
	}
	return capacities, nil
}

// SaveSchedule submits the serialized schedule as a single persistence call
// and returns the count of rows written.
func (r *PlanningRepository) SaveSchedule(ctx context.Context, payload []byte) (int, error) {
	const query = `SELECT save_optimized_schedule($1::jsonb)`

	var count int
	if err := r.db.GetContext(ctx, &count, query, payload); err != nil {
		return 0, fmt.Errorf("save schedule: %w", err)
	}
	return count, nil
}

func nullableID(id int64) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
