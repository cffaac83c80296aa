package models

import "time"

// ExamUnit is one module requiring an exam inside the planning window.
// Reference fields are immutable after load; PriorityScore is stamped by the
// ranker before allocation.
type ExamUnit struct {
	ModuleID        int64   `db:"module_id" json:"module_id"`
	ModuleName      string  `db:"module_name" json:"module_name"`
	DepartmentID    int64   `db:"department_id" json:"department_id"`
	StudentCount    int     `db:"student_count" json:"student_count"`
	Credits         int     `db:"credits" json:"credits"`
	DurationMinutes int     `db:"duration_minutes" json:"duration_minutes"`
	ProfessorID     int64   `db:"professor_id" json:"professor_id,omitempty"`
	PriorityScore   float64 `db:"-" json:"priority_score"`
}

// Enrollment links a student to a module. Read-only reference data for the
// conflict detector.
type Enrollment struct {
	StudentID int64 `db:"student_id" json:"student_id"`
	ModuleID  int64 `db:"module_id" json:"module_id"`
}

// ScheduledExam binds an exam unit to a room and a start timestamp.
type ScheduledExam struct {
	ID              string    `db:"id" json:"id"`
	ModuleID        int64     `db:"module_id" json:"module_id"`
	ModuleName      string    `db:"module_name" json:"module_name"`
	RoomID          int64     `db:"room_id" json:"room_id"`
	RoomName        string    `db:"room_name" json:"room_name"`
	ProfessorID     int64     `db:"professor_id" json:"professor_id,omitempty"`
	StartTime       time.Time `db:"start_time" json:"exam_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	StudentCount    int       `db:"student_count" json:"student_count"`
	PriorityScore   float64   `db:"priority_score" json:"priority_score"`
}

// EndTime returns the exclusive end of the exam interval.
func (e ScheduledExam) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two exams occupy intersecting half-open
// [start, end) intervals.
func (e ScheduledExam) Overlaps(other ScheduledExam) bool {
	return other.StartTime.Before(e.EndTime()) && e.StartTime.Before(other.EndTime())
}
