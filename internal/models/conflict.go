package models

// ConflictKind classifies a scheduling invariant violation.
type ConflictKind string

const (
	ConflictStudentOverlap    ConflictKind = "STUDENT_OVERLAP"
	ConflictProfessorOverload ConflictKind = "PROFESSOR_OVERLOAD"
	ConflictCapacityExceeded  ConflictKind = "CAPACITY_EXCEEDED"
)

// ConflictSeverity orders conflicts for reporting.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "CRITICAL"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityMedium   ConflictSeverity = "MEDIUM"
)

// Conflict is a detected violation. Conflicts are data, not errors: a run
// completes and returns them alongside the schedule.
type Conflict struct {
	Kind     ConflictKind     `json:"kind"`
	Severity ConflictSeverity `json:"severity"`
	ExamIDs  []string         `json:"exam_ids"`
	Detail   string           `json:"detail"`
	Resolved bool             `json:"resolved"`
}
