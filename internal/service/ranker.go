package service

import (
	"sort"

	"github.com/planexa/exam-planner-api/internal/models"
)

// Priority weighting. The 40/30/30 split is a product decision: large,
// high-credit, home-department exams claim rooms first. Scores are
// intentionally unbounded; do not normalize.
const (
	enrollmentWeight = 40.0
	enrollmentScale  = 100.0
	creditWeight     = 30.0
	creditScale      = 12.0
	departmentBonus  = 30.0
)

func priorityScore(unit models.ExamUnit, priorityDepartmentID int64) float64 {
	score := float64(unit.StudentCount) / enrollmentScale * enrollmentWeight
	score += float64(unit.Credits) / creditScale * creditWeight
	if priorityDepartmentID > 0 && unit.DepartmentID == priorityDepartmentID {
		score += departmentBonus
	}
	return score
}

// rankUnits stamps each unit with its priority score and returns a new slice
// in descending priority order. The sort is stable: ties keep input order.
func rankUnits(units []models.ExamUnit, priorityDepartmentID int64) []models.ExamUnit {
	ranked := make([]models.ExamUnit, len(units))
	copy(ranked, units)
	for i := range ranked {
		ranked[i].PriorityScore = priorityScore(ranked[i], priorityDepartmentID)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})
	return ranked
}
