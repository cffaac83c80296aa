package service

import "github.com/planexa/exam-planner-api/internal/models"

// ResolutionPolicy attempts to produce a conflict-reduced schedule. A policy
// must never increase the conflict count and must not duplicate or lose
// entries; whatever it cannot fix stays in place and remains reported.
type ResolutionPolicy interface {
	Resolve(entries []models.ScheduledExam, conflicts []models.Conflict) ([]models.ScheduledExam, []models.Conflict)
}

// detectOnlyPolicy leaves every entry untouched and marks each conflict
// unresolved. No reassignment strategy ships by default, so observed conflict
// counts stay directly comparable with the detector output; swapping in a
// real strategy is a policy change, not an engine change.
type detectOnlyPolicy struct{}

func (detectOnlyPolicy) Resolve(entries []models.ScheduledExam, conflicts []models.Conflict) ([]models.ScheduledExam, []models.Conflict) {
	unresolved := make([]models.Conflict, len(conflicts))
	copy(unresolved, conflicts)
	for i := range unresolved {
		unresolved[i].Resolved = false
	}
	return entries, unresolved
}
