package service

import (
	"fmt"
	"sort"

	"github.com/planexa/exam-planner-api/internal/models"
)

// maxExamsPerProfessorPerDay bounds daily proctor load; a professor assigned
// more exams than this on one calendar day is overloaded.
const maxExamsPerProfessorPerDay = 3

const dayFormat = "2006-01-02"

// referenceData is the read-only snapshot the detector consults. It is never
// mutated during a run.
type referenceData struct {
	// enrolledStudents maps module id to the students sitting its exam.
	enrolledStudents map[int64][]int64
	// roomCapacities maps room id to seat capacity.
	roomCapacities map[int64]int
	// professorNames decorates conflict details; missing ids fall back to the
	// raw id.
	professorNames map[int64]string
}

func buildReferenceData(enrollments []models.Enrollment, capacities map[int64]int, professors []models.Professor) referenceData {
	ref := referenceData{
		enrolledStudents: make(map[int64][]int64),
		roomCapacities:   capacities,
		professorNames:   make(map[int64]string, len(professors)),
	}
	for _, e := range enrollments {
		ref.enrolledStudents[e.ModuleID] = append(ref.enrolledStudents[e.ModuleID], e.StudentID)
	}
	for _, p := range professors {
		ref.professorNames[p.ID] = fmt.Sprintf("%s %s", p.FirstName, p.LastName)
	}
	return ref
}

func roomCapacityMap(rooms []models.Room) map[int64]int {
	capacities := make(map[int64]int, len(rooms))
	for _, room := range rooms {
		capacities[room.ID] = room.Capacity
	}
	return capacities
}

// detectConflicts scans a candidate or committed schedule for the three
// invariant violations. Output ordering is deterministic, so running it twice
// over the same schedule and reference snapshot yields the same conflict set.
func detectConflicts(schedule []models.ScheduledExam, ref referenceData) []models.Conflict {
	var conflicts []models.Conflict
	conflicts = append(conflicts, detectStudentOverlaps(schedule, ref)...)
	conflicts = append(conflicts, detectProfessorOverloads(schedule, ref)...)
	conflicts = append(conflicts, detectCapacityExceeded(schedule, ref)...)
	sortConflicts(conflicts)
	return conflicts
}

type studentDayKey struct {
	student int64
	day     string
}

// detectStudentOverlaps emits one CRITICAL conflict per (student, day) group
// holding more than one exam.
func detectStudentOverlaps(schedule []models.ScheduledExam, ref referenceData) []models.Conflict {
	grouped := make(map[studentDayKey][]string)
	for _, exam := range schedule {
		day := exam.StartTime.Format(dayFormat)
		for _, student := range ref.enrolledStudents[exam.ModuleID] {
			key := studentDayKey{student: student, day: day}
			grouped[key] = append(grouped[key], exam.ID)
		}
	}

	keys := make([]studentDayKey, 0, len(grouped))
	for key, examIDs := range grouped {
		if len(examIDs) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day == keys[j].day {
			return keys[i].student < keys[j].student
		}
		return keys[i].day < keys[j].day
	})

	conflicts := make([]models.Conflict, 0, len(keys))
	for _, key := range keys {
		examIDs := grouped[key]
		sort.Strings(examIDs)
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictStudentOverlap,
			Severity: models.SeverityCritical,
			ExamIDs:  examIDs,
			Detail:   fmt.Sprintf("student %d has %d exams on %s", key.student, len(examIDs), key.day),
		})
	}
	return conflicts
}

type professorDayKey struct {
	professor int64
	day       string
}

// detectProfessorOverloads emits one CRITICAL conflict per (professor, day)
// group exceeding the daily limit. Units without an assigned professor are
// skipped.
func detectProfessorOverloads(schedule []models.ScheduledExam, ref referenceData) []models.Conflict {
	grouped := make(map[professorDayKey][]string)
	for _, exam := range schedule {
		if exam.ProfessorID == 0 {
			continue
		}
		key := professorDayKey{professor: exam.ProfessorID, day: exam.StartTime.Format(dayFormat)}
		grouped[key] = append(grouped[key], exam.ID)
	}

	keys := make([]professorDayKey, 0, len(grouped))
	for key, examIDs := range grouped {
		if len(examIDs) > maxExamsPerProfessorPerDay {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day == keys[j].day {
			return keys[i].professor < keys[j].professor
		}
		return keys[i].day < keys[j].day
	})

	conflicts := make([]models.Conflict, 0, len(keys))
	for _, key := range keys {
		examIDs := grouped[key]
		sort.Strings(examIDs)
		name, ok := ref.professorNames[key.professor]
		if !ok {
			name = fmt.Sprintf("professor %d", key.professor)
		}
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictProfessorOverload,
			Severity: models.SeverityCritical,
			ExamIDs:  examIDs,
			Detail:   fmt.Sprintf("%s has %d exams on %s (max %d)", name, len(examIDs), key.day, maxExamsPerProfessorPerDay),
		})
	}
	return conflicts
}

// detectCapacityExceeded emits one conflict per exam whose enrolled count
// exceeds its room's capacity. Rooms missing from the reference snapshot
// cannot be judged and are skipped.
func detectCapacityExceeded(schedule []models.ScheduledExam, ref referenceData) []models.Conflict {
	var conflicts []models.Conflict
	for _, exam := range schedule {
		capacity, ok := ref.roomCapacities[exam.RoomID]
		if !ok || exam.StudentCount <= capacity {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Kind:     models.ConflictCapacityExceeded,
			Severity: models.SeverityHigh,
			ExamIDs:  []string{exam.ID},
			Detail:   fmt.Sprintf("%s: %d students exceed capacity %d of room %s", exam.ModuleName, exam.StudentCount, capacity, exam.RoomName),
		})
	}
	return conflicts
}

var severityRank = map[models.ConflictSeverity]int{
	models.SeverityCritical: 1,
	models.SeverityHigh:     2,
	models.SeverityMedium:   3,
}

func sortConflicts(conflicts []models.Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if severityRank[conflicts[i].Severity] != severityRank[conflicts[j].Severity] {
			return severityRank[conflicts[i].Severity] < severityRank[conflicts[j].Severity]
		}
		if conflicts[i].Kind != conflicts[j].Kind {
			return conflicts[i].Kind < conflicts[j].Kind
		}
		return conflicts[i].Detail < conflicts[j].Detail
	})
}
