package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/planexa/exam-planner-api/internal/dto"
	"github.com/planexa/exam-planner-api/internal/models"
)

// Exam slots start at fixed hours on weekdays.
var examStartHours = []int{8, 10, 14, 16}

// Ideal fit band: a room is preferred when the projected occupation ratio
// falls inside [60%, 90%], both ends inclusive.
const (
	idealFitLowPct  = 60.0
	idealFitHighPct = 90.0
)

// allocator places ranked exam units into rooms and time slots. The growing
// schedule is an explicit accumulator owned by one generation pass; each
// successful placement is visible to every later placement, which makes
// allocation order-sensitive by design.
type allocator struct {
	rooms []models.Room // sorted by capacity descending at load time
	start time.Time
	end   time.Time
}

func newAllocator(rooms []models.Room, start, end time.Time) *allocator {
	return &allocator{rooms: rooms, start: start, end: end}
}

// Allocate walks units in rank order, appending successful placements to the
// returned schedule and collecting the units no feasible assignment exists
// for. No unit silently disappears.
func (a *allocator) Allocate(units []models.ExamUnit) ([]models.ScheduledExam, []dto.UnscheduledUnit) {
	entries := make([]models.ScheduledExam, 0, len(units))
	var unscheduled []dto.UnscheduledUnit

	for _, unit := range units {
		room := a.bestRoom(unit.StudentCount)
		if room == nil {
			unscheduled = append(unscheduled, dto.UnscheduledUnit{
				ModuleID:   unit.ModuleID,
				ModuleName: unit.ModuleName,
				Reason:     "no room with sufficient capacity",
			})
			continue
		}

		slot, ok := a.findSlot(unit, *room, entries)
		if !ok {
			unscheduled = append(unscheduled, dto.UnscheduledUnit{
				ModuleID:   unit.ModuleID,
				ModuleName: unit.ModuleName,
				Reason:     "no free slot within planning window",
			})
			continue
		}

		entries = append(entries, models.ScheduledExam{
			ID:              uuid.NewString(),
			ModuleID:        unit.ModuleID,
			ModuleName:      unit.ModuleName,
			RoomID:          room.ID,
			RoomName:        room.Name,
			ProfessorID:     unit.ProfessorID,
			StartTime:       slot,
			DurationMinutes: unit.DurationMinutes,
			StudentCount:    unit.StudentCount,
			PriorityScore:   unit.PriorityScore,
		})
	}

	return entries, unscheduled
}

// bestRoom prefers the first room (largest first) inside the ideal fit band,
// then falls back to the smallest room that still covers the cohort.
func (a *allocator) bestRoom(studentCount int) *models.Room {
	for i := range a.rooms {
		capacity := a.rooms[i].Capacity
		if capacity == 0 {
			continue
		}
		ratio := float64(studentCount) / float64(capacity) * 100
		if ratio >= idealFitLowPct && ratio <= idealFitHighPct {
			return &a.rooms[i]
		}
	}

	var best *models.Room
	for i := range a.rooms {
		if a.rooms[i].Capacity < studentCount {
			continue
		}
		if best == nil || a.rooms[i].Capacity < best.Capacity {
			best = &a.rooms[i]
		}
	}
	return best
}

// findSlot scans calendar days from window start to end, skipping weekends,
// and returns the first start hour with no overlapping booking for the room.
func (a *allocator) findSlot(unit models.ExamUnit, room models.Room, schedule []models.ScheduledExam) (time.Time, bool) {
	duration := time.Duration(unit.DurationMinutes) * time.Minute

	for day := a.start; !day.After(a.end); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, hour := range examStartHours {
			slot := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
			if roomFree(room.ID, slot, duration, schedule) {
				return slot, true
			}
		}
	}

	return time.Time{}, false
}

// roomFree applies the half-open interval test: the slot is rejected when
// existing.start < candidate.end && candidate.start < existing.end.
func roomFree(roomID int64, start time.Time, duration time.Duration, schedule []models.ScheduledExam) bool {
	end := start.Add(duration)
	for _, exam := range schedule {
		if exam.RoomID != roomID {
			continue
		}
		if exam.StartTime.Before(end) && start.Before(exam.EndTime()) {
			return false
		}
	}
	return true
}
