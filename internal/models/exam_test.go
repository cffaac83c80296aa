package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func exam(hour, durationMinutes int) ScheduledExam {
	return ScheduledExam{
		StartTime:       time.Date(2026, time.January, 5, hour, 0, 0, 0, time.UTC),
		DurationMinutes: durationMinutes,
	}
}

func TestScheduledExamEndTime(t *testing.T) {
	e := exam(8, 120)
	assert.Equal(t, time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC), e.EndTime())
}

func TestScheduledExamOverlaps(t *testing.T) {
	morning := exam(8, 120)

	assert.True(t, morning.Overlaps(exam(9, 120)))
	assert.True(t, morning.Overlaps(morning))
	// Half-open intervals: touching end points do not overlap.
	assert.False(t, morning.Overlaps(exam(10, 120)))
	assert.False(t, exam(10, 120).Overlaps(morning))
	assert.False(t, morning.Overlaps(exam(14, 120)))
}
