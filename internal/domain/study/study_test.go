package study

import (
	"errors"
	"testing"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubjectKey(t *testing.T) {
	tests := []struct {
		name string
		ref  Referencer
		want string
		ok   bool
	}{
		{"study task subject wins", StudyTask{Subject: "Physics", Course: "Math"}, "Physics", true},
		{"study task falls back to course", StudyTask{Subject: "  ", Course: "Math"}, "Math", true},
		{"assignment course", Assignment{Course: "History"}, "History", true},
		{"grade course", Grade{Course: " Math "}, "Math", true},
		{"task colon prefix", Task{Title: "Biology : read chapter 3"}, "Biology", true},
		{"task first colon only", Task{Title: "Chem: lab: write-up"}, "Chem", true},
		{"task without colon", Task{Title: "buy milk"}, "", false},
		{"task empty prefix", Task{Title: ": nothing"}, "", false},
		{"resource category", Resource{Title: "Notes: Art", Category: "Art"}, "Art", true},
		{"resource title is not used", Resource{Title: "Math: notes"}, "", false},
		{"study task title is not used", StudyTask{Title: "Math: revise"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SubjectOf(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	assert.Equal(t, 90, DurationMinutes("14:00", "15:30"))
	assert.Equal(t, 0, DurationMinutes("09:00", "09:00"))
	assert.Equal(t, -60, DurationMinutes("23:30", "22:30"))
	assert.Equal(t, -1380, DurationMinutes("23:00", "00:00"))
	assert.Equal(t, 0, DurationMinutes("bad", "10:00"))
	assert.Equal(t, 0, DurationMinutes("10:00", "25:00"))
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 425, m)

	_, err = ParseClock("7h05")
	assert.True(t, errors.Is(err, shared.ErrInvalidClock))
	assert.True(t, errors.Is(err, shared.ErrInvalidFormat))
}

func TestTimeSlot_Mentions(t *testing.T) {
	slot := TimeSlot{Title: "Math review", Description: "chapter 4"}

	assert.True(t, slot.Mentions("math"))
	assert.True(t, slot.Mentions("Chapter"))
	assert.False(t, slot.Mentions("Biology"))
	assert.False(t, slot.Mentions(""))

	// "Art" matches inside "Math Art History"; substring matching is kept as is.
	assert.True(t, TimeSlot{Title: "Math Art History"}.Mentions("Art"))
}

func TestGrade_Percentage(t *testing.T) {
	p, ok := Grade{Score: 45, MaxScore: 50}.Percentage()
	assert.True(t, ok)
	assert.InDelta(t, 90.0, p, 1e-9)

	_, ok = Grade{Score: 45}.Percentage()
	assert.False(t, ok)
}

func TestSubtask_Validate(t *testing.T) {
	assert.NoError(t, Subtask{ParentID: "st1", Title: "outline"}.Validate())
	assert.ErrorIs(t, Subtask{ParentID: "st1"}.Validate(), shared.ErrEmptyTitle)
	assert.ErrorIs(t, Subtask{Title: "x"}.Validate(), shared.ErrOrphanSubtask)
}

func TestCollections_SubtasksOf(t *testing.T) {
	c := Collections{Subtasks: []Subtask{
		{ID: "a", ParentID: "p1"},
		{ID: "b", ParentID: "p2"},
		{ID: "c", ParentID: "p1"},
	}}

	got := c.SubtasksOf("p1")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Empty(t, c.SubtasksOf("missing"))
}
