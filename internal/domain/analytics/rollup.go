// Package analytics joins a user's collections by subject into rollups and
// turns rollups into study recommendations. Everything here is pure: no I/O,
// no hidden state.
package analytics

import (
	"math"
	"sort"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
)

// XP weights per completed item kind.
const (
	TaskXPWeight       = 5
	AssignmentXPWeight = 5
	StudyTaskXPWeight  = 3
)

// Counts is a total/completed pair for one source collection.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Pending returns the number of items not yet completed.
func (c Counts) Pending() int {
	return c.Total - c.Completed
}

// CompletionRate returns Completed/Total, or 0 when there are no items.
func (c Counts) CompletionRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total)
}

func (c *Counts) add(completed bool) {
	c.Total++
	if completed {
		c.Completed++
	}
}

// SubjectRollup is the derived summary for one subject. It is rebuilt from
// source collections on every computation and never stored.
type SubjectRollup struct {
	Subject string `json:"subject"`

	Tasks       Counts `json:"tasks"`
	Assignments Counts `json:"assignments"`
	StudyTasks  Counts `json:"studyTasks"`
	Subtasks    Counts `json:"subtasks"`

	// StudyTasksAsAssignment counts study tasks flagged isAssignment.
	StudyTasksAsAssignment int `json:"studyTasksAsAssignment"`
	LinkedResources        int `json:"linkedResources"`

	Resources    int `json:"resources"`
	PDFResources int `json:"pdfResources"`

	GradeCount int `json:"gradeCount"`
	// GradedCount excludes grades with a non-positive maxScore.
	GradedCount  int `json:"gradedCount"`
	AverageGrade int `json:"averageGrade"`

	StudySessions     int `json:"studySessions"`
	TotalStudyMinutes int `json:"totalStudyMinutes"`

	TotalXP int `json:"totalXp"`
}

// HasGrades reports whether at least one usable grade exists.
func (r SubjectRollup) HasGrades() bool {
	return r.GradedCount > 0
}

type accumulator struct {
	rollup     SubjectRollup
	percentSum float64
}

// BuildRollups returns one rollup per distinct resolved subject, sorted by
// subject ascending. Time slots never introduce a subject; they only add
// minutes to subjects found elsewhere.
func BuildRollups(c study.Collections) []SubjectRollup {
	acc := make(map[string]*accumulator)
	get := func(key string) *accumulator {
		a, ok := acc[key]
		if !ok {
			a = &accumulator{rollup: SubjectRollup{Subject: key}}
			acc[key] = a
		}
		return a
	}

	for _, t := range c.Tasks {
		if key, ok := study.SubjectOf(t); ok {
			get(key).rollup.Tasks.add(t.Status().IsCompleted())
		}
	}

	for _, a := range c.Assignments {
		if key, ok := study.SubjectOf(a); ok {
			get(key).rollup.Assignments.add(a.CompletionStatus().IsCompleted())
		}
	}

	parentSubject := make(map[string]string, len(c.StudyTasks))
	for _, st := range c.StudyTasks {
		key, ok := study.SubjectOf(st)
		if !ok {
			continue
		}
		parentSubject[st.ID] = key
		r := &get(key).rollup
		r.StudyTasks.add(st.CompletionStatus().IsCompleted())
		r.LinkedResources += len(st.LinkedResources)
		if st.IsAssignment {
			r.StudyTasksAsAssignment++
		}
	}

	for _, sub := range c.Subtasks {
		if key, ok := parentSubject[sub.ParentID]; ok {
			acc[key].rollup.Subtasks.add(sub.Completed)
		}
	}

	for _, g := range c.Grades {
		key, ok := study.SubjectOf(g)
		if !ok {
			continue
		}
		a := get(key)
		a.rollup.GradeCount++
		if pct, ok := g.Percentage(); ok {
			a.rollup.GradedCount++
			a.percentSum += pct
		}
	}

	for _, res := range c.Resources {
		if key, ok := study.SubjectOf(res); ok {
			r := &get(key).rollup
			r.Resources++
			if res.IsPDF {
				r.PDFResources++
			}
		}
	}

	keys := make([]string, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]SubjectRollup, 0, len(keys))
	for _, k := range keys {
		a := acc[k]
		r := a.rollup

		if r.GradedCount > 0 {
			r.AverageGrade = int(math.Round(a.percentSum / float64(r.GradedCount)))
		}

		for _, slot := range c.TimeSlots {
			if slot.Mentions(k) {
				r.StudySessions++
				r.TotalStudyMinutes += slot.Minutes()
			}
		}

		r.TotalXP = r.Tasks.Completed*TaskXPWeight +
			r.Assignments.Completed*AssignmentXPWeight +
			r.StudyTasks.Completed*StudyTaskXPWeight

		out = append(out, r)
	}

	return out
}

// SortByXP returns a copy of rollups ordered by TotalXP descending, ties
// broken by subject ascending.
func SortByXP(rollups []SubjectRollup) []SubjectRollup {
	out := make([]SubjectRollup, len(rollups))
	copy(out, rollups)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalXP != out[j].TotalXP {
			return out[i].TotalXP > out[j].TotalXP
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// Find returns the rollup for subject, matched exactly.
func Find(rollups []SubjectRollup, subject string) (SubjectRollup, bool) {
	for _, r := range rollups {
		if r.Subject == subject {
			return r, true
		}
	}
	return SubjectRollup{}, false
}
