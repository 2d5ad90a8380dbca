// Package study contains the per-kind records a user tracks (tasks,
// assignments, study tasks, grades, resources, time slots and subtasks) and the
// pure rules that derive a subject key and a study duration from them.
package study

import (
	"strings"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
)

// EntityKind tags which record type a SubjectRef was taken from.
type EntityKind string

const (
	KindTask       EntityKind = "task"
	KindAssignment EntityKind = "assignment"
	KindStudyTask  EntityKind = "study_task"
	KindGrade      EntityKind = "grade"
	KindResource   EntityKind = "resource"
	KindTimeSlot   EntityKind = "time_slot"
	KindSubtask    EntityKind = "subtask"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK
// ══════════════════════════════════════════════════════════════════════════════

// Task is a plain to-do. Its subject may be embedded as "Subject: rest" in the title.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Status maps the completed flag onto a progress.Status.
func (t Task) Status() progress.Status {
	return progress.StatusFromBool(t.Completed)
}

// SubjectRef implements Referencer.
func (t Task) SubjectRef() SubjectRef {
	return SubjectRef{Kind: KindTask, Title: t.Title}
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGNMENT
// ══════════════════════════════════════════════════════════════════════════════

// Assignment is graded coursework keyed by course.
type Assignment struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Course  string `json:"course"`
	Status  string `json:"status"`
	DueDate string `json:"dueDate,omitempty"`
}

// CompletionStatus returns the normalized status.
func (a Assignment) CompletionStatus() progress.Status {
	return progress.ParseStatus(a.Status)
}

// SubjectRef implements Referencer.
func (a Assignment) SubjectRef() SubjectRef {
	return SubjectRef{Kind: KindAssignment, Course: a.Course}
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY TASK
// ══════════════════════════════════════════════════════════════════════════════

// StudyTask is a study-planner item. HasSubtasks mirrors whether any Subtask
// points at it.
type StudyTask struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Subject         string   `json:"subject,omitempty"`
	Course          string   `json:"course,omitempty"`
	Status          string   `json:"status"`
	IsAssignment    bool     `json:"isAssignment"`
	LinkedResources []string `json:"linkedResources"`
	HasSubtasks     bool     `json:"hasSubtasks"`
}

// CompletionStatus returns the normalized status.
func (s StudyTask) CompletionStatus() progress.Status {
	return progress.ParseStatus(s.Status)
}

// SubjectRef implements Referencer.
func (s StudyTask) SubjectRef() SubjectRef {
	return SubjectRef{Kind: KindStudyTask, Subject: s.Subject, Course: s.Course, Title: s.Title}
}

// Subtask belongs to exactly one StudyTask.
type Subtask struct {
	ID        string `json:"id"`
	ParentID  string `json:"parentId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Validate checks the fields a new subtask must carry.
func (s Subtask) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return shared.ErrEmptyTitle
	}
	if strings.TrimSpace(s.ParentID) == "" {
		return shared.ErrOrphanSubtask
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE, RESOURCE, TIME SLOT
// ══════════════════════════════════════════════════════════════════════════════

// Grade is one scored result for a course.
type Grade struct {
	ID       string  `json:"id"`
	Course   string  `json:"course"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
}

// Percentage returns score/maxScore*100, and false when maxScore is not positive.
func (g Grade) Percentage() (float64, bool) {
	if g.MaxScore <= 0 {
		return 0, false
	}
	return g.Score / g.MaxScore * 100, true
}

// SubjectRef implements Referencer.
func (g Grade) SubjectRef() SubjectRef {
	return SubjectRef{Kind: KindGrade, Course: g.Course}
}

// Resource is a study link or file. Category is the subject key.
type Resource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	IsPDF    bool   `json:"isPdf"`
	URL      string `json:"url"`
}

// SubjectRef implements Referencer.
func (r Resource) SubjectRef() SubjectRef {
	return SubjectRef{Kind: KindResource, Title: r.Title, Category: r.Category}
}

// TimeSlot is a scheduled calendar block. It is matched to subjects by text,
// not by a subject field.
type TimeSlot struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Minutes returns the slot's duration; see DurationMinutes.
func (t TimeSlot) Minutes() int {
	return DurationMinutes(t.Start, t.End)
}

// Mentions reports whether title or description contains subject, ignoring case.
func (t TimeSlot) Mentions(subject string) bool {
	if subject == "" {
		return false
	}
	needle := strings.ToLower(subject)
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Collections is a read-only snapshot of every source the aggregator joins.
type Collections struct {
	Tasks       []Task
	Assignments []Assignment
	StudyTasks  []StudyTask
	Subtasks    []Subtask
	Grades      []Grade
	Resources   []Resource
	TimeSlots   []TimeSlot
}

// SubtasksOf returns the subtasks whose parent is parentID.
func (c Collections) SubtasksOf(parentID string) []Subtask {
	var out []Subtask
	for _, s := range c.Subtasks {
		if s.ParentID == parentID {
			out = append(out, s)
		}
	}
	return out
}
