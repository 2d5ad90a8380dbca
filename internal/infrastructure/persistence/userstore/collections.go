// Package userstore is the typed adapter between the domain and a flat
// kv.Backend. It owns key naming, JSON (de)serialization and default
// substitution for every collection a user has.
package userstore

import (
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
)

// Collection names one persisted record.
type Collection string

// Per-user collections, stored as user_<id>_<name>.
const (
	Settings    Collection = "settings"
	Todos       Collection = "todos"
	Assignments Collection = "assignments"
	Habits      Collection = "habits"
	Goals       Collection = "goals"
	Grades      Collection = "grades"
	Journal     Collection = "journal"
	Wishlist    Collection = "wishlist"
	Reading     Collection = "reading"
	Finance     Collection = "finance"
	Analytics   Collection = "analytics"

	XP               Collection = "xp"
	Level            Collection = "level"
	Tasks            Collection = "tasks"
	Resources        Collection = "resources"
	ReadingList      Collection = "reading_list"
	Journals         Collection = "journals"
	Tests            Collection = "tests"
	PomodoroSessions Collection = "pomodoro_sessions"
	TimeSlots        Collection = "time_slots"
	DarkMode         Collection = "dark_mode"
)

// Study-planner collections live under their own namespace, not under a user prefix.
const (
	StudyTasks        Collection = "study_planner:tasks"
	StudySubtasks     Collection = "study_planner:subtasks"
	StudyPlannerSlots Collection = "study_planner:time_slots"
)

// collectionInfo describes one collection: whether it is user-prefixed and its default.
type collectionInfo struct {
	global  bool
	initial string
}

var registry = map[Collection]collectionInfo{
	Settings:    {initial: `{}`},
	Todos:       {initial: `[]`},
	Assignments: {initial: `[]`},
	Habits:      {initial: `[]`},
	Goals:       {initial: `[]`},
	Grades:      {initial: `[]`},
	Journal:     {initial: `[]`},
	Wishlist:    {initial: `[]`},
	Reading:     {initial: `[]`},
	Finance:     {initial: `[]`},
	Analytics:   {initial: `{}`},

	XP:               {initial: `0`},
	Level:            {initial: `1`},
	Tasks:            {initial: `[]`},
	Resources:        {initial: `[]`},
	ReadingList:      {initial: `[]`},
	Journals:         {initial: `[]`},
	Tests:            {initial: `[]`},
	PomodoroSessions: {initial: `[]`},
	TimeSlots:        {initial: `[]`},
	DarkMode:         {initial: `false`},

	StudyTasks:        {global: true, initial: `[]`},
	StudySubtasks:     {global: true, initial: `[]`},
	StudyPlannerSlots: {global: true, initial: `[]`},
}

// All returns every known collection in a stable order: per-user first,
// then the study-planner namespace.
func All() []Collection {
	return []Collection{
		Settings, Todos, Assignments, Habits, Goals, Grades, Journal, Wishlist,
		Reading, Finance, Analytics,
		XP, Level, Tasks, Resources, ReadingList, Journals, Tests,
		PomodoroSessions, TimeSlots, DarkMode,
		StudyTasks, StudySubtasks, StudyPlannerSlots,
	}
}

// Parse resolves a collection name.
func Parse(name string) (Collection, error) {
	c := Collection(name)
	if _, ok := registry[c]; !ok {
		return "", shared.WrapError("userstore", "Parse", shared.ErrInvalidInput, "unknown collection "+name, shared.ErrUnknownCollection)
	}
	return c, nil
}

// IsGlobal reports whether c is stored without a user prefix.
func (c Collection) IsGlobal() bool {
	return registry[c].global
}

// Default returns the JSON stored for a fresh or unreadable collection.
func (c Collection) Default() string {
	if s, ok := registry[c]; ok {
		return s.initial
	}
	return `null`
}

// Key returns the backend key for c. Global collections ignore the user.
func Key(userID shared.UserID, c Collection) string {
	if c.IsGlobal() {
		return string(c)
	}
	return "user_" + string(userID) + "_" + string(c)
}

// UserPrefix returns the prefix shared by all of a user's per-user keys.
func UserPrefix(userID shared.UserID) string {
	return "user_" + string(userID) + "_"
}
