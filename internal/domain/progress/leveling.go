// Package progress contains the leveling engine: experience points, levels and
// the rule that turns completion transitions into XP deltas.
// Pure domain code, no external dependencies.
package progress

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XPPerLevel is the width of every level band.
const XPPerLevel = 100

// DefaultCompletionXP is awarded for each item that transitions into completed.
const DefaultCompletionXP = 10

// XP represents a user's experience points. Valid values are non-negative.
type XP int

// IsValid checks that XP is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds a non-negative amount.
func (x XP) Add(amount int) XP {
	return x + XP(amount)
}

// Subtract removes an amount, floored at 0.
func (x XP) Subtract(amount int) XP {
	result := x - XP(amount)
	if result < 0 {
		return 0
	}
	return result
}

// Level represents the tier derived from XP. Levels start at 1.
type Level int

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// RequiredXP returns the XP at which this level begins.
func (l Level) RequiredXP() XP {
	if l <= 1 {
		return 0
	}
	return XP(int(l-1) * XPPerLevel)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL COMPUTATION
// ══════════════════════════════════════════════════════════════════════════════

// CalculateLevel returns floor(xp/100)+1. Negative input is treated as 0.
func CalculateLevel(xp XP) Level {
	if xp < 0 {
		xp = 0
	}
	return Level(int(xp)/XPPerLevel + 1)
}

// ComputeLevel returns the level for xp and the fraction of the current level
// band already earned. The fraction is always in [0, 1).
func ComputeLevel(xp XP) (Level, float64) {
	if xp < 0 {
		xp = 0
	}
	level := CalculateLevel(xp)
	into := int(xp - level.RequiredXP())
	return level, float64(into) / float64(XPPerLevel)
}

// XPToNextLevel returns how many points are missing to reach the next level.
func XPToNextLevel(xp XP) int {
	level := CalculateLevel(xp)
	return int((level + 1).RequiredXP() - xp)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the normalized completion state of a tracked item.
type Status string

const (
	// StatusNotStarted - work has not begun.
	StatusNotStarted Status = "not-started"
	// StatusInProgress - work has begun but is not finished.
	StatusInProgress Status = "in-progress"
	// StatusCompleted - the item is done and has earned XP.
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsCompleted reports whether the status counts as completed.
func (s Status) IsCompleted() bool {
	return s == StatusCompleted
}

// ParseStatus normalizes free-form status strings. Unknown values fall back
// to StatusNotStarted so they never count as completed.
func ParseStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "notstarted", "not_started", "todo", "":
		return StatusNotStarted
	case "inprogress", "in_progress":
		return StatusInProgress
	case "done", "complete":
		return StatusCompleted
	}
	if s.IsValid() {
		return s
	}
	return StatusNotStarted
}

// StatusFromBool maps a boolean completed flag onto a Status.
func StatusFromBool(completed bool) Status {
	if completed {
		return StatusCompleted
	}
	return StatusNotStarted
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD RULE
// ══════════════════════════════════════════════════════════════════════════════

// Rule decides how much XP a completion transition is worth.
type Rule struct {
	// CompletionXP is awarded on entering completed and clawed back on leaving it.
	CompletionXP int
}

// DefaultRule returns the rule with DefaultCompletionXP.
func DefaultRule() Rule {
	return Rule{CompletionXP: DefaultCompletionXP}
}

// NewRule returns a rule for amount, falling back to the default for
// non-positive amounts.
func NewRule(amount int) Rule {
	if amount <= 0 {
		return DefaultRule()
	}
	return Rule{CompletionXP: amount}
}

// ApplyCompletionDelta returns the signed XP delta for a status transition.
// Re-saving a completed item as completed is a no-op.
func (r Rule) ApplyCompletionDelta(previous, next Status) int {
	wasDone := previous.IsCompleted()
	isDone := next.IsCompleted()

	switch {
	case !wasDone && isDone:
		return r.CompletionXP
	case wasDone && !isDone:
		return -r.CompletionXP
	default:
		return 0
	}
}

// ApplyCompletionDelta uses DefaultRule.
func ApplyCompletionDelta(previous, next Status) int {
	return DefaultRule().ApplyCompletionDelta(previous, next)
}
