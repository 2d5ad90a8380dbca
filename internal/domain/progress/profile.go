package progress

import (
	"fmt"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile is a user's gamified progress. Level is always derived from XP.
type Profile struct {
	// UserID - owner of the profile.
	UserID string

	// XP - accumulated experience, never negative.
	XP XP
}

// NewProfile creates a profile. Negative starting XP is clamped to 0.
func NewProfile(userID string, xp XP) *Profile {
	if xp < 0 {
		xp = 0
	}
	return &Profile{UserID: userID, XP: xp}
}

// Level returns the current level.
func (p *Profile) Level() Level {
	return CalculateLevel(p.XP)
}

// Progress returns the fraction of the current level already earned.
func (p *Profile) Progress() float64 {
	_, fraction := ComputeLevel(p.XP)
	return fraction
}

// Award adds amount XP. Negative amounts are rejected and leave the profile
// untouched. A level-up event is returned when a boundary is crossed upward.
func (p *Profile) Award(amount int) ([]shared.Event, error) {
	if amount < 0 {
		return nil, ErrInvalidDelta(amount)
	}
	if amount == 0 {
		return nil, nil
	}

	oldLevel := p.Level()
	p.XP = p.XP.Add(amount)
	newLevel := p.Level()

	events := []shared.Event{
		shared.NewXPChangedEvent(p.UserID, amount, p.XP.Int(), "", ""),
	}
	if newLevel > oldLevel {
		events = append(events, shared.NewLevelUpEvent(p.UserID, oldLevel.Int(), newLevel.Int(), p.XP.Int()))
	}
	return events, nil
}

// Revoke claws back amount XP, never dropping below 0. Negative amounts are
// rejected. Levels may go down; no event is raised for that.
func (p *Profile) Revoke(amount int) ([]shared.Event, error) {
	if amount < 0 {
		return nil, ErrInvalidDelta(amount)
	}
	if amount == 0 {
		return nil, nil
	}

	before := p.XP
	p.XP = p.XP.Subtract(amount)
	applied := int(p.XP - before)

	return []shared.Event{
		shared.NewXPChangedEvent(p.UserID, applied, p.XP.Int(), "", ""),
	}, nil
}

// ApplyDelta routes a signed delta from Rule.ApplyCompletionDelta to Award or Revoke.
func (p *Profile) ApplyDelta(delta int) ([]shared.Event, error) {
	if delta >= 0 {
		return p.Award(delta)
	}
	return p.Revoke(-delta)
}

// String returns a string representation for logging.
func (p *Profile) String() string {
	return fmt.Sprintf("Profile{UserID: %s, XP: %d, Level: %d}", p.UserID, p.XP, p.Level())
}

// ErrInvalidDelta wraps shared.ErrInvalidXPDelta with the offending amount.
func ErrInvalidDelta(amount int) error {
	return shared.WrapError("progress", "Apply", shared.ErrNegativeValue,
		fmt.Sprintf("rejected xp amount %d", amount), shared.ErrInvalidXPDelta)
}
