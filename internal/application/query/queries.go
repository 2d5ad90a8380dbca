// Package query contains read operations (CQRS - Queries).
// Queries never fail on derived state: missing or malformed collections
// degrade to empty results.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/analytics"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/projections"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// Handler answers read queries from the user store and the rollup view.
type Handler struct {
	store *userstore.Store
	view  *projections.RollupView
}

// NewHandler creates a new query Handler.
func NewHandler(store *userstore.Store, view *projections.RollupView) *Handler {
	return &Handler{store: store, view: view}
}

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileDTO is the gamified progress of one user.
type ProfileDTO struct {
	UserID        string  `json:"user_id"`
	XP            int     `json:"xp"`
	Level         int     `json:"level"`
	Progress      float64 `json:"progress"`
	XPToNextLevel int     `json:"xp_to_next_level"`
}

// GetProfile returns xp, level and the intra-level progress fraction.
func (h *Handler) GetProfile(ctx context.Context, userID shared.UserID) (*ProfileDTO, error) {
	if userID.IsZero() {
		return nil, shared.ErrEmptyUserID
	}

	p := h.store.LoadProfile(ctx, userID)
	level, fraction := progress.ComputeLevel(p.XP)
	return &ProfileDTO{
		UserID:        userID.String(),
		XP:            p.XP.Int(),
		Level:         level.Int(),
		Progress:      fraction,
		XPToNextLevel: progress.XPToNextLevel(p.XP),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET SUBJECT ROLLUPS
// ══════════════════════════════════════════════════════════════════════════════

// GetSubjectRollupsQuery selects the order of the result.
type GetSubjectRollupsQuery struct {
	UserID shared.UserID

	// SortByXP orders by total XP descending instead of by subject.
	SortByXP bool
}

// SubjectRollupsDTO wraps the rollups with view metadata.
type SubjectRollupsDTO struct {
	UserID   string                    `json:"user_id"`
	Subjects []analytics.SubjectRollup `json:"subjects"`
	BuiltAt  time.Time                 `json:"built_at"`
}

// GetSubjectRollups returns one rollup per referenced subject.
func (h *Handler) GetSubjectRollups(ctx context.Context, q GetSubjectRollupsQuery) (*SubjectRollupsDTO, error) {
	if q.UserID.IsZero() {
		return nil, shared.ErrEmptyUserID
	}

	rollups := h.view.Rollups(ctx, q.UserID)
	if q.SortByXP {
		rollups = analytics.SortByXP(rollups)
	}
	built, _ := h.view.LastUpdated(q.UserID)

	return &SubjectRollupsDTO{
		UserID:   q.UserID.String(),
		Subjects: rollups,
		BuiltAt:  built,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET SUBJECT REPORT
// ══════════════════════════════════════════════════════════════════════════════

// SubjectReportDTO is a rollup plus the guidance derived from it.
type SubjectReportDTO struct {
	Rollup          analytics.SubjectRollup `json:"rollup"`
	CompletionRates map[string]float64      `json:"completion_rates"`
	Recommendations []string                `json:"recommendations"`
}

// GetSubjectReport looks a subject up by its exact key, case-insensitively
// when no exact match exists.
func (h *Handler) GetSubjectReport(ctx context.Context, userID shared.UserID, subject string) (*SubjectReportDTO, error) {
	if userID.IsZero() {
		return nil, shared.ErrEmptyUserID
	}
	subject = strings.TrimSpace(subject)

	rollups := h.view.Rollups(ctx, userID)
	r, ok := analytics.Find(rollups, subject)
	if !ok {
		for _, candidate := range rollups {
			if strings.EqualFold(candidate.Subject, subject) {
				r, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return nil, shared.NewDomainError("query", "GetSubjectReport", shared.ErrNotFound,
			fmt.Sprintf("no data for subject %q", subject))
	}

	return &SubjectReportDTO{
		Rollup: r,
		CompletionRates: map[string]float64{
			"tasks":       r.Tasks.CompletionRate(),
			"assignments": r.Assignments.CompletionRate(),
			"study_tasks": r.StudyTasks.CompletionRate(),
		},
		Recommendations: analytics.Synthesize(r),
	}, nil
}
