// Package projections implements read models derived from the user store.
// Projections are never persisted; they are rebuilt from source collections
// and cached in memory keyed on source versions.
package projections

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/analytics"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLUP VIEW - Memoized Subject Rollups
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotSource is the part of userstore.Store the view needs.
type SnapshotSource interface {
	SnapshotVersion(userID shared.UserID) userstore.SnapshotVersion
	Snapshot(ctx context.Context, userID shared.UserID) study.Collections
}

// RollupView caches the last computed rollups per user. An entry is reused
// only while the composite source version is unchanged.
type RollupView struct {
	mu      sync.Mutex
	source  SnapshotSource
	entries map[shared.UserID]*rollupEntry
	logger  *slog.Logger

	hits   int64
	misses int64
}

type rollupEntry struct {
	version     userstore.SnapshotVersion
	rollups     []analytics.SubjectRollup
	lastUpdated time.Time
}

// ViewStats reports cache effectiveness.
type ViewStats struct {
	Users  int   `json:"users"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewRollupView creates an empty view over source.
func NewRollupView(source SnapshotSource, log *slog.Logger) *RollupView {
	return &RollupView{
		source:  source,
		entries: make(map[shared.UserID]*rollupEntry),
		logger:  logger.OrDiscard(log).With(logger.Component("rollup_view")),
	}
}

// Rollups returns the rollups for userID sorted by subject. The returned
// slice is a copy; callers may reorder it.
func (v *RollupView) Rollups(ctx context.Context, userID shared.UserID) []analytics.SubjectRollup {
	version := v.source.SnapshotVersion(userID)

	v.mu.Lock()
	if e, ok := v.entries[userID]; ok && e.version == version {
		v.hits++
		out := clone(e.rollups)
		v.mu.Unlock()
		return out
	}
	v.misses++
	v.mu.Unlock()

	start := time.Now()
	rollups := analytics.BuildRollups(v.source.Snapshot(ctx, userID))
	v.logger.Debug("rollups rebuilt",
		logger.UserID(userID.String()),
		slog.Int("subjects", len(rollups)),
		logger.Latency(time.Since(start)),
	)

	v.mu.Lock()
	v.entries[userID] = &rollupEntry{version: version, rollups: rollups, lastUpdated: time.Now().UTC()}
	v.mu.Unlock()

	return clone(rollups)
}

// Invalidate drops the cached entry for userID.
func (v *RollupView) Invalidate(userID shared.UserID) {
	v.mu.Lock()
	delete(v.entries, userID)
	v.mu.Unlock()
}

// LastUpdated returns when the entry for userID was built, if cached.
func (v *RollupView) LastUpdated(userID shared.UserID) (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[userID]
	if !ok {
		return time.Time{}, false
	}
	return e.lastUpdated, true
}

// Stats returns a copy of the counters.
func (v *RollupView) Stats() ViewStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewStats{Users: len(v.entries), Hits: v.hits, Misses: v.misses}
}

// HandleEvent drops cached rollups when a user is purged. It is meant to be
// registered on the event bus.
func (v *RollupView) HandleEvent(event shared.Event) error {
	if event.EventType() == shared.EventUserPurged {
		v.Invalidate(shared.UserID(event.AggregateID()))
	}
	return nil
}

func clone(in []analytics.SubjectRollup) []analytics.SubjectRollup {
	out := make([]analytics.SubjectRollup, len(in))
	copy(out, in)
	return out
}
