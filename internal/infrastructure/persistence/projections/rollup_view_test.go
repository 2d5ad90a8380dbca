package projections

import (
	"context"
	"testing"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/kv"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uid = shared.UserID("u1")

func TestRollupView_MemoizesOnVersion(t *testing.T) {
	ctx := context.Background()
	store := userstore.New(kv.NewMemory(), nil)
	view := NewRollupView(store, nil)

	require.True(t, userstore.Save(ctx, store, uid, userstore.Grades, []study.Grade{
		{ID: "g1", Course: "Math", Score: 90, MaxScore: 100},
		{ID: "g2", Course: "Math", Score: 70, MaxScore: 100},
	}))

	first := view.Rollups(ctx, uid)
	second := view.Rollups(ctx, uid)
	assert.Equal(t, first, second)
	assert.Equal(t, ViewStats{Users: 1, Hits: 1, Misses: 1}, view.Stats())

	require.Len(t, first, 1)
	assert.Equal(t, 80, first[0].AverageGrade)

	require.True(t, userstore.Save(ctx, store, uid, userstore.Grades, []study.Grade{}))
	assert.Empty(t, view.Rollups(ctx, uid))
	assert.Equal(t, int64(2), view.Stats().Misses)
}

func TestRollupView_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := userstore.New(kv.NewMemory(), nil)
	view := NewRollupView(store, nil)
	require.True(t, userstore.Save(ctx, store, uid, userstore.Resources, []study.Resource{{Category: "Art"}, {Category: "Bio"}}))

	got := view.Rollups(ctx, uid)
	got[0], got[1] = got[1], got[0]

	again := view.Rollups(ctx, uid)
	assert.Equal(t, "Art", again[0].Subject)
}

func TestRollupView_InvalidatedOnPurge(t *testing.T) {
	ctx := context.Background()
	store := userstore.New(kv.NewMemory(), nil)
	view := NewRollupView(store, nil)

	view.Rollups(ctx, uid)
	_, cached := view.LastUpdated(uid)
	assert.True(t, cached)

	require.NoError(t, view.HandleEvent(shared.NewUserPurgedEvent(uid.String(), 3)))
	_, cached = view.LastUpdated(uid)
	assert.False(t, cached)

	require.NoError(t, view.HandleEvent(shared.NewLevelUpEvent(uid.String(), 1, 2, 100)))
}
