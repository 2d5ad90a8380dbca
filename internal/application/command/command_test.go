package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/messaging"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/kv"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

const uid = shared.UserID("alice")

// faultyBackend fails the next read or write of chosen keys once per
// scheduled fault.
type faultyBackend struct {
	*kv.Memory
	failGet map[string]int
	failSet map[string]int
}

var errInjected = errors.New("connection reset")

func (b *faultyBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.failGet[key] > 0 {
		b.failGet[key]--
		return "", false, errInjected
	}
	return b.Memory.Get(ctx, key)
}

func (b *faultyBackend) Set(ctx context.Context, key, value string) error {
	if b.failSet[key] > 0 {
		b.failSet[key]--
		return errInjected
	}
	return b.Memory.Set(ctx, key, value)
}

type fixture struct {
	ctx     context.Context
	backend *faultyBackend
	store   *userstore.Store
	handler *Handler
	events  []shared.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), backend: &faultyBackend{
		Memory:  kv.NewMemory(),
		failGet: map[string]int{},
		failSet: map[string]int{},
	}}
	f.store = userstore.New(f.backend, logger.Discard())

	cfg := messaging.DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.Discard()
	bus := messaging.NewInMemoryEventBus(cfg)
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		f.events = append(f.events, e)
		return nil
	}))

	n := 0
	f.handler = NewHandler(f.store, bus, HandlerConfig{
		Logger: logger.Discard(),
		NewID: func() string {
			n++
			return fmt.Sprintf("sub-%d", n)
		},
	})
	return f
}

func (f *fixture) xp() int {
	return f.store.LoadProfile(f.ctx, uid).XP.Int()
}

func (f *fixture) eventTypes() []shared.EventType {
	out := make([]shared.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType())
	}
	return out
}

func TestInitUser_SeedsOnce(t *testing.T) {
	f := newFixture(t)

	res, err := f.handler.InitUser(f.ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, len(userstore.All()), res.Seeded)
	assert.False(t, res.Existing)
	assert.Equal(t, 0, f.xp())

	res, err = f.handler.InitUser(f.ctx, uid)
	require.NoError(t, err)
	assert.True(t, res.Existing)

	_, err = f.handler.InitUser(f.ctx, "")
	assert.ErrorIs(t, err, shared.ErrEmptyUserID)
}

func TestSetAssignmentStatus_NoDoubleAward(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Assignments, []study.Assignment{
		{ID: "a1", Course: "Math", Status: "not-started"},
	}))

	res, err := f.handler.SetAssignmentStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "a1", Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, progress.DefaultCompletionXP, res.XPDelta)
	assert.Equal(t, 10, f.xp())

	res, err = f.handler.SetAssignmentStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "a1", Status: "completed"})
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, 10, f.xp())

	stored := userstore.LoadList[study.Assignment](f.ctx, f.store, uid, userstore.Assignments)
	assert.Equal(t, "completed", stored[0].Status)
}

func TestSetTaskCompleted_RoundTripRestoresXP(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Put(f.ctx, uid, userstore.XP, 95))
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Tasks, []study.Task{{ID: "t1", Title: "Math: ch1"}}))

	res, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 105, res.XP)
	assert.Equal(t, 2, res.Level)
	require.Len(t, res.LevelUps, 1)
	assert.Equal(t, 1, res.LevelUps[0].OldLevel)
	assert.Equal(t, 2, res.LevelUps[0].NewLevel)
	assert.Equal(t, []shared.EventType{shared.EventItemCompleted, shared.EventXPChanged, shared.EventLevelUp}, f.eventTypes())

	xpEvent, ok := f.events[1].(shared.XPChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "tasks", xpEvent.Source)
	assert.Equal(t, "t1", xpEvent.ItemID)

	res, err = f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: false})
	require.NoError(t, err)
	assert.Equal(t, -10, res.XPDelta)
	assert.Equal(t, 95, f.xp())
	assert.Equal(t, 1, userstore.Load[int](f.ctx, f.store, uid, userstore.Level))
}

func TestSetStudyTaskStatus_ClawBackClamps(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.StudyTasks, []study.StudyTask{
		{ID: "s1", Subject: "Bio", Status: "completed"},
	}))

	res, err := f.handler.SetStudyTaskStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "s1", Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.XPDelta)
	assert.Equal(t, progress.StatusInProgress, res.Current)
	assert.Equal(t, 0, f.xp())
}

func TestCompletion_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "nope", Completed: true})
	assert.ErrorIs(t, err, shared.ErrTaskNotFound)

	_, err = f.handler.SetAssignmentStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "nope", Status: "done"})
	assert.ErrorIs(t, err, shared.ErrAssignmentNotFound)

	_, err = f.handler.SetStudyTaskStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "nope", Status: "done"})
	assert.ErrorIs(t, err, shared.ErrStudyTaskNotFound)

	_, err = f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid})
	assert.Error(t, err)
	assert.Equal(t, 0, f.xp())
}

func TestSubtasks_HasSubtasksTracksChildren(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.StudyTasks, []study.StudyTask{{ID: "s1", Subject: "Math"}}))

	_, err := f.handler.AddSubtask(f.ctx, AddSubtaskCommand{UserID: uid, ParentID: "missing", Title: "x"})
	assert.ErrorIs(t, err, shared.ErrOrphanSubtask)
	_, err = f.handler.AddSubtask(f.ctx, AddSubtaskCommand{UserID: uid, ParentID: "s1", Title: "  "})
	assert.ErrorIs(t, err, shared.ErrEmptyTitle)

	first, err := f.handler.AddSubtask(f.ctx, AddSubtaskCommand{UserID: uid, ParentID: "s1", Title: " read ch1 "})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", first.ID)
	assert.Equal(t, "read ch1", first.Title)
	second, err := f.handler.AddSubtask(f.ctx, AddSubtaskCommand{UserID: uid, ParentID: "s1", Title: "exercises"})
	require.NoError(t, err)

	parent := func() study.StudyTask {
		return userstore.LoadList[study.StudyTask](f.ctx, f.store, uid, userstore.StudyTasks)[0]
	}
	assert.True(t, parent().HasSubtasks)

	done, err := f.handler.SetSubtaskCompleted(f.ctx, SetSubtaskCompletedCommand{UserID: uid, SubtaskID: first.ID, Completed: true})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, 0, f.xp())

	require.NoError(t, f.handler.DeleteSubtask(f.ctx, DeleteSubtaskCommand{UserID: uid, SubtaskID: first.ID}))
	assert.True(t, parent().HasSubtasks)
	require.NoError(t, f.handler.DeleteSubtask(f.ctx, DeleteSubtaskCommand{UserID: uid, SubtaskID: second.ID}))
	assert.False(t, parent().HasSubtasks)

	assert.ErrorIs(t, f.handler.DeleteSubtask(f.ctx, DeleteSubtaskCommand{UserID: uid, SubtaskID: second.ID}), shared.ErrSubtaskNotFound)
}

func TestDeleteStudyTask_Cascades(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.StudyTasks, []study.StudyTask{
		{ID: "s1", Subject: "Math", HasSubtasks: true},
		{ID: "s2", Subject: "Bio", HasSubtasks: true},
	}))
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.StudySubtasks, []study.Subtask{
		{ID: "x1", ParentID: "s1", Title: "a"},
		{ID: "x2", ParentID: "s2", Title: "b"},
		{ID: "x3", ParentID: "s1", Title: "c"},
	}))

	res, err := f.handler.DeleteStudyTask(f.ctx, DeleteStudyTaskCommand{UserID: uid, StudyTaskID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SubtasksRemoved)

	tasks := userstore.LoadList[study.StudyTask](f.ctx, f.store, uid, userstore.StudyTasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "s2", tasks[0].ID)

	subs := userstore.LoadList[study.Subtask](f.ctx, f.store, uid, userstore.StudySubtasks)
	require.Len(t, subs, 1)
	assert.Equal(t, "x2", subs[0].ID)

	assert.Contains(t, f.eventTypes(), shared.EventStudyTaskPurged)

	_, err = f.handler.DeleteStudyTask(f.ctx, DeleteStudyTaskCommand{UserID: uid, StudyTaskID: "s1"})
	assert.ErrorIs(t, err, shared.ErrStudyTaskNotFound)
}

func TestDeleteEntity_MatchesEqualID(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Grades, []study.Grade{
		{ID: "g1", Course: "Math", Score: 90, MaxScore: 100},
		{ID: "g2", Course: "Math", Score: 70, MaxScore: 100},
	}))

	require.NoError(t, f.handler.DeleteEntity(f.ctx, DeleteEntityCommand{UserID: uid, Collection: userstore.Grades, ID: "g1"}))
	grades := userstore.LoadList[study.Grade](f.ctx, f.store, uid, userstore.Grades)
	require.Len(t, grades, 1)
	assert.Equal(t, "g2", grades[0].ID)

	err := f.handler.DeleteEntity(f.ctx, DeleteEntityCommand{UserID: uid, Collection: userstore.Grades, ID: "g1"})
	assert.True(t, shared.IsNotFound(err))

	err = f.handler.DeleteEntity(f.ctx, DeleteEntityCommand{UserID: uid, Collection: userstore.Settings, ID: "x"})
	assert.ErrorIs(t, err, shared.ErrUnknownCollection)
}

func TestDeleteEntity_KeepsEarnedXP(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Tasks, []study.Task{{ID: "t1", Title: "x"}}))
	_, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: true})
	require.NoError(t, err)

	require.NoError(t, f.handler.DeleteEntity(f.ctx, DeleteEntityCommand{UserID: uid, Collection: userstore.Tasks, ID: "t1"}))
	assert.Equal(t, 10, f.xp())
	assert.Empty(t, userstore.LoadList[study.Task](f.ctx, f.store, uid, userstore.Tasks))
}

func TestPurgeUser_RemovesAllKeys(t *testing.T) {
	f := newFixture(t)
	_, err := f.handler.InitUser(f.ctx, uid)
	require.NoError(t, err)
	require.NotZero(t, f.backend.Len())

	removed, err := f.handler.PurgeUser(f.ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, len(userstore.All()), removed)
	assert.Zero(t, f.backend.Len())
	assert.Contains(t, f.eventTypes(), shared.EventUserPurged)
}

func TestCommands_ReadFailureLeavesDataIntact(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Put(f.ctx, uid, userstore.XP, 250))
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Tasks, []study.Task{{ID: "t1", Title: "Math: ch1"}}))
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.StudyTasks, []study.StudyTask{{ID: "s1", Subject: "Bio"}}))
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.StudySubtasks, []study.Subtask{
		{ID: "a", ParentID: "s1", Title: "one"},
		{ID: "b", ParentID: "s1", Title: "two"},
	}))

	f.backend.failGet[userstore.Key(uid, userstore.XP)] = 1
	_, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: true})
	assert.ErrorIs(t, err, shared.ErrBackendFailed)
	assert.Equal(t, 250, f.xp())
	assert.False(t, userstore.LoadList[study.Task](f.ctx, f.store, uid, userstore.Tasks)[0].Completed)

	res, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 260, res.XP)

	subtasksKey := userstore.Key(uid, userstore.StudySubtasks)
	f.backend.failGet[subtasksKey] = 1
	_, err = f.handler.AddSubtask(f.ctx, AddSubtaskCommand{UserID: uid, ParentID: "s1", Title: "three"})
	assert.ErrorIs(t, err, shared.ErrBackendFailed)
	assert.Len(t, userstore.LoadList[study.Subtask](f.ctx, f.store, uid, userstore.StudySubtasks), 2)

	_, err = f.handler.AddSubtask(f.ctx, AddSubtaskCommand{UserID: uid, ParentID: "s1", Title: "three"})
	require.NoError(t, err)
	assert.Len(t, userstore.LoadList[study.Subtask](f.ctx, f.store, uid, userstore.StudySubtasks), 3)

	f.backend.failGet[subtasksKey] = 1
	assert.ErrorIs(t, f.handler.DeleteSubtask(f.ctx, DeleteSubtaskCommand{UserID: uid, SubtaskID: "a"}), shared.ErrBackendFailed)
	f.backend.failGet[userstore.Key(uid, userstore.StudyTasks)] = 1
	_, err = f.handler.DeleteStudyTask(f.ctx, DeleteStudyTaskCommand{UserID: uid, StudyTaskID: "s1"})
	assert.ErrorIs(t, err, shared.ErrBackendFailed)
	f.backend.failGet[userstore.Key(uid, userstore.Tasks)] = 1
	err = f.handler.DeleteEntity(f.ctx, DeleteEntityCommand{UserID: uid, Collection: userstore.Tasks, ID: "t1"})
	assert.ErrorIs(t, err, shared.ErrBackendFailed)

	assert.Len(t, userstore.LoadList[study.Subtask](f.ctx, f.store, uid, userstore.StudySubtasks), 3)
	assert.Len(t, userstore.LoadList[study.StudyTask](f.ctx, f.store, uid, userstore.StudyTasks), 1)
	assert.Len(t, userstore.LoadList[study.Task](f.ctx, f.store, uid, userstore.Tasks), 1)
}

func TestCompletion_ProfileWriteFailureRestoresItem(t *testing.T) {
	f := newFixture(t)
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Tasks, []study.Task{{ID: "t1", Title: "Math: ch1"}}))
	require.True(t, userstore.Save(f.ctx, f.store, uid, userstore.Assignments, []study.Assignment{
		{ID: "a1", Course: "Math", Status: "completed"},
	}))
	require.NoError(t, f.store.Put(f.ctx, uid, userstore.XP, 30))
	xpKey := userstore.Key(uid, userstore.XP)

	f.backend.failSet[xpKey] = 1
	_, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: true})
	assert.ErrorIs(t, err, shared.ErrBackendFailed)
	assert.False(t, userstore.LoadList[study.Task](f.ctx, f.store, uid, userstore.Tasks)[0].Completed)
	assert.Equal(t, 30, f.xp())
	assert.Empty(t, f.events)

	res, err := f.handler.SetTaskCompleted(f.ctx, SetTaskCompletedCommand{UserID: uid, TaskID: "t1", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 10, res.XPDelta)
	assert.Equal(t, 40, f.xp())

	f.backend.failSet[xpKey] = 1
	_, err = f.handler.SetAssignmentStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "a1", Status: "in-progress"})
	assert.ErrorIs(t, err, shared.ErrBackendFailed)
	assert.Equal(t, "completed", userstore.LoadList[study.Assignment](f.ctx, f.store, uid, userstore.Assignments)[0].Status)

	res, err = f.handler.SetAssignmentStatus(f.ctx, SetStatusCommand{UserID: uid, ItemID: "a1", Status: "in-progress"})
	require.NoError(t, err)
	assert.Equal(t, -10, res.XPDelta)
	assert.Equal(t, 30, f.xp())
}
