package userstore

import (
	"context"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
)

// SourceCollections are the collections the subject aggregator reads.
var SourceCollections = [...]Collection{
	Tasks, Assignments, StudyTasks, StudySubtasks, Grades, Resources, StudyPlannerSlots,
}

// SnapshotVersion is the composite of the write counters of every source
// collection. Equal versions mean an unchanged snapshot within this process.
type SnapshotVersion [len(SourceCollections)]uint64

// SnapshotVersion returns the current composite version for userID.
func (s *Store) SnapshotVersion(userID shared.UserID) SnapshotVersion {
	var v SnapshotVersion
	for i, c := range SourceCollections {
		v[i] = s.Version(userID, c)
	}
	return v
}

// Snapshot loads every source collection. Time slots come from the study
// planner namespace, which is where scheduled study blocks are written.
func (s *Store) Snapshot(ctx context.Context, userID shared.UserID) study.Collections {
	return study.Collections{
		Tasks:       LoadList[study.Task](ctx, s, userID, Tasks),
		Assignments: LoadList[study.Assignment](ctx, s, userID, Assignments),
		StudyTasks:  LoadList[study.StudyTask](ctx, s, userID, StudyTasks),
		Subtasks:    LoadList[study.Subtask](ctx, s, userID, StudySubtasks),
		Grades:      LoadList[study.Grade](ctx, s, userID, Grades),
		Resources:   LoadList[study.Resource](ctx, s, userID, Resources),
		TimeSlots:   LoadList[study.TimeSlot](ctx, s, userID, StudyPlannerSlots),
	}
}

// LoadProfile reads the xp key. The level key is derived and only written.
// A failed read yields a 0 XP profile; use FetchProfile before writing.
func (s *Store) LoadProfile(ctx context.Context, userID shared.UserID) *progress.Profile {
	xp := Load[int](ctx, s, userID, XP)
	return progress.NewProfile(userID.String(), progress.XP(xp))
}

// FetchProfile is LoadProfile that reports backend failures.
func (s *Store) FetchProfile(ctx context.Context, userID shared.UserID) (*progress.Profile, error) {
	xp, err := Fetch[int](ctx, s, userID, XP)
	if err != nil {
		return nil, err
	}
	return progress.NewProfile(userID.String(), progress.XP(xp)), nil
}

// SaveProfile writes the level derived from p and then xp. Only xp is ever
// read back, so a failure leaves the stored total untouched.
func (s *Store) SaveProfile(ctx context.Context, userID shared.UserID, p *progress.Profile) error {
	if err := s.Put(ctx, userID, Level, p.Level().Int()); err != nil {
		return err
	}
	return s.Put(ctx, userID, XP, p.XP.Int())
}
