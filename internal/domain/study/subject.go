package study

import "strings"

// SubjectRef holds the candidate fields an entity offers for subject
// resolution. Fields an entity kind does not have stay empty.
type SubjectRef struct {
	Kind     EntityKind
	Subject  string
	Course   string
	Title    string
	Category string
}

// Referencer is implemented by every record that can be grouped by subject.
type Referencer interface {
	SubjectRef() SubjectRef
}

// ResolveSubjectKey derives the canonical subject for ref. The first rule that
// yields a non-blank value wins:
//
//  1. subject
//  2. course
//  3. for tasks, the title text before the first colon
//  4. for resources, the category
//
// ok is false when no rule matches; such entities are left out of rollups.
func ResolveSubjectKey(ref SubjectRef) (key string, ok bool) {
	if v := strings.TrimSpace(ref.Subject); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(ref.Course); v != "" {
		return v, true
	}

	switch ref.Kind {
	case KindTask:
		if before, _, found := strings.Cut(ref.Title, ":"); found {
			if v := strings.TrimSpace(before); v != "" {
				return v, true
			}
		}
	case KindResource:
		if v := strings.TrimSpace(ref.Category); v != "" {
			return v, true
		}
	}

	return "", false
}

// SubjectOf is shorthand for ResolveSubjectKey(r.SubjectRef()).
func SubjectOf(r Referencer) (string, bool) {
	return ResolveSubjectKey(r.SubjectRef())
}
