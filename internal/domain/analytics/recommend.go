package analytics

import "fmt"

// Backlog thresholds: a recommendation fires when pending exceeds the value.
const (
	PendingAssignmentsThreshold = 2
	PendingTasksThreshold       = 2
	PendingStudyTasksThreshold  = 1
)

// Study-time bands in minutes.
const (
	HighStudyMinutes     = 300
	ModerateStudyMinutes = 120
)

// DefaultRecommendation is appended to every list.
const DefaultRecommendation = "Review your notes regularly and test yourself with active recall."

// Synthesize maps a rollup onto guidance strings. Order is fixed: grade band,
// study time, backlog, then the default.
func Synthesize(r SubjectRollup) []string {
	var out []string

	if r.HasGrades() {
		switch {
		case r.AverageGrade >= 90:
			out = append(out, fmt.Sprintf("Excellent work in %s! Keep up the strong performance.", r.Subject))
		case r.AverageGrade >= 80:
			out = append(out, fmt.Sprintf("Good results in %s. A bit more practice could push you to the top band.", r.Subject))
		case r.AverageGrade >= 70:
			out = append(out, fmt.Sprintf("You are passing %s, but there is room to improve. Revisit your weakest topics.", r.Subject))
		default:
			out = append(out, fmt.Sprintf("Your %s grades need attention. Plan extra sessions or ask for help.", r.Subject))
		}
	}

	switch {
	case r.TotalStudyMinutes >= HighStudyMinutes:
		out = append(out, fmt.Sprintf("You have put serious time into %s. Remember to take breaks.", r.Subject))
	case r.TotalStudyMinutes >= ModerateStudyMinutes:
		out = append(out, fmt.Sprintf("Steady study time for %s. Keep the rhythm going.", r.Subject))
	default:
		out = append(out, fmt.Sprintf("Schedule more study time for %s.", r.Subject))
	}

	if n := r.Assignments.Pending(); n > PendingAssignmentsThreshold {
		out = append(out, fmt.Sprintf("You have %d pending assignments in %s. Tackle them by due date.", n, r.Subject))
	}
	if n := r.Tasks.Pending(); n > PendingTasksThreshold {
		out = append(out, fmt.Sprintf("You have %d open tasks for %s. Break them into smaller steps.", n, r.Subject))
	}
	if n := r.StudyTasks.Pending(); n > PendingStudyTasksThreshold {
		out = append(out, fmt.Sprintf("%d study tasks for %s are still open. Put them on your calendar.", n, r.Subject))
	}

	return append(out, DefaultRecommendation)
}
