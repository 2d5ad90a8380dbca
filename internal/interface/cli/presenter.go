package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/command"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/query"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/analytics"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// Formats application results as aligned text or JSON.
// ══════════════════════════════════════════════════════════════════════════════

// Presenter writes results to out.
type Presenter struct {
	out  io.Writer
	json bool
}

// NewPresenter creates a presenter. asJSON switches every method to JSON.
func NewPresenter(out io.Writer, asJSON bool) *Presenter {
	return &Presenter{out: out, json: asJSON}
}

func (p *Presenter) encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Message prints a one-line status.
func (p *Presenter) Message(format string, args ...any) error {
	if p.json {
		return p.encode(map[string]string{"message": fmt.Sprintf(format, args...)})
	}
	_, err := fmt.Fprintf(p.out, format+"\n", args...)
	return err
}

// Profile prints xp, level and a progress bar.
func (p *Presenter) Profile(dto *query.ProfileDTO) error {
	if p.json {
		return p.encode(dto)
	}
	_, err := fmt.Fprintf(p.out, "%s  level %d  %d xp  %s %d xp to next level\n",
		dto.UserID, dto.Level, dto.XP, progressBar(dto.Progress, 20), dto.XPToNextLevel)
	return err
}

// Completion prints the XP effect of a status change and any level-ups.
func (p *Presenter) Completion(res *command.CompletionResult) error {
	if p.json {
		return p.encode(map[string]any{
			"item_id":    res.ItemID,
			"collection": res.Collection,
			"previous":   res.Previous,
			"current":    res.Current,
			"xp_delta":   res.XPDelta,
			"xp":         res.XP,
			"level":      res.Level,
			"level_ups":  res.LevelUps,
		})
	}

	if !res.Changed() {
		_, err := fmt.Fprintf(p.out, "%s %s is %s, xp unchanged (%d)\n", res.Collection, res.ItemID, res.Current, res.XP)
		return err
	}
	if _, err := fmt.Fprintf(p.out, "%s %s is %s, %+d xp (now %d, level %d)\n",
		res.Collection, res.ItemID, res.Current, res.XPDelta, res.XP, res.Level); err != nil {
		return err
	}
	for _, up := range res.LevelUps {
		if _, err := fmt.Fprintf(p.out, "Level up! %d -> %d\n", up.OldLevel, up.NewLevel); err != nil {
			return err
		}
	}
	return nil
}

// Rollups prints one row per subject.
func (p *Presenter) Rollups(dto *query.SubjectRollupsDTO) error {
	if p.json {
		return p.encode(dto)
	}
	if len(dto.Subjects) == 0 {
		_, err := fmt.Fprintln(p.out, "no subjects yet")
		return err
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tTASKS\tASSIGNMENTS\tSTUDY TASKS\tAVG GRADE\tMINUTES\tXP")
	for _, r := range dto.Subjects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			r.Subject, ratio(r.Tasks), ratio(r.Assignments), ratio(r.StudyTasks),
			grade(r), r.TotalStudyMinutes, r.TotalXP)
	}
	return tw.Flush()
}

// Report prints one subject with its recommendations.
func (p *Presenter) Report(dto *query.SubjectReportDTO) error {
	if p.json {
		return p.encode(dto)
	}
	r := dto.Rollup

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Subject)
	fmt.Fprintf(&b, "  tasks        %s (%.0f%%)\n", ratio(r.Tasks), dto.CompletionRates["tasks"]*100)
	fmt.Fprintf(&b, "  assignments  %s (%.0f%%)\n", ratio(r.Assignments), dto.CompletionRates["assignments"]*100)
	fmt.Fprintf(&b, "  study tasks  %s (%.0f%%)\n", ratio(r.StudyTasks), dto.CompletionRates["study_tasks"]*100)
	fmt.Fprintf(&b, "  subtasks     %s\n", ratio(r.Subtasks))
	fmt.Fprintf(&b, "  resources    %d (%d pdf)\n", r.Resources, r.PDFResources)
	fmt.Fprintf(&b, "  grades       %s over %d\n", grade(r), r.GradedCount)
	fmt.Fprintf(&b, "  study time   %d min in %d sessions\n", r.TotalStudyMinutes, r.StudySessions)
	fmt.Fprintf(&b, "  xp           %d\n", r.TotalXP)
	b.WriteString("\nRecommendations\n")
	for _, rec := range dto.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

// Lines prints each element on its own line.
func (p *Presenter) Lines(items []string) error {
	if p.json {
		if items == nil {
			items = []string{}
		}
		return p.encode(items)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(p.out, item); err != nil {
			return err
		}
	}
	return nil
}

func ratio(c analytics.Counts) string {
	return fmt.Sprintf("%d/%d", c.Completed, c.Total)
}

func grade(r analytics.SubjectRollup) string {
	if !r.HasGrades() {
		return "-"
	}
	return fmt.Sprintf("%d%%", r.AverageGrade)
}

func progressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
