// Package observability provides formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/interview-kit/internal/reconcile"
	"github.com/jonathan/interview-kit/internal/regenerate"
	"github.com/jonathan/interview-kit/internal/syncer"
	"github.com/jonathan/interview-kit/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSyncSummary outputs the applied mutation counts of a sync.
func (p *Printer) PrintSyncSummary(sum *syncer.Summary) {
	if sum == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Record:   %d\n", sum.RecordID))
	sb.WriteString(fmt.Sprintf("Round:    %s\n", roundLabel(sum.RoundID)))
	sb.WriteString("\n")
	writeCounts(&sb, sum.Counts)
	p.printBox("SYNC APPLIED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPlan outputs what a sync would change without applying it.
func (p *Printer) PrintPlan(plan *syncer.Plan) {
	if plan == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Record:   %d\n", plan.RecordID))
	sb.WriteString(fmt.Sprintf("Round:    %s\n", roundLabel(plan.RoundID)))
	sb.WriteString("\n")
	writeCounts(&sb, plan.Counts)

	if plan.Result != nil {
		sb.WriteString("\n")
		writeDiff(&sb, "Skills", plan.Result.Skills)
		writeDiff(&sb, "Questions", plan.Result.Questions)

		if n := len(plan.Result.Mutations); n > 0 {
			sb.WriteString("\nMutations:\n")
			count := min(n, maxItemsToShow)
			for _, m := range plan.Result.Mutations[:count] {
				sb.WriteString("  • " + describeMutation(m) + "\n")
			}
			if n > maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", n-maxItemsToShow))
			}
		}
	}
	p.printBox("SYNC PLAN (DRY RUN)", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuestion outputs a regenerated question.
func (p *Printer) PrintQuestion(q *types.Question) {
	if q == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Question: %d (skill %d)\n", q.ID, q.SkillID))
	if q.Content.Difficulty != "" {
		sb.WriteString(fmt.Sprintf("Difficulty: %s\n", q.Content.Difficulty))
	}
	sb.WriteString("\n")
	sb.WriteString(q.Content.Question)
	p.printBox("REGENERATED QUESTION", sb.String())
}

// PrintBatchResult outputs the outcome of a feedback-driven regeneration.
func (p *Printer) PrintBatchResult(res *regenerate.BatchResult) {
	if res == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Requested:   %d\n", res.Requested))
	sb.WriteString(fmt.Sprintf("Regenerated: %d\n", res.Regenerated))
	if res.Shortfall > 0 {
		sb.WriteString(fmt.Sprintf("Shortfall:   %d\n", res.Shortfall))
	}
	for _, w := range res.Warnings {
		sb.WriteString("⚠ " + w + "\n")
	}
	count := min(len(res.Questions), maxItemsToShow)
	if count > 0 {
		sb.WriteString("\n")
	}
	for _, q := range res.Questions[:count] {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", q.ID, q.Content.Question))
	}
	p.printBox("REGENERATION RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHistory outputs the regeneration audit trail of a question.
func (p *Printer) PrintHistory(questionID int64, history []types.Regeneration) {
	var sb strings.Builder
	if len(history) == 0 {
		sb.WriteString("No regenerations")
	}
	for i, r := range history {
		mode := fmt.Sprintf("%d → %d", r.OriginQuestionID, r.ResultQuestionID)
		if r.InPlace() {
			mode = fmt.Sprintf("%d (in place)", r.OriginQuestionID)
		}
		sb.WriteString(fmt.Sprintf("%s  %s  [%s]", r.CreatedAt.Format("2006-01-02 15:04"), mode, r.Reason))
		if r.Feedback != nil {
			sb.WriteString("\n    " + *r.Feedback)
		}
		if i < len(history)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(fmt.Sprintf("HISTORY OF QUESTION %d", questionID), sb.String())
}

func writeCounts(sb *strings.Builder, c reconcile.Counts) {
	sb.WriteString(fmt.Sprintf("Skills:    %d deleted, %d undeleted, %d updated\n",
		c.Skills.Deleted, c.Skills.Undeleted, c.Skills.Updated))
	sb.WriteString(fmt.Sprintf("Questions: %d deleted, %d undeleted, %d pool moves\n",
		c.Questions.Deleted, c.Questions.Undeleted, c.Questions.PoolSet))
}

func writeDiff(sb *strings.Builder, label string, d reconcile.Diff) {
	sb.WriteString(fmt.Sprintf("%-10s unchanged %d, changed %d, local-only %d, platform-only %d, unsynced %d\n",
		label+":", d.Unchanged, d.Changed, d.LocalOnly, d.ExternalOnly, d.Unsynced))
}

func describeMutation(m reconcile.Mutation) string {
	switch {
	case m.Skill != nil:
		return "skill " + fmt.Sprint(m.Skill.SkillID) + ": " + describeSkillPatch(*m.Skill)
	case m.Question != nil:
		return "question " + fmt.Sprint(m.Question.QuestionID) + ": " + describeQuestionPatch(*m.Question)
	}
	return "no-op"
}

func describeSkillPatch(p types.SkillPatch) string {
	var parts []string
	if p.State != nil {
		parts = append(parts, describeState(*p.State))
	}
	if p.ExternalID != nil {
		parts = append(parts, fmt.Sprintf("external id %d", *p.ExternalID))
	}
	if p.Name != nil {
		parts = append(parts, fmt.Sprintf("name %q", *p.Name))
	}
	if p.Level != nil {
		parts = append(parts, "level "+string(*p.Level))
	}
	if p.Requirement != nil {
		parts = append(parts, "requirement "+string(*p.Requirement))
	}
	return strings.Join(parts, ", ")
}

func describeQuestionPatch(p types.QuestionPatch) string {
	var parts []string
	if p.State != nil {
		parts = append(parts, describeState(*p.State))
	}
	if p.ExternalPoolID != nil {
		parts = append(parts, fmt.Sprintf("pool %d", *p.ExternalPoolID))
	}
	return strings.Join(parts, ", ")
}

func describeState(s types.State) string {
	if s.IsDeleted() {
		return "delete"
	}
	return "undelete"
}

func roundLabel(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
