package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-kit/internal/observability"
	"github.com/jonathan/interview-kit/internal/regenerate"
)

var (
	regenQuestionID int64
	regenRecordID   int64
	regenReason     string
	regenFeedback   string
	regenItems      []string
	regenHistory    bool
	regenJSON       bool
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regenerate interview questions",
	Long: `Regenerate a single question (--question) or a set of questions of one record with
per-question feedback (--record with one --item per question). Every replacement is recorded in
the regeneration audit trail; --history prints that trail for a question instead.`,
	Example: `  interview_agent regenerate --question 42 --feedback "ask about error wrapping"
  interview_agent regenerate --record 7 --item "42=too vague" --item 43 --feedback "focus on production issues"
  interview_agent regenerate --question 42 --history`,
	RunE: runRegenerate,
}

func init() {
	regenerateCmd.Flags().Int64Var(&regenQuestionID, "question", 0, "Question id to regenerate")
	regenerateCmd.Flags().Int64Var(&regenRecordID, "record", 0, "Record id for a batch regeneration")
	regenerateCmd.Flags().StringVar(&regenReason, "reason", "", "Reason stored in the audit trail (single question only)")
	regenerateCmd.Flags().StringVar(&regenFeedback, "feedback", "", "Feedback for the generator; global feedback in batch mode")
	regenerateCmd.Flags().StringArrayVar(&regenItems, "item", nil, "Batch item as <question_id>[=<feedback>], repeatable")
	regenerateCmd.Flags().BoolVar(&regenHistory, "history", false, "Print the regeneration history of --question")
	regenerateCmd.Flags().BoolVar(&regenJSON, "json", false, "Print the result as JSON")

	regenerateCmd.MarkFlagsMutuallyExclusive("question", "record")
	regenerateCmd.MarkFlagsOneRequired("question", "record")
	regenerateCmd.MarkFlagsMutuallyExclusive("history", "record")
	regenerateCmd.MarkFlagsRequiredTogether("record", "item")

	rootCmd.AddCommand(regenerateCmd)
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	var items []regenerate.FeedbackItem
	if regenRecordID != 0 {
		var err error
		if items, err = parseItems(regenItems); err != nil {
			return err
		}
	}

	ctx := contextOrBackground(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	if regenHistory {
		history, err := regenerate.NewService(a.db, nil, regenerate.Options{}, a.logger).History(ctx, regenQuestionID)
		if err != nil {
			return err
		}
		if regenJSON {
			return writeJSON(out, history)
		}
		printer.PrintHistory(regenQuestionID, history)
		return nil
	}

	svc, err := a.regenerationService(ctx)
	if err != nil {
		return err
	}

	if regenRecordID != 0 {
		res, err := svc.RegenerateWithFeedback(ctx, regenRecordID, items, regenFeedback)
		if err != nil {
			return err
		}
		if regenJSON {
			return writeJSON(out, res)
		}
		printer.PrintBatchResult(res)
		return nil
	}

	var feedback *string
	if cmd.Flags().Changed("feedback") {
		feedback = &regenFeedback
	}
	q, err := svc.RegenerateQuestion(ctx, regenQuestionID, regenReason, feedback)
	if err != nil {
		return err
	}
	if regenJSON {
		return writeJSON(out, q)
	}
	printer.PrintQuestion(q)
	return nil
}

// parseItems parses --item values of the form "<question_id>" or "<question_id>=<feedback>".
func parseItems(raw []string) ([]regenerate.FeedbackItem, error) {
	items := make([]regenerate.FeedbackItem, 0, len(raw))
	for _, r := range raw {
		idPart, feedback, _ := strings.Cut(r, "=")
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid --item %q: expected <question_id>[=<feedback>]", r)
		}
		items = append(items, regenerate.FeedbackItem{QuestionID: id, Feedback: strings.TrimSpace(feedback)})
	}
	return items, nil
}
