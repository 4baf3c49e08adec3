package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-kit/internal/observability"
)

var (
	syncReqID  string
	syncUserID string
	syncDryRun bool
	syncJSON   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a record with the recruiting platform",
	Long: `Fetch the requisition snapshot for a record and bring its skills and questions in line with it:
soft-delete what the platform removed, restore what it brought back, update skill attributes and
attach questions to their pools. With --dry-run the changes are printed and nothing is written.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncReqID, "req-id", "", "External requisition id (required)")
	syncCmd.Flags().StringVar(&syncUserID, "user-id", "", "External user id (required)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute the changes without applying them")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the result as JSON")

	_ = syncCmd.MarkFlagRequired("req-id")
	_ = syncCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := contextOrBackground(cmd)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.syncService(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if syncDryRun {
		plan, err := svc.Preview(ctx, syncReqID, syncUserID)
		if err != nil {
			return err
		}
		if syncJSON {
			return writeJSON(out, plan)
		}
		observability.NewPrinter(out).PrintPlan(plan)
		return nil
	}

	summary, err := svc.SyncRecord(ctx, syncReqID, syncUserID)
	if err != nil {
		return err
	}
	if syncJSON {
		return writeJSON(out, summary)
	}
	observability.NewPrinter(out).PrintSyncSummary(summary)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}
