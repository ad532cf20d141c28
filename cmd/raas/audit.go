package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/ui"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Find hierarchy violations in stored requirements",
	Long: `Sweep stored requirements for hierarchy violations: nodes whose parent
is the wrong type, non-epics without a parent, and orphans whose parent id
points at nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd)
		if err != nil {
			return err
		}

		var projectID *uuid.UUID
		if raw, _ := cmd.Flags().GetString("project"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", raw, err)
			}
			projectID = &id
		}

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		violations, err := svc.Audit(rootCtx, actor, projectID)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(violations)
		}
		if len(violations) == 0 {
			fmt.Println(ui.RenderSuccess("hierarchy is clean"))
			return nil
		}
		for _, v := range violations {
			fmt.Printf("%s %s %s\n", ui.RenderError("violation"), ui.RenderHumanID(v.HumanID), v.Title)
			fmt.Println(ui.RenderMuted("  " + v.Violation))
		}
		return fmt.Errorf("%d hierarchy violations found", len(violations))
	},
}

func init() {
	auditCmd.Flags().String("project", "", "limit to one project")
	rootCmd.AddCommand(auditCmd)
}
