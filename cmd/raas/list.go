package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements",
	Long: `List requirements, ordered by status priority: review first, then
approved, then draft. Deprecated requirements are hidden unless --all is
given.`,
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
		all, _ := cmd.Flags().GetBool("all")

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		reqs, err := svc.List(rootCtx, actor, projectID, all)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(reqs)
		}
		if len(reqs) == 0 {
			fmt.Println(ui.RenderMuted("no requirements"))
			return nil
		}
		for _, req := range reqs {
			fmt.Printf("%-12s %-11s %-12s %s\n",
				ui.RenderHumanID(req.HumanID), ui.RenderStatus(req.Status), req.Type, req.Title)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("project", "", "limit to one project")
	listCmd.Flags().Bool("all", false, "include deprecated requirements")
	rootCmd.AddCommand(listCmd)
}
