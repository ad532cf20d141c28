package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/quality"
	"github.com/tarka-io/raas/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a requirement's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid requirement id %q: %w", args[0], err)
		}
		actor, err := resolveActor(cmd)
		if err != nil {
			return err
		}

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		req, err := svc.Get(rootCtx, actor, id)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(req)
		}

		fmt.Printf("%s %s\n", ui.RenderHumanID(req.HumanID), ui.HeaderStyle.Render(req.Title))
		fmt.Printf("  type:    %s\n", req.Type)
		fmt.Printf("  status:  %s\n", ui.RenderStatus(req.Status))
		fmt.Printf("  project: %s\n", req.ProjectID)
		if req.ParentID != nil {
			fmt.Printf("  parent:  %s\n", req.ParentID)
		}
		if req.Description != "" {
			fmt.Printf("  description: %s\n", req.Description)
		}
		if len(req.Tags) > 0 {
			fmt.Printf("  tags:    %s\n", strings.Join(req.Tags, ", "))
		}
		if req.CurrentVersionID != nil {
			fmt.Printf("  current version:  %s\n", req.CurrentVersionID)
		}
		if req.DeployedVersionID != nil {
			fmt.Printf("  deployed version: %s\n", req.DeployedVersionID)
		}
		fmt.Printf("  content hash: %s\n", ui.RenderMuted(req.ContentHash))

		// Length advisories are informational; quiet mode drops them.
		if !debug.IsQuiet() {
			switch quality.Calculate(len(req.Content), req.Type) {
			case quality.ScoreNeedsReview:
				fmt.Println(ui.RenderWarning(fmt.Sprintf("content length %d is above the warning threshold for %s", len(req.Content), req.Type)))
			case quality.ScoreLowQuality:
				fmt.Println(ui.RenderError(quality.ApprovalBlockMessage(len(req.Content), req.Type)))
			}
		}

		if req.Content != "" {
			fmt.Println()
			fmt.Println(req.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
