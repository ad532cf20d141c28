package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/ui"
	"github.com/tarka-io/raas/internal/workflow"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a requirement's content or metadata",
	Long: `Edit a requirement. Changes to the title, description or body create a
new immutable version; if the requirement was in review or approved it
regresses to draft so the change re-enters the review workflow. Tag changes
are metadata only: no version, no status change.

Pass --baseline with the content hash your edit was based on to reject the
write if someone else changed the requirement in the meantime.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid requirement id %q: %w", args[0], err)
		}
		actor, err := resolveActor(cmd)
		if err != nil {
			return err
		}
		declared, err := resolvePersona(cmd)
		if err != nil {
			return err
		}

		params := workflow.UpdateParams{
			ActorID:       actor,
			Persona:       declared,
			RequirementID: id,
		}
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			params.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			params.Description = &v
		}
		if cmd.Flags().Changed("content") {
			v, _ := cmd.Flags().GetString("content")
			params.Content = &v
		}
		if cmd.Flags().Changed("tags") {
			v, _ := cmd.Flags().GetStringSlice("tags")
			params.Tags = &v
		}
		params.BaselineHash, _ = cmd.Flags().GetString("baseline")
		params.ChangeReason, _ = cmd.Flags().GetString("reason")
		if raw, _ := cmd.Flags().GetString("source"); raw != "" {
			sourceID, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid source work item id %q: %w", raw, err)
			}
			params.SourceWorkItemID = &sourceID
		}

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		req, version, err := svc.UpdateRequirement(rootCtx, params)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(map[string]any{"requirement": req, "version": version})
		}
		if version != nil {
			fmt.Printf("%s %s now at version %d [%s]\n", ui.RenderSuccess("updated"),
				ui.RenderHumanID(req.HumanID), version.VersionNumber, ui.RenderStatus(req.Status))
		} else {
			fmt.Printf("%s %s metadata updated [%s]\n", ui.RenderSuccess("updated"),
				ui.RenderHumanID(req.HumanID), ui.RenderStatus(req.Status))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().String("description", "", "new description")
	updateCmd.Flags().String("content", "", "new specification body")
	updateCmd.Flags().StringSlice("tags", nil, "replace tags")
	updateCmd.Flags().String("baseline", "", "content hash the edit was based on (stale-write protection)")
	updateCmd.Flags().String("reason", "", "why the content changed")
	updateCmd.Flags().String("source", "", "work item id that motivated the change")
	rootCmd.AddCommand(updateCmd)
}
