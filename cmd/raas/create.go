package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/ui"
	"github.com/tarka-io/raas/internal/workflow"
)

var createCmd = &cobra.Command{
	Use:   "create <type> <title>",
	Short: "Create a requirement in draft status",
	Long: `Create a requirement of the given type (epic, component, feature or
requirement) in draft status.

Non-epic types require --parent pointing at a requirement one level up the
hierarchy: components under epics, features under components, requirements
under features. The first content version is recorded immediately.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reqType, err := types.ParseRequirementType(args[0])
		if err != nil {
			return err
		}
		actor, err := resolveActor(cmd)
		if err != nil {
			return err
		}
		declared, err := resolvePersona(cmd)
		if err != nil {
			return err
		}

		projectRaw, _ := cmd.Flags().GetString("project")
		if projectRaw == "" {
			return fmt.Errorf("--project is required")
		}
		projectID, err := uuid.Parse(projectRaw)
		if err != nil {
			return fmt.Errorf("invalid project id %q: %w", projectRaw, err)
		}

		var parentID *uuid.UUID
		if parentRaw, _ := cmd.Flags().GetString("parent"); parentRaw != "" {
			id, err := uuid.Parse(parentRaw)
			if err != nil {
				return fmt.Errorf("invalid parent id %q: %w", parentRaw, err)
			}
			parentID = &id
		}

		description, _ := cmd.Flags().GetString("description")
		content, _ := cmd.Flags().GetString("content")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		req, err := svc.CreateRequirement(rootCtx, workflow.CreateParams{
			ActorID:     actor,
			Persona:     declared,
			ProjectID:   projectID,
			Type:        reqType,
			ParentID:    parentID,
			Title:       args[1],
			Description: description,
			Content:     content,
			Tags:        tags,
		})
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(req)
		}
		debug.PrintNormal("%s %s %s [%s]\n", ui.RenderSuccess("created"),
			ui.RenderHumanID(req.HumanID), req.Title, ui.RenderStatus(req.Status))
		fmt.Println(ui.RenderMuted("id: " + req.ID.String()))
		return nil
	},
}

func init() {
	createCmd.Flags().String("project", "", "project id the requirement belongs to (required)")
	createCmd.Flags().String("parent", "", "parent requirement id (required for non-epic types)")
	createCmd.Flags().String("description", "", "short description")
	createCmd.Flags().String("content", "", "specification body")
	createCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	rootCmd.AddCommand(createCmd)
}
