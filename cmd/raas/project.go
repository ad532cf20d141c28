package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/ui"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <org-id> <name>",
	Short: "Create a project under an organization",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id %q: %w", args[0], err)
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

		project, err := svc.CreateProject(rootCtx, actor, orgID, args[1])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(project)
		}
		debug.PrintNormal("%s project %s\n", ui.RenderSuccess("created"), project.Name)
		fmt.Println(ui.RenderMuted("id: " + project.ID.String()))
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project (project admin or org admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q: %w", args[0], err)
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

		if err := svc.DeleteProject(rootCtx, actor, id); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("project deleted"))
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
