package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/ui"
	"github.com/tarka-io/raas/internal/workflow"
)

var deployCmd = &cobra.Command{
	Use:   "deploy <id>",
	Short: "Record a production deployment of a requirement",
	Long: `Record that a requirement's specification went to production by
advancing its deployed-version pointer.

Without --version, the pointer targets the current (approved) version, or
the latest version if nothing has been approved yet.`,
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

		var versionID *uuid.UUID
		if raw, _ := cmd.Flags().GetString("version"); raw != "" {
			vid, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid version id %q: %w", raw, err)
			}
			versionID = &vid
		}

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		req, version, err := svc.Deploy(rootCtx, workflow.DeployParams{
			ActorID:       actor,
			RequirementID: id,
			VersionID:     versionID,
		})
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(map[string]any{"requirement": req, "deployed": version})
		}
		fmt.Printf("%s %s deployed at version %d\n", ui.RenderSuccess("deployed"),
			ui.RenderHumanID(req.HumanID), version.VersionNumber)
		return nil
	},
}

func init() {
	deployCmd.Flags().String("version", "", "deploy a specific version id instead of the current one")
	rootCmd.AddCommand(deployCmd)
}
