package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/ui"
	"github.com/tarka-io/raas/internal/workflow"
)

// approveCmd is shorthand for `transition <id> approved`.
var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a requirement in review",
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
		declared, err := resolvePersona(cmd)
		if err != nil {
			return err
		}

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		req, err := svc.Transition(rootCtx, workflow.TransitionParams{
			ActorID:       actor,
			Persona:       declared,
			RequirementID: id,
			To:            types.StatusApproved,
		})
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(req)
		}
		fmt.Printf("%s %s approved\n", ui.RenderSuccess("approved"), ui.RenderHumanID(req.HumanID))
		if req.CurrentVersionID != nil {
			fmt.Println(ui.RenderMuted("current version: " + req.CurrentVersionID.String()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
}
