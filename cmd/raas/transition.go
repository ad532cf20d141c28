package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/ui"
	"github.com/tarka-io/raas/internal/workflow"
)

var transitionCmd = &cobra.Command{
	Use:   "transition <id> <status>",
	Short: "Move a requirement to a new lifecycle status",
	Long: `Move a requirement through its lifecycle: draft -> review -> approved,
with deprecated as the terminal state.

The transition must be legal in the state machine, your declared persona
must be authorized for it (the organization can override the defaults), and
entry into review or approved is blocked while the content exceeds its hard
length limit. Approval advances the current-version pointer.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid requirement id %q: %w", args[0], err)
		}
		to, err := types.ParseLifecycleStatus(args[1])
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

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		req, err := svc.Transition(rootCtx, workflow.TransitionParams{
			ActorID:       actor,
			Persona:       declared,
			RequirementID: id,
			To:            to,
		})
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(req)
		}
		fmt.Printf("%s %s is now %s\n", ui.RenderSuccess("transitioned"),
			ui.RenderHumanID(req.HumanID), ui.RenderStatus(req.Status))
		if req.Status == types.StatusApproved && req.CurrentVersionID != nil {
			fmt.Println(ui.RenderMuted("current version: " + req.CurrentVersionID.String()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transitionCmd)
}
