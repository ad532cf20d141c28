package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/ui"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a requirement (project admin)",
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

		if err := svc.DeleteRequirement(rootCtx, actor, id); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("requirement deleted"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
