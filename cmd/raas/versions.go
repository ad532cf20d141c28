package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/ui"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <id>",
	Short: "Show a requirement's version history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid requirement id %q: %w", args[0], err)
		}

		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		versions, err := svc.Versions(rootCtx, id)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(versions)
		}
		if len(versions) == 0 {
			fmt.Println(ui.RenderMuted("no versions"))
			return nil
		}
		for _, v := range versions {
			reason := v.ChangeReason
			if reason == "" {
				reason = "-"
			}
			hash := v.ContentHash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Printf("v%-4d %s  %s  %s\n", v.VersionNumber,
				v.CreatedAt.Format("2006-01-02 15:04"), ui.RenderMuted(hash), reason)
			if v.SourceWorkItemID != nil {
				fmt.Println(ui.RenderMuted("      source work item: " + v.SourceWorkItemID.String()))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
