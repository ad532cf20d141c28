package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/ui"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage organization and project memberships",
}

var memberOrgCmd = &cobra.Command{
	Use:   "org <org-id> <user> <role>",
	Short: "Grant or change a user's organization role",
	Long: `Grant or change a user's organization role. Roles, weakest first:
viewer, member, admin, owner. The user may be a uuid or a stable name.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id %q: %w", args[0], err)
		}
		user, err := userID(args[1])
		if err != nil {
			return err
		}
		role := types.OrgRole(args[2])
		if !role.IsValid() {
			return fmt.Errorf("invalid organization role %q (viewer, member, admin, owner)", args[2])
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

		err = svc.SetOrgMember(rootCtx, actor, &types.OrgMembership{
			UserID:         user,
			OrganizationID: orgID,
			Role:           role,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s %s is now org %s\n", ui.RenderSuccess("granted"), args[1], role)
		return nil
	},
}

var memberProjectCmd = &cobra.Command{
	Use:   "project <project-id> <user> <role>",
	Short: "Grant or change a user's project role",
	Long: `Grant or change a user's project role. Roles, weakest first: viewer,
editor, admin. The user may be a uuid or a stable name.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q: %w", args[0], err)
		}
		user, err := userID(args[1])
		if err != nil {
			return err
		}
		role := types.ProjectRole(args[2])
		if !role.IsValid() {
			return fmt.Errorf("invalid project role %q (viewer, editor, admin)", args[2])
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

		err = svc.SetProjectMember(rootCtx, actor, &types.ProjectMembership{
			UserID:    user,
			ProjectID: projectID,
			Role:      role,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s %s is now project %s\n", ui.RenderSuccess("granted"), args[1], role)
		return nil
	},
}

func init() {
	memberCmd.AddCommand(memberOrgCmd)
	memberCmd.AddCommand(memberProjectCmd)
	rootCmd.AddCommand(memberCmd)
}
