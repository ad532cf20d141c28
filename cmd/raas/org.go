package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/persona"
	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/ui"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
}

var orgCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an organization (you become its owner)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd)
		if err != nil {
			return err
		}
		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		org, err := svc.CreateOrganization(rootCtx, actor, args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(org)
		}
		debug.PrintNormal("%s organization %s\n", ui.RenderSuccess("created"), org.Name)
		fmt.Println(ui.RenderMuted("id: " + org.ID.String()))
		return nil
	},
}

var orgDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an organization (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
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

		if err := svc.DeleteOrganization(rootCtx, actor, id); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("organization deleted"))
		return nil
	},
}

var orgMatrixCmd = &cobra.Command{
	Use:   "matrix <org-id> <from->to> [persona...]",
	Short: "Override the persona matrix for one transition",
	Long: `Override which personas may perform a lifecycle transition in this
organization. The override replaces the default set for that transition;
giving no personas blocks the transition entirely.

Example:
  raas org matrix 6b9a... draft->review tester scrum_master`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id %q: %w", args[0], err)
		}
		pair := args[1]
		if !strings.Contains(pair, "->") {
			return fmt.Errorf("transition must be of the form from->to, got %q", pair)
		}
		for _, raw := range args[2:] {
			if _, err := types.ParsePersona(raw); err != nil {
				return err
			}
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

		if err := svc.SetPersonaMatrixOverride(rootCtx, actor, orgID, pair, args[2:]); err != nil {
			return err
		}
		fmt.Printf("%s %s now allows: %s\n", ui.RenderSuccess("matrix updated"),
			pair, formatPersonaList(args[2:]))
		return nil
	},
}

func formatPersonaList(personas []string) string {
	if len(personas) == 0 {
		return ui.RenderError("nobody (transition blocked)")
	}
	return strings.Join(personas, ", ")
}

var orgMatrixShowCmd = &cobra.Command{
	Use:   "matrix-show <org-id>",
	Short: "Show the effective persona matrix for an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id %q: %w", args[0], err)
		}
		svc, closer, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		org, err := svc.Organization(rootCtx, orgID)
		if err != nil {
			return err
		}
		matrix := persona.ResolveMatrix(org.Settings)

		if jsonOutput(cmd) {
			out := make(map[string][]types.Persona, len(matrix))
			for tr, set := range matrix {
				out[string(tr.From)+"->"+string(tr.To)] = set.List()
			}
			return printJSON(out)
		}

		transitions := make([]persona.Transition, 0, len(matrix))
		for tr := range matrix {
			transitions = append(transitions, tr)
		}
		sort.Slice(transitions, func(i, j int) bool {
			if transitions[i].From != transitions[j].From {
				return transitions[i].From < transitions[j].From
			}
			return transitions[i].To < transitions[j].To
		})

		fmt.Println(ui.HeaderStyle.Render("persona matrix for " + org.Name))
		for _, tr := range transitions {
			names := make([]string, 0, len(matrix[tr]))
			for _, p := range matrix[tr].List() {
				names = append(names, string(p))
			}
			fmt.Printf("  %s -> %s: %s\n", ui.RenderStatus(tr.From), ui.RenderStatus(tr.To), formatPersonaList(names))
		}
		return nil
	},
}

func init() {
	orgCmd.AddCommand(orgCreateCmd)
	orgCmd.AddCommand(orgDeleteCmd)
	orgCmd.AddCommand(orgMatrixCmd)
	orgCmd.AddCommand(orgMatrixShowCmd)
	rootCmd.AddCommand(orgCmd)
}
