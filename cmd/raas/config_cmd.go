package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/config"
	"github.com/tarka-io/raas/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after merging config.yaml, RAAS_*
environment variables and flags. Values come from ` + "`$RAAS_DIR/config.yaml`" + `
(default ~/.raas/config.yaml).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.Dir()
		cfg := config.LoadLocalWithEnv(dir)
		db, _ := cmd.Flags().GetString("db")
		if db == "" {
			db = cfg.DBPath
		}
		if db == "" {
			db = config.DefaultDBPath(dir)
		}
		actor, _ := cmd.Flags().GetString("actor")
		if actor == "" {
			actor = cfg.Actor
		}
		personaRaw, _ := cmd.Flags().GetString("persona")
		if personaRaw == "" {
			personaRaw = cfg.Persona
		}
		noCheck, _ := cmd.Flags().GetBool("no-persona-check")
		noCheck = noCheck || cfg.NoPersonaCheck

		if jsonOutput(cmd) {
			return printJSON(map[string]any{
				"dir":              dir,
				"db":               db,
				"actor":            actor,
				"persona":          personaRaw,
				"no-persona-check": noCheck,
			})
		}

		fmt.Println(ui.HeaderStyle.Render("configuration"))
		fmt.Printf("  dir:     %s\n", dir)
		fmt.Printf("  db:      %s\n", db)
		if actor != "" {
			fmt.Printf("  actor:   %s\n", actor)
		} else {
			fmt.Printf("  actor:   %s\n", ui.RenderWarning("not set"))
		}
		if personaRaw != "" {
			fmt.Printf("  persona: %s\n", personaRaw)
		} else {
			fmt.Printf("  persona: %s\n", ui.RenderMuted("none declared"))
		}
		if noCheck {
			fmt.Println(ui.RenderWarning("persona enforcement is disabled"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
