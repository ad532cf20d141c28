package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tarka-io/raas/internal/config"
	"github.com/tarka-io/raas/internal/debug"
	"github.com/tarka-io/raas/internal/storage/sqlite"
	"github.com/tarka-io/raas/internal/types"
	"github.com/tarka-io/raas/internal/workflow"
)

var rootCtx = context.Background()

var rootCmd = &cobra.Command{
	Use:   "raas",
	Short: "Requirements governance from the command line",
	Long: `raas manages a governed requirements hierarchy: epics contain
components, components contain features, features contain requirements.

Content changes are versioned immutably, lifecycle transitions are gated by
the persona authorization matrix, and every mutation is checked against
organization and project roles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		debug.SetVerbose(verbose)
		quiet, _ := cmd.Flags().GetBool("quiet")
		debug.SetQuiet(quiet)
		return config.Init(config.Dir())
	},
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "path to the requirements database (default: $RAAS_DIR/raas.db)")
	rootCmd.PersistentFlags().String("actor", "", "acting user: a uuid or a stable user name")
	rootCmd.PersistentFlags().String("persona", "", "declared persona (enterprise_architect, product_owner, scrum_master, developer, tester, release_manager)")
	rootCmd.PersistentFlags().Bool("no-persona-check", false, "do not require a persona on governed operations")
	rootCmd.PersistentFlags().Bool("json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-essential output")
}

// actorNamespace makes name-based actor ids stable across invocations.
var actorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("raas:actor"))

// userID resolves a user argument to a UUID: literal uuids pass through,
// anything else is hashed into a stable name-based id.
func userID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, fmt.Errorf("user is required")
	}
	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}
	return uuid.NewSHA1(actorNamespace, []byte(s)), nil
}

// resolveActor returns the acting user's id: --actor flag, then RAAS_ACTOR /
// config.yaml.
func resolveActor(cmd *cobra.Command) (uuid.UUID, error) {
	actor, _ := cmd.Flags().GetString("actor")
	if actor == "" {
		actor = config.GetString("actor")
	}
	if actor == "" {
		return uuid.Nil, fmt.Errorf("no actor configured: pass --actor or set actor in %s", filepath.Join(config.Dir(), "config.yaml"))
	}
	return userID(actor)
}

// resolvePersona returns the declared persona, or nil when none is declared.
func resolvePersona(cmd *cobra.Command) (*types.Persona, error) {
	raw, _ := cmd.Flags().GetString("persona")
	if raw == "" {
		raw = config.GetString("persona")
	}
	if raw == "" {
		return nil, nil
	}
	p, err := types.ParsePersona(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// openService opens the configured database and wraps it in a workflow
// service. The returned closer must be called when the command is done.
func openService(cmd *cobra.Command) (*workflow.Service, func(), error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = config.GetString("db")
	}
	if path == "" {
		dir := config.Dir()
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("create config dir: %w", err)
		}
		path = config.DefaultDBPath(dir)
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var opts []workflow.Option
	noCheck, _ := cmd.Flags().GetBool("no-persona-check")
	if noCheck || config.GetBool("no-persona-check") {
		opts = append(opts, workflow.WithoutPersonaEnforcement())
	}
	closer := func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close store: %v\n", err)
		}
	}
	return workflow.New(store, opts...), closer, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	flag, _ := cmd.Flags().GetBool("json")
	return flag || config.GetBool("json")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
