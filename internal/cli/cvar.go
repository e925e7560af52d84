package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veldtgames/citadel/internal/cvar"
)

// CVarOptions holds flags for the cvar command group.
type CVarOptions struct {
	*RootOptions
	Database string
	Type     string
}

// NewCVarCommand creates the cvar command group for inspecting and
// editing persisted command variables while the engine is offline.
func NewCVarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CVarOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cvar",
		Short: "Inspect and edit persisted command variables",
		Long: `Inspect and edit command variables persisted in the cvar database.

Changes made here are picked up the next time the engine starts.

Example:
  citadel cvar list --db ./cvars.db
  citadel cvar get engine.fps_cap --db ./cvars.db
  citadel cvar set engine.fps_cap 144 --db ./cvars.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to cvar database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newCVarListCommand(opts))
	cmd.AddCommand(newCVarGetCommand(opts))
	cmd.AddCommand(newCVarSetCommand(opts))

	return cmd
}

func newCVarListCommand(opts *CVarOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all persisted variables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cvar.OpenStore(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open cvar database", err)
			}
			defer store.Close()

			rows, err := store.Rows(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list cvars", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return formatter.Success(rows)
			}
			for _, v := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.Name, v.Type, v.Value)
			}
			return nil
		},
	}
}

func newCVarGetCommand(opts *CVarOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <name>",
		Short:         "Print one persisted variable",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cvar.OpenStore(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open cvar database", err)
			}
			defer store.Close()

			rows, err := store.Rows(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read cvars", err)
			}

			name := cvar.NormalizeName(args[0])
			for _, v := range rows {
				if v.Name == name {
					formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
					if opts.Format == "json" {
						return formatter.Success(v)
					}
					fmt.Fprintln(cmd.OutOrStdout(), v.Value)
					return nil
				}
			}
			return WrapExitError(ExitFailure, "cvar not found", fmt.Errorf("no persisted value for %q", name))
		},
	}
}

func newCVarSetCommand(opts *CVarOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "set <name> <value>",
		Short:         "Set one persisted variable",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cvar.OpenStore(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open cvar database", err)
			}
			defer store.Close()

			name := cvar.NormalizeName(args[0])
			value := args[1]

			// Reuse the persisted type when the variable already exists;
			// otherwise the --type flag decides.
			typeName := opts.Type
			rows, err := store.Rows(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read cvars", err)
			}
			for _, v := range rows {
				if v.Name == name && !cmd.Flags().Changed("type") {
					typeName = v.Type
				}
			}

			typ, err := cvar.ParseType(typeName)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid type", err)
			}
			if err := cvar.CheckRaw(typ, value); err != nil {
				return WrapExitError(ExitCommandError, "invalid value", err)
			}

			if err := store.SetRaw(cmd.Context(), name, typ.String(), value); err != nil {
				return WrapExitError(ExitFailure, "failed to set cvar", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(fmt.Sprintf("%s = %s", name, value))
		},
	}
	cmd.Flags().StringVar(&opts.Type, "type", "string", "value type for new variables (bool|int|float|string)")
	return cmd
}
