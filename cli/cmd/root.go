package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crmarques/declarm/debugctx"
)

var (
	noStatusOutput bool
	configPath     string
	debugOutput    bool
)

const (
	groupUtility    = "utility"
	groupUserFacing = "user"
)

func Execute() error {
	return NewRootCommand(defaultDependencies()).Execute()
}

func NewRootCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "declarm",
		Short: "Reconcile cloud resources against declarative definitions",
		Long: `declarm drives individual Resource Manager resources toward a declared state.

Use the CLI to:
  - apply a declarative resource definition, creating or updating the remote resource
  - preview what a run would change without touching the remote system
  - delete resources declared absent
  - inspect live resource state and provider api-versions`,
		Example: `  # Create or update the resource described in storage.yaml
  declarm resource apply --file storage.yaml

  # Preview the run without mutating anything
  declarm resource diff --file storage.yaml

  # Remove the resource
  declarm resource delete --file storage.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetHelpCommandGroupID(groupUtility)
	cmd.SetCompletionCommandGroupID(groupUtility)

	cmd.PersistentFlags().BoolVar(&noStatusOutput, "no-status", false, "Suppress status messages and print only command output")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	cmd.PersistentFlags().BoolVar(&debugOutput, "debug", false, "Print debug information while running")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err == nil {
			return nil
		}
		return usageError(cmd, err.Error())
	})

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		ctx := debugctx.WithEnabled(cmd.Context(), debugOutput)
		ctx = debugctx.WithWriter(ctx, cmd.ErrOrStderr())
		cmd.SetContext(ctx)
	}

	cmd.AddGroup(&cobra.Group{ID: groupUserFacing, Title: "Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupUtility, Title: "Utility Commands:"})

	cmd.AddCommand(newResourceCommand(deps))
	cmd.AddCommand(newProviderCommand(deps))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
