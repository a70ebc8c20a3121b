package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/declarm/metadata"
	"github.com/crmarques/declarm/reconciler"
	"github.com/crmarques/declarm/resource"
)

func newResourceCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		GroupID: groupUserFacing,
		Short:   "Reconcile and inspect individual cloud resources",
	}

	cmd.AddCommand(newResourceApplyCommand(deps))
	cmd.AddCommand(newResourceDiffCommand(deps))
	cmd.AddCommand(newResourceDeleteCommand(deps))
	cmd.AddCommand(newResourceGetCommand(deps))

	return cmd
}

func newResourceApplyCommand(deps Dependencies) *cobra.Command {
	var (
		file     string
		check    bool
		noUpdate bool
		format   string
		query    string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the remote resource to match its definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := loadRequest(cmd, file)
			if err != nil {
				return err
			}
			request.CheckMode = check
			if noUpdate {
				disabled := false
				request.Update = &disabled
			}

			recon, err := deps.reconciler()
			if err != nil {
				return err
			}

			result, err := recon.Reconcile(cmd.Context(), request)
			if err != nil {
				return err
			}

			if result.CheckMode {
				successf(cmd, "check: resource %s would change: %t", request.Name, result.Changed)
			} else if result.Changed {
				successf(cmd, "applied resource %s", request.Name)
			} else {
				successf(cmd, "resource %s is up to date", request.Name)
			}
			return printValue(cmd, reconcileOutput(result), format, query)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Resource definition file (YAML, \"-\" for stdin)")
	cmd.Flags().BoolVar(&check, "check", false, "Report what would change without mutating the remote resource")
	cmd.Flags().BoolVar(&noUpdate, "no-update", false, "Skip change detection and rewrite the resource unconditionally")
	addOutputFlags(cmd, &format, &query)

	return cmd
}

func newResourceDiffCommand(deps Dependencies) *cobra.Command {
	var (
		file   string
		format string
		query  string
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show whether a definition differs from the remote resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := loadRequest(cmd, file)
			if err != nil {
				return err
			}
			request.CheckMode = true

			recon, err := deps.reconciler()
			if err != nil {
				return err
			}

			result, err := recon.Reconcile(cmd.Context(), request)
			if err != nil {
				return err
			}

			successf(cmd, "resource %s would change: %t", request.Name, result.Changed)
			return printValue(cmd, reconcileOutput(result), format, query)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Resource definition file (YAML, \"-\" for stdin)")
	addOutputFlags(cmd, &format, &query)

	return cmd
}

func newResourceDeleteCommand(deps Dependencies) *cobra.Command {
	var (
		file   string
		check  bool
		format string
		query  string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the remote resource named by the definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := loadRequest(cmd, file)
			if err != nil {
				return err
			}
			request.State = resource.StateAbsent
			request.CheckMode = check

			recon, err := deps.reconciler()
			if err != nil {
				return err
			}

			result, err := recon.Reconcile(cmd.Context(), request)
			if err != nil {
				return err
			}

			switch {
			case result.CheckMode:
				successf(cmd, "check: resource %s would be deleted: %t", request.Name, result.Changed)
			case result.Changed:
				successf(cmd, "deleted resource %s", request.Name)
			default:
				successf(cmd, "resource %s is already absent", request.Name)
			}
			return printValue(cmd, reconcileOutput(result), format, query)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Resource definition file (YAML, \"-\" for stdin)")
	cmd.Flags().BoolVar(&check, "check", false, "Report what would change without mutating the remote resource")
	addOutputFlags(cmd, &format, &query)

	return cmd
}

func newResourceGetCommand(deps Dependencies) *cobra.Command {
	var (
		file   string
		id     resource.Identity
		format string
		query  string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the live state of a remote resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) != "" {
				request, err := loadRequest(cmd, file)
				if err != nil {
					return err
				}
				id = request.TargetIdentity()
			}
			if err := id.Validate(); err != nil {
				return usageError(cmd, err.Error())
			}

			client, err := deps.client()
			if err != nil {
				return err
			}

			if id.APIVersion == "" {
				id.APIVersion, err = metadata.ResolveAPIVersion(
					cmd.Context(),
					client,
					id.ProviderNamespace,
					id.ResourceType,
					id.ParentResourcePath,
				)
				if err != nil {
					return err
				}
			}

			state, err := client.GetResource(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printValue(cmd, state, format, query)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Resource definition file naming the resource to read")
	cmd.Flags().StringVar(&id.ResourceGroup, "resource-group", "", "Resource group holding the resource")
	cmd.Flags().StringVar(&id.ProviderNamespace, "namespace", "", "Resource provider namespace (for example Microsoft.Storage)")
	cmd.Flags().StringVar(&id.ParentResourcePath, "parent-path", "", "Parent resource path for nested resources (for example servers/myserver)")
	cmd.Flags().StringVar(&id.ResourceType, "resource-type", "", "Resource type within the provider namespace")
	cmd.Flags().StringVar(&id.Name, "name", "", "Resource name")
	cmd.Flags().StringVar(&id.APIVersion, "api-version", "", "API version to read with (resolved from the provider catalog when unset)")
	addOutputFlags(cmd, &format, &query)

	return cmd
}

func reconcileOutput(result reconciler.Result) map[string]any {
	output := map[string]any{
		"changed": result.Changed,
		"state":   result.State,
	}
	if result.CheckMode {
		output["check-mode"] = true
	}
	return output
}
