package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/declarm/metadata"
)

// staticCatalog resolves against an already-fetched provider document so the
// listing and the resolution share one catalog read.
type staticCatalog struct {
	provider metadata.Provider
}

func (c staticCatalog) GetProvider(ctx context.Context, namespace string) (metadata.Provider, error) {
	return c.provider, nil
}

func newProviderCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "provider",
		GroupID: groupUserFacing,
		Short:   "Inspect resource provider catalogs",
	}

	cmd.AddCommand(newProviderAPIVersionsCommand(deps))

	return cmd
}

func newProviderAPIVersionsCommand(deps Dependencies) *cobra.Command {
	var (
		namespace    string
		resourceType string
		parentPath   string
		format       string
		query        string
	)

	cmd := &cobra.Command{
		Use:   "api-versions",
		Short: "List the api-versions a resource type exposes and the one a run would pick",
		RunE: func(cmd *cobra.Command, args []string) error {
			if namespace == "" || resourceType == "" {
				return usageError(cmd, "both --namespace and --resource-type are required")
			}

			client, err := deps.client()
			if err != nil {
				return err
			}

			provider, err := client.GetProvider(cmd.Context(), namespace)
			if err != nil {
				return err
			}

			resolved, err := metadata.ResolveAPIVersion(
				cmd.Context(),
				staticCatalog{provider: provider},
				namespace,
				resourceType,
				parentPath,
			)
			if err != nil {
				return err
			}

			available := []string{}
			for _, entry := range provider.ResourceTypes {
				if strings.EqualFold(entry.ResourceType, resourceType) {
					available = entry.APIVersions
					break
				}
			}

			output := map[string]any{
				"namespace":     provider.Namespace,
				"resource-type": resourceType,
				"resolved":      resolved,
				"available":     available,
			}
			return printValue(cmd, output, format, query)
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Resource provider namespace (for example Microsoft.Storage)")
	cmd.Flags().StringVar(&resourceType, "resource-type", "", "Resource type within the provider namespace")
	cmd.Flags().StringVar(&parentPath, "parent-path", "", "Parent resource path for nested resources")
	addOutputFlags(cmd, &format, &query)

	return cmd
}
