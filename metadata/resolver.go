package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/crmarques/declarm/faults"
)

// ResolveAPIVersion picks a deterministic api-version for a resource type
// from the provider's catalog. Stable versions are preferred in catalog
// order; a preview version is returned only when nothing else is available.
// The policy mirrors the Azure CLI so resolved versions line up with what
// provider tooling expects.
func ResolveAPIVersion(
	ctx context.Context,
	catalog ProviderCatalog,
	namespace string,
	resourceType string,
	parentResourcePath string,
) (string, error) {
	if catalog == nil {
		return "", faults.NewTypedError(faults.ValidationError, "provider catalog is not configured", nil)
	}
	if strings.TrimSpace(namespace) == "" {
		return "", faults.NewTypedError(faults.ValidationError, "provider namespace is required", nil)
	}
	if strings.TrimSpace(resourceType) == "" {
		return "", faults.NewTypedError(faults.ValidationError, "resource type is required", nil)
	}

	provider, err := catalog.GetProvider(ctx, namespace)
	if err != nil {
		return "", err
	}

	// Errors name the parent's leading type segment when a parent path is
	// set, matching how the upstream tooling reports nested resources.
	reportedType := resourceType
	if trimmed := strings.Trim(strings.TrimSpace(parentResourcePath), "/"); trimmed != "" {
		reportedType = strings.SplitN(trimmed, "/", 2)[0]
	}

	matches := make([]ProviderResourceType, 0, 1)
	for _, entry := range provider.ResourceTypes {
		if strings.EqualFold(entry.ResourceType, resourceType) {
			matches = append(matches, entry)
		}
	}

	if len(matches) == 0 {
		return "", faults.NewTypedError(
			faults.NotFoundError,
			fmt.Sprintf("resource type %s not found", reportedType),
			nil,
		)
	}
	if len(matches) != 1 || len(matches[0].APIVersions) == 0 {
		return "", faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("api-version is required and could not be resolved for resource %s", reportedType),
			nil,
		)
	}

	for _, version := range matches[0].APIVersions {
		if !strings.Contains(strings.ToLower(version), "preview") {
			return version, nil
		}
	}
	return matches[0].APIVersions[0], nil
}
