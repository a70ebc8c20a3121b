package metadata

import "context"

// Provider is a resource provider's type catalog as reported by the control
// plane.
type Provider struct {
	Namespace     string
	ResourceTypes []ProviderResourceType
}

// ProviderResourceType is one catalog entry: a resource type and the
// api-versions it exposes, in the order the control plane reports them.
type ProviderResourceType struct {
	ResourceType string
	APIVersions  []string
	Locations    []string
}

// ProviderCatalog is the narrow slice of the cloud client used for
// api-version resolution.
type ProviderCatalog interface {
	GetProvider(ctx context.Context, namespace string) (Provider, error)
}
