package reconciler

import (
	"context"
	"strings"

	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/resource"
)

// Request describes one resource to reconcile: its identity, its desired
// declarative shape, and how the run should behave. Field names mirror the
// declarative YAML schema.
type Request struct {
	ResourceGroup      string `yaml:"resource-group"`
	ProviderNamespace  string `yaml:"provider-namespace"`
	ParentResourcePath string `yaml:"parent-resource-path,omitempty"`
	ResourceType       string `yaml:"resource-type"`
	Name               string `yaml:"name"`
	APIVersion         string `yaml:"api-version,omitempty"`

	Location   string            `yaml:"location,omitempty"`
	Tags       map[string]string `yaml:"tags,omitempty"`
	Plan       map[string]any    `yaml:"plan,omitempty"`
	Properties map[string]any    `yaml:"properties,omitempty"`
	Kind       string            `yaml:"kind,omitempty"`
	ManagedBy  string            `yaml:"managed-by,omitempty"`
	SKU        map[string]any    `yaml:"sku,omitempty"`
	Identity   map[string]any    `yaml:"identity,omitempty"`

	State      resource.TargetState `yaml:"state,omitempty"`
	Update     *bool                `yaml:"update,omitempty"`
	AppendTags *bool                `yaml:"append-tags,omitempty"`

	CheckMode bool `yaml:"-"`
}

// Result is the sole output of a reconciliation run. State is the post-merge
// resource description in check mode and the post-write description
// otherwise.
type Result struct {
	Changed   bool
	State     resource.State
	CheckMode bool
}

type Reconciler interface {
	Reconcile(ctx context.Context, request Request) (Result, error)
}

// TargetIdentity builds the resource identity addressed by this request. It
// is distinct from the Identity field, which carries the resource's managed
// identity sub-object.
func (r Request) TargetIdentity() resource.Identity {
	return resource.Identity{
		ResourceGroup:      r.ResourceGroup,
		ProviderNamespace:  r.ProviderNamespace,
		ParentResourcePath: r.ParentResourcePath,
		ResourceType:       r.ResourceType,
		Name:               r.Name,
		APIVersion:         r.APIVersion,
	}
}

func (r Request) Spec() resource.Spec {
	return resource.Spec{
		Location:   r.Location,
		Tags:       r.Tags,
		Plan:       r.Plan,
		Properties: r.Properties,
		Kind:       r.Kind,
		ManagedBy:  r.ManagedBy,
		SKU:        r.SKU,
		Identity:   r.Identity,
	}
}

// TargetState returns the requested state, defaulting to present.
func (r Request) TargetState() resource.TargetState {
	if r.State == "" {
		return resource.StatePresent
	}
	return r.State
}

// UpdateEnabled reports whether an existing resource should be compared and
// updated. Defaults to true; disabling it forces a write on every run.
func (r Request) UpdateEnabled() bool {
	if r.Update == nil {
		return true
	}
	return *r.Update
}

// AppendTagsEnabled reports whether desired tags are overlaid onto existing
// tags (default) or replace them.
func (r Request) AppendTagsEnabled() bool {
	if r.AppendTags == nil {
		return true
	}
	return *r.AppendTags
}

func (r Request) Validate() error {
	if err := r.TargetIdentity().Validate(); err != nil {
		return err
	}

	switch strings.TrimSpace(string(r.TargetState())) {
	case string(resource.StatePresent), string(resource.StateAbsent):
		return nil
	default:
		return faults.NewTypedError(
			faults.ValidationError,
			"state must be present or absent",
			nil,
		)
	}
}
