package resource

import (
	"strings"

	"github.com/crmarques/declarm/faults"
)

type Value = any

// State is the serialized wire shape of a resource as the Resource Manager
// API returns it: a plain string-keyed mapping with nested mappings,
// sequences, and scalars.
type State = map[string]any

type TargetState string

const (
	StatePresent TargetState = "present"
	StateAbsent  TargetState = "absent"
)

// Identity addresses one resource instance within a subscription. Once the
// api-version is resolved for a reconciliation run the identity is held
// constant through fetch, write, and delete.
type Identity struct {
	ResourceGroup      string
	ProviderNamespace  string
	ParentResourcePath string
	ResourceType       string
	Name               string
	APIVersion         string
}

func (id Identity) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"resource-group", id.ResourceGroup},
		{"provider-namespace", id.ProviderNamespace},
		{"resource-type", id.ResourceType},
		{"name", id.Name},
	} {
		if strings.TrimSpace(field.value) == "" {
			return faults.NewTypedError(faults.ValidationError, "resource "+field.name+" is required", nil)
		}
	}
	return nil
}

// Spec is the caller-declared target shape of a resource. All fields are
// optional; empty fields never participate in change detection, and the value
// is never mutated by the reconciliation core.
type Spec struct {
	Location   string
	Tags       map[string]string
	Plan       map[string]any
	Properties map[string]any
	Kind       string
	ManagedBy  string
	SKU        map[string]any
	Identity   map[string]any
}

// CloneState returns a shallow copy of a state mapping. Nested values are
// shared with the original.
func CloneState(state State) State {
	cloned := make(State, len(state))
	for key, value := range state {
		cloned[key] = value
	}
	return cloned
}

// StateTags extracts the tags mapping from a serialized state, tolerating
// both map[string]string and the map[string]any shape JSON decoding yields.
func StateTags(state State) map[string]string {
	raw, found := state["tags"]
	if !found || raw == nil {
		return nil
	}

	switch typed := raw.(type) {
	case map[string]string:
		return typed
	case map[string]any:
		tags := make(map[string]string, len(typed))
		for key, value := range typed {
			if text, ok := value.(string); ok {
				tags[key] = text
			}
		}
		return tags
	default:
		return nil
	}
}
