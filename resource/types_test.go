package resource

import (
	"testing"

	"github.com/crmarques/declarm/faults"
	"github.com/google/go-cmp/cmp"
)

func TestIdentityValidate(t *testing.T) {
	t.Parallel()

	valid := Identity{
		ResourceGroup:     "rg",
		ProviderNamespace: "Microsoft.Compute",
		ResourceType:      "virtualMachines",
		Name:              "vm",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid identity, got %v", err)
	}

	missing := valid
	missing.Name = " "
	err := missing.Validate()
	if err == nil {
		t.Fatalf("expected error for missing name")
	}
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestStateTags(t *testing.T) {
	t.Parallel()

	state := State{"tags": map[string]any{"env": "prod", "count": 3}}
	got := StateTags(state)
	if diff := cmp.Diff(map[string]string{"env": "prod"}, got); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}

	if got := StateTags(State{}); got != nil {
		t.Fatalf("expected nil tags for state without tags, got %#v", got)
	}

	typed := State{"tags": map[string]string{"env": "dev"}}
	if diff := cmp.Diff(map[string]string{"env": "dev"}, StateTags(typed)); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}
}
