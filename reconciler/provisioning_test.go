package reconciler

import (
	"testing"

	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/resource"
)

func TestCheckProvisioningState(t *testing.T) {
	t.Parallel()

	t.Run("succeeded_passes", func(t *testing.T) {
		t.Parallel()

		observed := resource.State{"properties": map[string]any{"provisioningState": "Succeeded"}}
		if err := CheckProvisioningState(observed, resource.StatePresent); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("comparison_is_case_insensitive", func(t *testing.T) {
		t.Parallel()

		observed := resource.State{"provisioningState": "succeeded"}
		if err := CheckProvisioningState(observed, resource.StatePresent); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing_state_passes", func(t *testing.T) {
		t.Parallel()

		if err := CheckProvisioningState(resource.State{}, resource.StatePresent); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unsettled_state_fails_present", func(t *testing.T) {
		t.Parallel()

		observed := resource.State{"properties": map[string]any{"provisioningState": "Deleting"}}
		err := CheckProvisioningState(observed, resource.StatePresent)
		if !faults.IsCategory(err, faults.ConflictError) {
			t.Fatalf("expected conflict error, got %v", err)
		}
	})

	t.Run("absent_target_always_passes", func(t *testing.T) {
		t.Parallel()

		observed := resource.State{"properties": map[string]any{"provisioningState": "Failed"}}
		if err := CheckProvisioningState(observed, resource.StateAbsent); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
