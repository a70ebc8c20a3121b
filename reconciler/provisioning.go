package reconciler

import (
	"fmt"
	"strings"

	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/resource"
)

// ProvisioningSucceeded is the settled backend lifecycle state.
const ProvisioningSucceeded = "Succeeded"

// CheckProvisioningState rejects writes against a resource whose backend
// lifecycle has not settled. Deletes are always allowed; a resource without
// a reported provisioning state passes.
func CheckProvisioningState(observed resource.State, target resource.TargetState) error {
	if target == resource.StateAbsent {
		return nil
	}

	state := provisioningState(observed)
	if state == "" || strings.EqualFold(state, ProvisioningSucceeded) {
		return nil
	}

	return faults.NewTypedError(
		faults.ConflictError,
		fmt.Sprintf("resource is in a provisioning state of %s", state),
		nil,
	)
}

func provisioningState(observed resource.State) string {
	if properties, ok := observed["properties"].(map[string]any); ok {
		if state, ok := properties["provisioningState"].(string); ok {
			return state
		}
	}
	if state, ok := observed["provisioningState"].(string); ok {
		return state
	}
	return ""
}
