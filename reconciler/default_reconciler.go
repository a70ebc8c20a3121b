package reconciler

import (
	"context"

	"github.com/crmarques/declarm/cloud"
	"github.com/crmarques/declarm/debugctx"
	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/metadata"
	"github.com/crmarques/declarm/resource"
)

var _ Reconciler = (*DefaultReconciler)(nil)

// DefaultReconciler drives one resource toward its requested state:
// fetch, diff, then create-or-update, delete, or nothing. One identity per
// run, synchronously; runs against different identities are independent.
type DefaultReconciler struct {
	Cloud cloud.ResourceClient
}

func (r *DefaultReconciler) Reconcile(ctx context.Context, request Request) (Result, error) {
	if r == nil || r.Cloud == nil {
		return Result{}, faults.NewTypedError(faults.ValidationError, "cloud client is not configured", nil)
	}
	if err := request.Validate(); err != nil {
		return Result{}, err
	}

	target := request.TargetState()
	desired := request.Spec()

	// The resource group must exist; its location is the default for an
	// unset desired location.
	group, err := r.Cloud.GetResourceGroup(ctx, request.ResourceGroup)
	if err != nil {
		return Result{}, err
	}
	if desired.Location == "" {
		desired.Location, _ = group["location"].(string)
	}

	id := request.TargetIdentity()
	if id.APIVersion == "" {
		id.APIVersion, err = metadata.ResolveAPIVersion(
			ctx,
			r.Cloud,
			request.ProviderNamespace,
			request.ResourceType,
			request.ParentResourcePath,
		)
		if err != nil {
			return Result{}, err
		}
	}
	// id.APIVersion is now fixed for the rest of the run: the same version
	// backs the fetch and any write or delete that follows.

	result := Result{State: resource.State{}, CheckMode: request.CheckMode}
	changed := false

	debugctx.Printf(ctx, "fetching resource %q with api-version %s", request.Name, id.APIVersion)
	observed, err := r.Cloud.GetResource(ctx, id)
	switch {
	case err == nil:
		result.State = observed
		if err := CheckProvisioningState(observed, target); err != nil {
			return Result{}, err
		}

		if target == resource.StatePresent && request.UpdateEnabled() {
			changed, result.State = resource.DetectChange(desired, observed)
			tagsChanged, mergedTags := resource.MergeTags(
				resource.StateTags(observed),
				desired.Tags,
				request.AppendTagsEnabled(),
			)
			result.State["tags"] = mergedTags
			if tagsChanged {
				changed = true
			}
		} else {
			// Existence alone forces a write: either update checking was
			// opted out of, or an absent state makes the delete pending.
			changed = true
		}
	case cloud.IsTooManyServerErrors(err):
		// Some endpoints answer repeated 500s instead of 404 for resources
		// that do not exist (RecoveryVault backup items, amongst others).
		// Treat as not found; changed stays false.
		debugctx.Printf(ctx, "resource %q fetch hit repeated server errors; treating as absent", request.Name)
		result.State = desiredState(desired)
	default:
		// A failed fetch means the resource is absent as far as this run can
		// tell. Absence makes any present-state request a change and an
		// absent-state request a no-op; the error itself is not surfaced.
		debugctx.Printf(ctx, "resource %q fetch failed (%v); treating as absent", request.Name, err)
		changed = target == resource.StatePresent
		result.State = desiredState(desired)
	}

	result.Changed = changed

	if request.CheckMode {
		debugctx.Printf(ctx, "check mode: no mutation issued for resource %q", request.Name)
		return result, nil
	}
	if !changed {
		return result, nil
	}

	switch target {
	case resource.StatePresent:
		written, err := r.Cloud.CreateOrUpdateResource(ctx, id, writePayload(result.State))
		if err != nil {
			return Result{}, NewWriteError(request.Name, err)
		}
		result.State = written
	case resource.StateAbsent:
		if err := r.Cloud.DeleteResource(ctx, id); err != nil {
			return Result{}, NewDeleteError(request.Name, err)
		}
	}

	return result, nil
}

// desiredState serializes a desired specification into the state shape used
// for write payloads when no observed state exists.
func desiredState(desired resource.Spec) resource.State {
	state := resource.State{}
	if desired.Location != "" {
		state["location"] = desired.Location
	}
	if len(desired.Tags) > 0 {
		state["tags"] = desired.Tags
	}
	if len(desired.Plan) > 0 {
		state["plan"] = desired.Plan
	}
	if len(desired.Properties) > 0 {
		state["properties"] = desired.Properties
	}
	if desired.Kind != "" {
		state["kind"] = desired.Kind
	}
	if desired.ManagedBy != "" {
		state["managedBy"] = desired.ManagedBy
	}
	if len(desired.SKU) > 0 {
		state["sku"] = desired.SKU
	}
	if len(desired.Identity) > 0 {
		state["identity"] = desired.Identity
	}
	return state
}

// writePayload narrows a merged state to the fields the write API accepts.
// The plan, sku, and identity sub-objects are included only when present.
func writePayload(state resource.State) resource.State {
	payload := resource.State{}
	for _, field := range []string{"location", "tags", "properties", "kind", "managedBy"} {
		if value, found := state[field]; found && value != nil {
			payload[field] = value
		}
	}
	for _, field := range []string{"plan", "sku", "identity"} {
		if value, found := state[field]; found && !emptyObject(value) {
			payload[field] = value
		}
	}
	return payload
}

func emptyObject(value any) bool {
	if value == nil {
		return true
	}
	if object, ok := value.(map[string]any); ok {
		return len(object) == 0
	}
	return false
}
