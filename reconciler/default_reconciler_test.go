package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/crmarques/declarm/cloud"
	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/metadata"
	"github.com/crmarques/declarm/resource"
	"github.com/google/go-cmp/cmp"
)

type fakeCloudClient struct {
	provider    metadata.Provider
	providerErr error
	group       resource.State
	groupErr    error
	resource    resource.State
	getErr      error
	written     resource.State
	writeErr    error
	deleteErr   error

	providerCalls int
	getVersions   []string
	writeVersions []string
	writePayloads []resource.State
	deleteCalls   int
	deleteVersion string
}

func (f *fakeCloudClient) GetProvider(_ context.Context, _ string) (metadata.Provider, error) {
	f.providerCalls++
	if f.providerErr != nil {
		return metadata.Provider{}, f.providerErr
	}
	return f.provider, nil
}

func (f *fakeCloudClient) GetResourceGroup(_ context.Context, _ string) (resource.State, error) {
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	if f.group == nil {
		return resource.State{"location": "eastus"}, nil
	}
	return f.group, nil
}

func (f *fakeCloudClient) GetResource(_ context.Context, id resource.Identity) (resource.State, error) {
	f.getVersions = append(f.getVersions, id.APIVersion)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.resource, nil
}

func (f *fakeCloudClient) CreateOrUpdateResource(_ context.Context, id resource.Identity, payload resource.State) (resource.State, error) {
	f.writeVersions = append(f.writeVersions, id.APIVersion)
	f.writePayloads = append(f.writePayloads, payload)
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.written != nil {
		return f.written, nil
	}
	return payload, nil
}

func (f *fakeCloudClient) DeleteResource(_ context.Context, id resource.Identity) error {
	f.deleteCalls++
	f.deleteVersion = id.APIVersion
	return f.deleteErr
}

func computeProvider() metadata.Provider {
	return metadata.Provider{
		Namespace: "Microsoft.Compute",
		ResourceTypes: []metadata.ProviderResourceType{
			{ResourceType: "virtualMachines", APIVersions: []string{"2021-03-01", "2021-03-01-preview"}},
		},
	}
}

func presentRequest() Request {
	return Request{
		ResourceGroup:     "rg",
		ProviderNamespace: "Microsoft.Compute",
		ResourceType:      "virtualMachines",
		Name:              "vm",
		Location:          "eastus",
		Properties: map[string]any{
			"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
		},
	}
}

func boolPtr(value bool) *bool { return &value }

func notFoundErr() error {
	return faults.NewTypedError(faults.NotFoundError, "resource not found", nil)
}

func TestReconcileCreate(t *testing.T) {
	t.Parallel()

	client := &fakeCloudClient{provider: computeProvider(), getErr: notFoundErr()}
	r := &DefaultReconciler{Cloud: client}

	result, err := r.Reconcile(context.Background(), presentRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Fatalf("expected changed=true for missing resource")
	}
	if len(client.writePayloads) != 1 {
		t.Fatalf("expected one write, got %d", len(client.writePayloads))
	}

	payload := client.writePayloads[0]
	if payload["location"] != "eastus" {
		t.Fatalf("expected desired location in write payload, got %v", payload["location"])
	}
	if _, found := payload["properties"]; !found {
		t.Fatalf("expected desired properties in write payload")
	}
	if _, found := payload["plan"]; found {
		t.Fatalf("expected absent plan to stay out of the write payload")
	}
}

func TestReconcileAPIVersionIsResolvedOnceAndHeldConstant(t *testing.T) {
	t.Parallel()

	client := &fakeCloudClient{provider: computeProvider(), getErr: notFoundErr()}
	r := &DefaultReconciler{Cloud: client}

	if _, err := r.Reconcile(context.Background(), presentRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.providerCalls != 1 {
		t.Fatalf("expected one provider catalog read, got %d", client.providerCalls)
	}
	if len(client.getVersions) != 1 || client.getVersions[0] != "2021-03-01" {
		t.Fatalf("expected fetch with resolved stable version, got %v", client.getVersions)
	}
	if len(client.writeVersions) != 1 || client.writeVersions[0] != "2021-03-01" {
		t.Fatalf("expected write with the same version as the fetch, got %v", client.writeVersions)
	}
}

func TestReconcileExplicitAPIVersionSkipsResolution(t *testing.T) {
	t.Parallel()

	client := &fakeCloudClient{getErr: notFoundErr()}
	r := &DefaultReconciler{Cloud: client}

	request := presentRequest()
	request.APIVersion = "2019-07-01"
	if _, err := r.Reconcile(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.providerCalls != 0 {
		t.Fatalf("expected no provider catalog read, got %d", client.providerCalls)
	}
	if client.getVersions[0] != "2019-07-01" {
		t.Fatalf("expected caller-supplied version, got %v", client.getVersions)
	}
}

func TestReconcileIdempotentSecondRun(t *testing.T) {
	t.Parallel()

	first := &fakeCloudClient{provider: computeProvider(), getErr: notFoundErr()}
	r := &DefaultReconciler{Cloud: first}
	request := presentRequest()

	firstResult, err := r.Reconcile(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}
	if !firstResult.Changed {
		t.Fatalf("expected first run to report a change")
	}

	second := &fakeCloudClient{provider: computeProvider(), resource: firstResult.State}
	r = &DefaultReconciler{Cloud: second}

	secondResult, err := r.Reconcile(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if secondResult.Changed {
		t.Fatalf("expected second run over written state to be a no-op")
	}
	if len(second.writePayloads) != 0 {
		t.Fatalf("expected no write on the second run")
	}
}

func TestReconcileUpdateOnDrift(t *testing.T) {
	t.Parallel()

	observed := resource.State{
		"location": "eastus",
		"properties": map[string]any{
			"hardwareProfile": map[string]any{"vmSize": "Standard_D1_v2"},
		},
		"tags": map[string]any{"env": "prod"},
	}
	client := &fakeCloudClient{provider: computeProvider(), resource: observed}
	r := &DefaultReconciler{Cloud: client}

	result, err := r.Reconcile(context.Background(), presentRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Fatalf("expected drifted properties to report a change")
	}
	if len(client.writePayloads) != 1 {
		t.Fatalf("expected one write, got %d", len(client.writePayloads))
	}
	if diff := cmp.Diff(map[string]string{"env": "prod"}, client.writePayloads[0]["tags"]); diff != "" {
		t.Fatalf("expected observed tags preserved in payload (-want +got):\n%s", diff)
	}
}

func TestReconcileTagChangeAlone(t *testing.T) {
	t.Parallel()

	observed := resource.State{
		"location": "eastus",
		"properties": map[string]any{
			"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
		},
	}
	client := &fakeCloudClient{provider: computeProvider(), resource: observed}
	r := &DefaultReconciler{Cloud: client}

	request := presentRequest()
	request.Tags = map[string]string{"env": "prod"}

	result, err := r.Reconcile(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Fatalf("expected tag-only difference to report a change")
	}
	if diff := cmp.Diff(map[string]string{"env": "prod"}, client.writePayloads[0]["tags"]); diff != "" {
		t.Fatalf("unexpected tags in payload (-want +got):\n%s", diff)
	}
}

func TestReconcileForcedTouchWithoutUpdate(t *testing.T) {
	t.Parallel()

	observed := resource.State{
		"location": "eastus",
		"properties": map[string]any{
			"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
		},
	}
	client := &fakeCloudClient{provider: computeProvider(), resource: observed}
	r := &DefaultReconciler{Cloud: client}

	request := presentRequest()
	request.Update = boolPtr(false)

	result, err := r.Reconcile(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Fatalf("expected changed=true with update checking disabled")
	}
	if len(client.writePayloads) != 1 {
		t.Fatalf("expected the forced write to be issued")
	}
}

func TestReconcileAbsent(t *testing.T) {
	t.Parallel()

	t.Run("missing_resource_is_noop", func(t *testing.T) {
		t.Parallel()

		client := &fakeCloudClient{
			provider: computeProvider(),
			getErr:   faults.NewTypedError(faults.TransportError, "remote request failed", errors.New("boom")),
		}
		r := &DefaultReconciler{Cloud: client}

		request := presentRequest()
		request.State = resource.StateAbsent

		result, err := r.Reconcile(context.Background(), request)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Changed {
			t.Fatalf("expected changed=false when nothing exists to delete")
		}
		if client.deleteCalls != 0 {
			t.Fatalf("expected no delete call, got %d", client.deleteCalls)
		}
	})

	t.Run("existing_resource_is_deleted", func(t *testing.T) {
		t.Parallel()

		client := &fakeCloudClient{
			provider: computeProvider(),
			resource: resource.State{"location": "eastus"},
		}
		r := &DefaultReconciler{Cloud: client}

		request := presentRequest()
		request.State = resource.StateAbsent

		result, err := r.Reconcile(context.Background(), request)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Changed {
			t.Fatalf("expected changed=true for pending delete")
		}
		if client.deleteCalls != 1 {
			t.Fatalf("expected one delete call, got %d", client.deleteCalls)
		}
		if client.deleteVersion != "2021-03-01" {
			t.Fatalf("expected delete with the resolved api-version, got %q", client.deleteVersion)
		}
	})
}

func TestReconcileCheckMode(t *testing.T) {
	t.Parallel()

	t.Run("reports_change_without_mutating", func(t *testing.T) {
		t.Parallel()

		client := &fakeCloudClient{provider: computeProvider(), getErr: notFoundErr()}
		r := &DefaultReconciler{Cloud: client}

		request := presentRequest()
		request.CheckMode = true

		result, err := r.Reconcile(context.Background(), request)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Changed {
			t.Fatalf("expected check mode to report the pending change")
		}
		if !result.CheckMode {
			t.Fatalf("expected check-mode flag in result")
		}
		if len(client.writePayloads) != 0 || client.deleteCalls != 0 {
			t.Fatalf("expected no mutating calls in check mode")
		}
	})

	t.Run("matches_non_check_changed_flag", func(t *testing.T) {
		t.Parallel()

		observed := resource.State{
			"location": "eastus",
			"properties": map[string]any{
				"hardwareProfile": map[string]any{"vmSize": "Standard_D2_v2"},
			},
		}

		checkClient := &fakeCloudClient{provider: computeProvider(), resource: observed}
		checkRequest := presentRequest()
		checkRequest.CheckMode = true
		checkResult, err := (&DefaultReconciler{Cloud: checkClient}).Reconcile(context.Background(), checkRequest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		liveClient := &fakeCloudClient{provider: computeProvider(), resource: observed}
		liveResult, err := (&DefaultReconciler{Cloud: liveClient}).Reconcile(context.Background(), presentRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if checkResult.Changed != liveResult.Changed {
			t.Fatalf("check mode changed=%v diverges from live changed=%v", checkResult.Changed, liveResult.Changed)
		}
	})
}

func TestReconcileTooManyServerErrorsSignal(t *testing.T) {
	t.Parallel()

	client := &fakeCloudClient{
		provider: computeProvider(),
		getErr:   faults.NewTypedError(faults.TransportError, cloud.TooManyServerErrors, nil),
	}
	r := &DefaultReconciler{Cloud: client}

	result, err := r.Reconcile(context.Background(), presentRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Changed {
		t.Fatalf("expected changed=false for the repeated-500 workaround")
	}
	if len(client.writePayloads) != 0 {
		t.Fatalf("expected no write after the repeated-500 workaround")
	}
}

func TestReconcileProvisioningStateBlocksWrite(t *testing.T) {
	t.Parallel()

	client := &fakeCloudClient{
		provider: computeProvider(),
		resource: resource.State{
			"location":   "eastus",
			"properties": map[string]any{"provisioningState": "Updating"},
		},
	}
	r := &DefaultReconciler{Cloud: client}

	_, err := r.Reconcile(context.Background(), presentRequest())
	if !faults.IsCategory(err, faults.ConflictError) {
		t.Fatalf("expected conflict error for unsettled provisioning state, got %v", err)
	}
	if len(client.writePayloads) != 0 {
		t.Fatalf("expected no write after provisioning-state failure")
	}
}

func TestReconcileMutationFailures(t *testing.T) {
	t.Parallel()

	t.Run("write_failure_is_fatal", func(t *testing.T) {
		t.Parallel()

		client := &fakeCloudClient{
			provider: computeProvider(),
			getErr:   notFoundErr(),
			writeErr: faults.NewTypedError(faults.TransportError, "remote request failed", errors.New("503")),
		}
		r := &DefaultReconciler{Cloud: client}

		_, err := r.Reconcile(context.Background(), presentRequest())
		if !IsWriteError(err) {
			t.Fatalf("expected write error, got %v", err)
		}
	})

	t.Run("delete_failure_is_fatal", func(t *testing.T) {
		t.Parallel()

		client := &fakeCloudClient{
			provider:  computeProvider(),
			resource:  resource.State{"location": "eastus"},
			deleteErr: faults.NewTypedError(faults.TransportError, "remote request failed", errors.New("503")),
		}
		r := &DefaultReconciler{Cloud: client}

		request := presentRequest()
		request.State = resource.StateAbsent

		_, err := r.Reconcile(context.Background(), request)
		if !IsDeleteError(err) {
			t.Fatalf("expected delete error, got %v", err)
		}
	})
}

func TestReconcileDefaultsLocationFromResourceGroup(t *testing.T) {
	t.Parallel()

	client := &fakeCloudClient{
		provider: computeProvider(),
		group:    resource.State{"location": "westeurope"},
		getErr:   notFoundErr(),
	}
	r := &DefaultReconciler{Cloud: client}

	request := presentRequest()
	request.Location = ""

	if _, err := r.Reconcile(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.writePayloads[0]["location"] != "westeurope" {
		t.Fatalf("expected resource-group location default, got %v", client.writePayloads[0]["location"])
	}
}

func TestReconcileMissingResourceGroupIsFatal(t *testing.T) {
	t.Parallel()

	groupErr := faults.NewTypedError(faults.NotFoundError, "resource group rg not found", nil)
	client := &fakeCloudClient{provider: computeProvider(), groupErr: groupErr}
	r := &DefaultReconciler{Cloud: client}

	_, err := r.Reconcile(context.Background(), presentRequest())
	if !errors.Is(err, groupErr) {
		t.Fatalf("expected resource group error surfaced, got %v", err)
	}
}

func TestReconcileValidatesRequest(t *testing.T) {
	t.Parallel()

	r := &DefaultReconciler{Cloud: &fakeCloudClient{}}

	request := presentRequest()
	request.Name = ""
	if _, err := r.Reconcile(context.Background(), request); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}

	request = presentRequest()
	request.State = "paused"
	if _, err := r.Reconcile(context.Background(), request); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error for invalid state, got %v", err)
	}
}
