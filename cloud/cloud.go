package cloud

import (
	"context"
	"strings"

	"github.com/crmarques/declarm/faults"
	"github.com/crmarques/declarm/metadata"
	"github.com/crmarques/declarm/resource"
)

// ResourceClient is the control-plane surface the reconciler depends on.
// CreateOrUpdateResource and DeleteResource block until the backend reports
// the operation complete, polling long-running operations internally.
type ResourceClient interface {
	GetProvider(ctx context.Context, namespace string) (metadata.Provider, error)
	GetResourceGroup(ctx context.Context, name string) (resource.State, error)
	GetResource(ctx context.Context, id resource.Identity) (resource.State, error)
	CreateOrUpdateResource(ctx context.Context, id resource.Identity, payload resource.State) (resource.State, error)
	DeleteResource(ctx context.Context, id resource.Identity) error
}

// TooManyServerErrors is the transport signal some endpoints emit instead of
// a not-found answer for resources that do not exist: repeated 500 responses
// until the client gives up retrying.
const TooManyServerErrors = "too many 500 error responses"

// IsTooManyServerErrors reports whether err carries the transient
// repeated-500 signal. Callers treat it as resource-not-found rather than as
// a failure.
func IsTooManyServerErrors(err error) bool {
	if err == nil {
		return false
	}
	return faults.IsCategory(err, faults.TransportError) &&
		strings.Contains(err.Error(), TooManyServerErrors)
}

// IsNotFound reports whether err marks a missing remote object.
func IsNotFound(err error) bool {
	return faults.IsCategory(err, faults.NotFoundError)
}
