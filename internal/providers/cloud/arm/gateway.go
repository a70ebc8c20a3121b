package arm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/crmarques/declarm/cloud"
	"github.com/crmarques/declarm/config"
	"github.com/crmarques/declarm/debugctx"
	"github.com/crmarques/declarm/metadata"
	"github.com/crmarques/declarm/resource"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMediaType   = "application/json"

	// Providers and resource groups are read through the stable control
	// plane metadata surface, independent of the reconciled resource's own
	// api-version.
	metadataAPIVersion = "2021-04-01"

	defaultRequestsPerSecond = 10
	defaultRequestBurst      = 10

	defaultPollInitialInterval = 2 * time.Second
	defaultPollMaxInterval     = 30 * time.Second
	defaultPollDeadline        = 30 * time.Minute

	// Reads are retried a few times on server errors before the gateway
	// gives up with the repeated-500 signal.
	defaultReadRetryLimit    = 3
	defaultReadRetryInterval = 500 * time.Millisecond
)

var _ cloud.ResourceClient = (*Gateway)(nil)

// Gateway talks to the Azure Resource Manager REST surface on behalf of the
// reconciler. It owns authentication, request throttling, error
// classification, and long-running-operation polling.
type Gateway struct {
	baseURL        *url.URL
	subscriptionID string
	auth           authConfig
	client         *http.Client
	limiter        *rate.Limiter

	pollInitialInterval time.Duration
	pollMaxInterval     time.Duration
	pollDeadline        time.Duration
	readRetryLimit      uint64
	readRetryInterval   time.Duration

	tokenMu        sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

type GatewayOption func(*Gateway)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if g == nil || client == nil {
			return
		}
		g.client = client
	}
}

func WithPollIntervals(initial, max, deadline time.Duration) GatewayOption {
	return func(g *Gateway) {
		if g == nil {
			return
		}
		if initial > 0 {
			g.pollInitialInterval = initial
		}
		if max > 0 {
			g.pollMaxInterval = max
		}
		if deadline > 0 {
			g.pollDeadline = deadline
		}
	}
}

func WithRateLimit(perSecond float64, burst int) GatewayOption {
	return func(g *Gateway) {
		if g == nil || perSecond <= 0 || burst <= 0 {
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func NewGateway(cfg config.Cloud, opts ...GatewayOption) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := buildAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	gateway := &Gateway{
		baseURL:             baseURL,
		subscriptionID:      cfg.SubscriptionID,
		auth:                auth,
		client:              &http.Client{Timeout: timeout},
		limiter:             rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestBurst),
		pollInitialInterval: defaultPollInitialInterval,
		pollMaxInterval:     defaultPollMaxInterval,
		pollDeadline:        defaultPollDeadline,
		readRetryLimit:      defaultReadRetryLimit,
		readRetryInterval:   defaultReadRetryInterval,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(gateway)
	}
	return gateway, nil
}

func (g *Gateway) GetProvider(ctx context.Context, namespace string) (metadata.Provider, error) {
	if strings.TrimSpace(namespace) == "" {
		return metadata.Provider{}, validationError("provider namespace is required", nil)
	}

	result, err := g.do(ctx, http.MethodGet, g.providerPath(namespace), metadataQuery(), nil)
	if err != nil {
		return metadata.Provider{}, err
	}
	if result.status >= http.StatusBadRequest {
		return metadata.Provider{}, classifyStatusError(result.status, result.body)
	}

	return decodeProvider(result.body)
}

func (g *Gateway) GetResourceGroup(ctx context.Context, name string) (resource.State, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationError("resource group name is required", nil)
	}

	result, err := g.do(ctx, http.MethodGet, g.resourceGroupPath(name), metadataQuery(), nil)
	if err != nil {
		return nil, err
	}
	if result.status >= http.StatusBadRequest {
		return nil, classifyStatusError(result.status, result.body)
	}

	return decodeState(result.body)
}

var errServerError = errors.New("server error")

func (g *Gateway) GetResource(ctx context.Context, id resource.Identity) (resource.State, error) {
	requestPath, err := g.resourcePath(id)
	if err != nil {
		return nil, err
	}
	query := url.Values{"api-version": []string{id.APIVersion}}

	var outcome *httpResult
	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(g.retryBackOff(), g.readRetryLimit),
		ctx,
	)
	retryErr := backoff.Retry(func() error {
		result, doErr := g.do(ctx, http.MethodGet, requestPath, query, nil)
		if doErr != nil {
			return backoff.Permanent(doErr)
		}
		if result.status >= http.StatusInternalServerError {
			debugctx.Printf(ctx, "resource fetch answered %d; retrying", result.status)
			return fmt.Errorf("%w: status %d", errServerError, result.status)
		}
		outcome = result
		return nil
	}, retryPolicy)

	if retryErr != nil {
		if errors.Is(retryErr, errServerError) {
			return nil, transportError(cloud.TooManyServerErrors, retryErr)
		}
		return nil, retryErr
	}
	if outcome.status >= http.StatusBadRequest {
		return nil, classifyStatusError(outcome.status, outcome.body)
	}

	return decodeState(outcome.body)
}

func (g *Gateway) CreateOrUpdateResource(
	ctx context.Context,
	id resource.Identity,
	payload resource.State,
) (resource.State, error) {
	requestPath, err := g.resourcePath(id)
	if err != nil {
		return nil, err
	}
	query := url.Values{"api-version": []string{id.APIVersion}}

	result, err := g.do(ctx, http.MethodPut, requestPath, query, payload)
	if err != nil {
		return nil, err
	}
	if result.status >= http.StatusBadRequest {
		return nil, classifyStatusError(result.status, result.body)
	}

	if err := g.waitForCompletion(ctx, result); err != nil {
		return nil, err
	}

	// Read back so callers see computed fields the write response may omit.
	final, err := g.do(ctx, http.MethodGet, requestPath, query, nil)
	if err != nil {
		return nil, err
	}
	if final.status >= http.StatusBadRequest {
		return nil, classifyStatusError(final.status, final.body)
	}
	return decodeState(final.body)
}

func (g *Gateway) DeleteResource(ctx context.Context, id resource.Identity) error {
	requestPath, err := g.resourcePath(id)
	if err != nil {
		return err
	}
	query := url.Values{"api-version": []string{id.APIVersion}}

	result, err := g.do(ctx, http.MethodDelete, requestPath, query, nil)
	if err != nil {
		return err
	}
	if result.status >= http.StatusBadRequest {
		return classifyStatusError(result.status, result.body)
	}

	return g.waitForCompletion(ctx, result)
}

func (g *Gateway) retryBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.readRetryInterval
	policy.MaxInterval = 10 * g.readRetryInterval
	policy.MaxElapsedTime = 0
	return policy
}

func (g *Gateway) requestID() string {
	return uuid.NewString()
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, validationError("cloud.base-url is invalid", err)
	}
	return parsed, nil
}

func metadataQuery() url.Values {
	return url.Values{"api-version": []string{metadataAPIVersion}}
}
