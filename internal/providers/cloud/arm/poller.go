package arm

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/crmarques/declarm/debugctx"
)

const (
	asyncOperationHeader = "Azure-AsyncOperation"
	locationHeader       = "Location"
	retryAfterHeader     = "Retry-After"
)

// waitForCompletion blocks until a long-running operation started by initial
// reaches a terminal state. Synchronous responses return immediately; a 202
// is followed through its Azure-AsyncOperation or Location URL, honoring
// Retry-After between polls.
func (g *Gateway) waitForCompletion(ctx context.Context, initial *httpResult) error {
	pollURL := initial.header.Get(asyncOperationHeader)
	asyncOperation := pollURL != ""
	if pollURL == "" {
		pollURL = initial.header.Get(locationHeader)
	}

	if pollURL == "" {
		if initial.status == http.StatusAccepted {
			return internalError("accepted response carries no operation URL", nil)
		}
		return nil
	}
	// A Location header without an async operation document only signals a
	// pending operation on a 202; synchronous 200/201 answers are final.
	if !asyncOperation && initial.status != http.StatusAccepted {
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.pollInitialInterval
	policy.MaxInterval = g.pollMaxInterval
	policy.MaxElapsedTime = g.pollDeadline
	policy.Reset()

	retryAfter := retryAfterDelay(initial.header)
	for {
		interval := policy.NextBackOff()
		if interval == backoff.Stop {
			return transportError("timed out waiting for operation to complete", nil)
		}
		if retryAfter > 0 {
			interval = retryAfter
		}

		select {
		case <-ctx.Done():
			return transportError("operation polling interrupted", ctx.Err())
		case <-time.After(interval):
		}

		result, err := g.doURL(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return err
		}
		retryAfter = retryAfterDelay(result.header)

		done, err := operationOutcome(result, asyncOperation)
		if err != nil {
			return err
		}
		if done {
			debugctx.Printf(ctx, "operation at %s completed", pollURL)
			return nil
		}

		// The backend may hand out a fresh poll URL mid-operation.
		if next := result.header.Get(asyncOperationHeader); asyncOperation && next != "" {
			pollURL = next
		}
	}
}

// operationOutcome interprets one poll response. Async operation documents
// carry an explicit status field; plain location polling signals completion
// through the HTTP status alone.
func operationOutcome(result *httpResult, asyncOperation bool) (bool, error) {
	if result.status >= http.StatusBadRequest {
		return false, classifyStatusError(result.status, result.body)
	}

	if !asyncOperation {
		return result.status != http.StatusAccepted, nil
	}

	var document struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result.body, &document); err != nil {
		return false, internalError("failed to decode operation status document", err)
	}

	switch strings.ToLower(strings.TrimSpace(document.Status)) {
	case "succeeded":
		return true, nil
	case "failed", "canceled", "cancelled":
		message := "operation " + strings.ToLower(document.Status)
		if detail := remoteErrorMessage(result.body); detail != "" {
			message += ": " + detail
		}
		return false, transportError(message, nil)
	default:
		return false, nil
	}
}

func retryAfterDelay(header http.Header) time.Duration {
	raw := strings.TrimSpace(header.Get(retryAfterHeader))
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
