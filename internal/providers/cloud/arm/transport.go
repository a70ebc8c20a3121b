package arm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/crmarques/declarm/debugctx"
)

const maxResponseBytes = 4 << 20

type httpResult struct {
	status int
	header http.Header
	body   []byte
}

// do issues one request against a path relative to the gateway base URL and
// reads the whole response. HTTP error statuses are returned in the result,
// not as errors; callers decide how to classify them.
func (g *Gateway) do(
	ctx context.Context,
	method string,
	requestPath string,
	query url.Values,
	payload any,
) (*httpResult, error) {
	target := *g.baseURL
	target.Path = joinURLPath(g.baseURL.Path, requestPath)
	if query != nil {
		target.RawQuery = query.Encode()
	}
	return g.doURL(ctx, method, target.String(), payload)
}

// doURL issues one request against an absolute URL, used both by do and by
// the long-running-operation poller, which follows server-provided URLs.
func (g *Gateway) doURL(ctx context.Context, method, rawURL string, payload any) (*httpResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, transportError("request throttling interrupted", err)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, internalError("failed to encode request payload", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, internalError("failed to build request", err)
	}
	request.Header.Set("Accept", defaultMediaType)
	if payload != nil {
		request.Header.Set("Content-Type", defaultMediaType)
	}
	request.Header.Set("x-ms-client-request-id", g.requestID())

	if err := g.applyAuth(ctx, request); err != nil {
		return nil, err
	}

	debugctx.Printf(ctx, "%s %s", method, rawURL)
	response, err := g.client.Do(request)
	if err != nil {
		return nil, transportError("request to "+rawURL+" failed", err)
	}
	defer func() { _ = response.Body.Close() }()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError("failed to read response from "+rawURL, err)
	}
	debugctx.Printf(ctx, "%s %s answered %d", method, rawURL, response.StatusCode)

	return &httpResult{
		status: response.StatusCode,
		header: response.Header,
		body:   responseBody,
	}, nil
}

func joinURLPath(base, requestPath string) string {
	if base == "" || base == "/" {
		return requestPath
	}
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + requestPath
}
