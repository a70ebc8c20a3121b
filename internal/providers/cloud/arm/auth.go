package arm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crmarques/declarm/config"
)

// tokenExpiryMargin keeps a cached token from being used right at its
// expiration boundary.
const tokenExpiryMargin = 2 * time.Minute

type authConfig struct {
	bearerToken string

	tokenURL     string
	clientID     string
	clientSecret string
	resource     string
}

func buildAuthConfig(cfg config.Cloud) (authConfig, error) {
	if bearer := cfg.Auth.BearerToken; bearer != nil {
		return authConfig{bearerToken: strings.TrimSpace(bearer.Token)}, nil
	}

	creds := cfg.Auth.ClientCredentials

	tokenURL := strings.TrimSpace(creds.TokenURL)
	if tokenURL == "" {
		tokenURL = config.DefaultAuthorityURL + "/" + url.PathEscape(creds.TenantID) + "/oauth2/token"
	}

	resource := strings.TrimSpace(creds.Resource)
	if resource == "" {
		base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
		if base == "" {
			base = config.DefaultBaseURL
		}
		resource = base + "/"
	}

	return authConfig{
		tokenURL:     tokenURL,
		clientID:     creds.ClientID,
		clientSecret: creds.ClientSecret,
		resource:     resource,
	}, nil
}

func (g *Gateway) applyAuth(ctx context.Context, request *http.Request) error {
	if g.auth.bearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+g.auth.bearerToken)
		return nil
	}

	token, err := g.fetchToken(ctx)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   any    `json:"expires_in"`
}

// fetchToken returns a cached client-credentials token, refreshing it through
// the token endpoint when missing or close to expiry.
func (g *Gateway) fetchToken(ctx context.Context) (string, error) {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()

	if g.accessToken != "" && time.Now().Before(g.tokenExpiresAt.Add(-tokenExpiryMargin)) {
		return g.accessToken, nil
	}

	form := url.Values{
		"grant_type":    []string{"client_credentials"},
		"client_id":     []string{g.auth.clientID},
		"client_secret": []string{g.auth.clientSecret},
		"resource":      []string{g.auth.resource},
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.auth.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", internalError("failed to build token request", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := g.client.Do(request)
	if err != nil {
		return "", authError("token request failed", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return "", authError("token endpoint answered status "+strconv.Itoa(response.StatusCode), nil)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", authError("failed to decode token response", err)
	}
	if strings.TrimSpace(decoded.AccessToken) == "" {
		return "", authError("token response carries no access token", nil)
	}

	g.accessToken = decoded.AccessToken
	g.tokenExpiresAt = time.Now().Add(tokenLifetime(decoded.ExpiresIn))
	return g.accessToken, nil
}

// tokenLifetime tolerates both the numeric and the string encoding of
// expires_in that identity endpoints emit.
func tokenLifetime(expiresIn any) time.Duration {
	const fallback = 10 * time.Minute

	switch value := expiresIn.(type) {
	case float64:
		if value > 0 {
			return time.Duration(value) * time.Second
		}
	case json.Number:
		if seconds, err := value.Int64(); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	case string:
		if seconds, err := strconv.ParseInt(value, 10, 64); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
