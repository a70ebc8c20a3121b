package arm

import (
	"net/url"
	"strings"

	"github.com/crmarques/declarm/resource"
)

// resourcePath builds the control-plane path for one resource instance:
//
//	/subscriptions/{sub}/resourcegroups/{rg}/providers/{ns}[/{parent}]/{type}/{name}
func (g *Gateway) resourcePath(id resource.Identity) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}

	segments := []string{
		"subscriptions", g.subscriptionID,
		"resourcegroups", id.ResourceGroup,
		"providers", id.ProviderNamespace,
	}
	if parent := strings.Trim(strings.TrimSpace(id.ParentResourcePath), "/"); parent != "" {
		segments = append(segments, strings.Split(parent, "/")...)
	}
	segments = append(segments, id.ResourceType, id.Name)

	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return "/" + strings.Join(escaped, "/"), nil
}

func (g *Gateway) providerPath(namespace string) string {
	return "/subscriptions/" + url.PathEscape(g.subscriptionID) +
		"/providers/" + url.PathEscape(namespace)
}

func (g *Gateway) resourceGroupPath(name string) string {
	return "/subscriptions/" + url.PathEscape(g.subscriptionID) +
		"/resourcegroups/" + url.PathEscape(name)
}
