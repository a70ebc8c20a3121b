package arm

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/crmarques/declarm/metadata"
	"github.com/crmarques/declarm/resource"
)

// decodeState decodes a JSON object body into the generic state mapping.
// Numbers stay json.Number so later normalization does not lose precision.
func decodeState(body []byte) (resource.State, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return resource.State{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, internalError("failed to decode response body", err)
	}

	state, ok := decoded.(map[string]any)
	if !ok {
		return nil, internalError("response body is not a JSON object", nil)
	}
	return state, nil
}

type providerDocument struct {
	Namespace     string                 `json:"namespace"`
	ResourceTypes []resourceTypeDocument `json:"resourceTypes"`
}

type resourceTypeDocument struct {
	ResourceType string   `json:"resourceType"`
	APIVersions  []string `json:"apiVersions"`
	Locations    []string `json:"locations"`
}

func decodeProvider(body []byte) (metadata.Provider, error) {
	var document providerDocument
	if err := json.Unmarshal(body, &document); err != nil {
		return metadata.Provider{}, internalError("failed to decode provider document", err)
	}
	if strings.TrimSpace(document.Namespace) == "" {
		return metadata.Provider{}, internalError("provider document carries no namespace", nil)
	}

	provider := metadata.Provider{
		Namespace:     document.Namespace,
		ResourceTypes: make([]metadata.ProviderResourceType, 0, len(document.ResourceTypes)),
	}
	for _, entry := range document.ResourceTypes {
		provider.ResourceTypes = append(provider.ResourceTypes, metadata.ProviderResourceType{
			ResourceType: entry.ResourceType,
			APIVersions:  entry.APIVersions,
			Locations:    entry.Locations,
		})
	}
	return provider, nil
}
