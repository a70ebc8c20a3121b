package cmd

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/crmarques/declarm/faults"
)

var queryCodeCache sync.Map

// applyQuery filters a value through a jq expression. An empty expression
// passes the value through untouched, normalized for rendering.
func applyQuery(value any, expression string) (any, error) {
	normalized := normalizeForOutput(value)

	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return normalized, nil
	}

	code, err := cachedQueryCode(trimmed)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "invalid query expression", err)
	}

	iterator := code.Run(normalized)
	results := make([]any, 0, 1)
	for {
		next, ok := iterator.Next()
		if !ok {
			break
		}
		if evalErr, isErr := next.(error); isErr {
			return nil, faults.NewTypedError(faults.ValidationError, "failed to evaluate query expression", evalErr)
		}
		results = append(results, next)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func cachedQueryCode(expression string) (*gojq.Code, error) {
	if cached, ok := queryCodeCache.Load(expression); ok {
		if typed, ok := cached.(*gojq.Code); ok && typed != nil {
			return typed, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, err
	}

	queryCodeCache.Store(expression, code)
	return code, nil
}

// normalizeForOutput rewrites decoded payloads into the plain value set both
// gojq and the renderers accept, turning json.Number back into int or float.
func normalizeForOutput(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return int(integer)
		}
		if float, err := typed.Float64(); err == nil {
			return float
		}
		return typed.String()
	case map[string]any:
		normalized := make(map[string]any, len(typed))
		for key, entry := range typed {
			normalized[key] = normalizeForOutput(entry)
		}
		return normalized
	case map[string]string:
		normalized := make(map[string]any, len(typed))
		for key, entry := range typed {
			normalized[key] = entry
		}
		return normalized
	case []any:
		normalized := make([]any, len(typed))
		for index, entry := range typed {
			normalized[index] = normalizeForOutput(entry)
		}
		return normalized
	default:
		return value
	}
}
