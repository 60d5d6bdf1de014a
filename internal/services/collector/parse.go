package collector

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/quotatrack/quotatrack/internal/logger"
	"github.com/quotatrack/quotatrack/internal/models"
)

// ParseUsagePayloads decodes collector output as either a single usage
// payload object or an array of them. Each element is parsed independently;
// a malformed element is skipped with a logged warning while the rest of the
// batch is still processed.
func ParseUsagePayloads(data []byte) ([]models.UsagePayload, error) {
	elements, err := splitElements(data)
	if err != nil {
		return nil, err
	}

	var payloads []models.UsagePayload
	for i, element := range elements {
		var payload models.UsagePayload
		if err := json.Unmarshal(element, &payload); err != nil {
			logger.Warn("skipping malformed usage payload", "index", i, "error", err)
			continue
		}
		if payload.Provider == "" {
			logger.Warn("skipping usage payload without provider", "index", i)
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// ParseCostPayloads decodes collector cost output, an array of cost payload
// objects, with the same per-element tolerance as ParseUsagePayloads.
func ParseCostPayloads(data []byte) ([]models.CostPayload, error) {
	elements, err := splitElements(data)
	if err != nil {
		return nil, err
	}

	var payloads []models.CostPayload
	for i, element := range elements {
		var payload models.CostPayload
		if err := json.Unmarshal(element, &payload); err != nil {
			logger.Warn("skipping malformed cost payload", "index", i, "error", err)
			continue
		}
		if payload.Provider == "" {
			logger.Warn("skipping cost payload without provider", "index", i)
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// splitElements normalizes collector output to a list of raw JSON elements,
// accepting either a top-level array or a single object.
func splitElements(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("failed to parse collector output: %w", err)
		}
		return elements, nil
	}

	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("failed to parse collector output: invalid JSON")
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}
