package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/feed-brain/internal/models"
)

// ErrMalformedResponse is the single error kind for every way a
// completion response can fail to parse: invalid JSON, missing required
// fields, enum violations, out-of-range confidence. A response is either
// fully valid or rejected; required fields are never silently defaulted.
var ErrMalformedResponse = errors.New("malformed classification response")

// rawResult mirrors the JSON shape the model is instructed to emit.
// Pointers distinguish missing required fields from zero values.
type rawResult struct {
	Tier        *string  `json:"tier"`
	Category    *string  `json:"category"`
	Summary     *string  `json:"summary"`
	Reason      *string  `json:"reason"`
	Confidence  *float64 `json:"confidence"`
	MoneyQuote  string   `json:"money_quote"`
	Actionables []string `json:"actionables"`
}

// ParseResponse decodes raw completion text into a validated
// Classification. The response may arrive wrapped in markdown code
// fences; those are stripped before decoding.
func ParseResponse(raw string) (models.Classification, error) {
	var zero models.Classification

	var parsed rawResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for field, ok := range map[string]bool{
		"tier":       parsed.Tier != nil,
		"category":   parsed.Category != nil,
		"summary":    parsed.Summary != nil,
		"reason":     parsed.Reason != nil,
		"confidence": parsed.Confidence != nil,
	} {
		if !ok {
			return zero, fmt.Errorf("%w: missing required field %q", ErrMalformedResponse, field)
		}
	}

	tier, err := models.ParseTier(*parsed.Tier)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	category, err := models.ParseCategory(*parsed.Category)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if *parsed.Confidence < 0 || *parsed.Confidence > 1 {
		return zero, fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedResponse, *parsed.Confidence)
	}

	actionables := parsed.Actionables
	if actionables == nil {
		actionables = []string{}
	}

	return models.Classification{
		Tier:        tier,
		Category:    category,
		Summary:     *parsed.Summary,
		Reason:      *parsed.Reason,
		Confidence:  *parsed.Confidence,
		MoneyQuote:  parsed.MoneyQuote,
		Actionables: actionables,
	}, nil
}

// stripCodeFences removes markdown code block delimiters from AI
// responses by extracting the outermost JSON object.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}
	endIdx := strings.LastIndex(response, "}")
	if endIdx == -1 || endIdx < startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
