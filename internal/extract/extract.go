// Package extract converts normalized article text into a validated Forecast
// via a schema-constrained language-model call. This is the sole boundary
// between unstructured prose and the typed facts the resolver stages trust,
// so any response that does not match the Forecast schema exactly is
// rejected here.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/camadvisory/forecast-impact-service/internal/circuitbreaker"
	"github.com/camadvisory/forecast-impact-service/internal/models"
	"github.com/camadvisory/forecast-impact-service/internal/observability"
)

// ErrExtractionFailed covers transport and provider failures on the model call.
var ErrExtractionFailed = errors.New("extraction failed")

// ErrSchemaMismatch is returned when the model response decodes into
// anything other than the exact Forecast shape.
var ErrSchemaMismatch = errors.New("model response does not match forecast schema")

// SchemaError carries the raw, unvalidated model output for diagnostics.
// It matches ErrSchemaMismatch under errors.Is.
type SchemaError struct {
	Raw   string
	cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSchemaMismatch, e.cause)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// Extractor produces a Forecast from plain article text.
type Extractor interface {
	Extract(ctx context.Context, text string) (models.Forecast, error)
}

const systemInstruction = `You are a helpful assistant that extracts the following weather-forecast information from a blog article:

1) is_weather_forecast (boolean)
2) area_affected (array of affected region code strings, or null)
3) duration (array of exactly two dates in MM/DD/YYYY format, [start, end], or null)

Your response must be valid JSON matching exactly this schema:

{
  "is_weather_forecast": boolean,
  "area_affected": array of strings or null,
  "duration": array of two strings or null
}

No additional keys or text are allowed. When the article is not a weather forecast, set area_affected and duration to null.`

// forecastSchema constrains the model output server-side to the Forecast
// shape. The strict decode below still re-validates; the provider is
// untrusted.
var forecastSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_weather_forecast": {Type: genai.TypeBoolean},
		"area_affected": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			Nullable: genai.Ptr(true),
		},
		"duration": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MinItems: genai.Ptr(int64(2)),
			MaxItems: genai.Ptr(int64(2)),
			Nullable: genai.Ptr(true),
		},
	},
	Required: []string{"is_weather_forecast"},
}

// GeminiExtractor calls the Gemini API with the Forecast response schema.
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

// NewGeminiExtractor creates an extractor bound to the given model.
// The client is safe for concurrent use and lives for the process lifetime.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("extract: API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("extract: create client: %w", err)
	}

	return &GeminiExtractor{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// SetCircuitBreaker installs a breaker around the provider call. Optional.
func (e *GeminiExtractor) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	e.breaker = cb
}

// Extract sends text to the model and returns the validated Forecast.
// Provider failures wrap ErrExtractionFailed; responses that fail strict
// validation return a *SchemaError carrying the raw model text.
func (e *GeminiExtractor) Extract(ctx context.Context, text string) (models.Forecast, error) {
	start := time.Now()

	var raw string
	call := func() error {
		var err error
		raw, err = e.generate(ctx, text)
		return err
	}

	var err error
	if e.breaker != nil {
		err = e.breaker.Call(ctx, call)
	} else {
		err = call()
	}

	duration := time.Since(start).Seconds()
	if err != nil {
		observability.ExtractorCallsTotal.WithLabelValues("error").Inc()
		observability.ExtractorDuration.WithLabelValues("error").Observe(duration)
		return models.Forecast{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	forecast, err := decodeForecast(raw)
	if err != nil {
		observability.ExtractorCallsTotal.WithLabelValues("schema_mismatch").Inc()
		observability.ExtractorDuration.WithLabelValues("schema_mismatch").Observe(duration)
		observability.SchemaMismatchesTotal.Inc()
		return models.Forecast{}, err
	}

	observability.ExtractorCallsTotal.WithLabelValues("success").Inc()
	observability.ExtractorDuration.WithLabelValues("success").Observe(duration)
	return forecast, nil
}

func (e *GeminiExtractor) generate(ctx context.Context, text string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Models.GenerateContent(
		callCtx,
		e.model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    forecastSchema,
			Temperature:       genai.Ptr(float32(0)),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("empty model response")
	}
	return raw, nil
}

// forecastPayload mirrors the Forecast wire shape with presence tracking for
// the required boolean.
type forecastPayload struct {
	IsWeatherForecast *bool    `json:"is_weather_forecast"`
	AreaAffected      []string `json:"area_affected"`
	Duration          []string `json:"duration"`
}

// decodeForecast strictly decodes a raw model response. Unknown keys,
// missing is_weather_forecast, wrong field types, trailing content, or a
// non-null duration of the wrong length all fail as *SchemaError.
func decodeForecast(raw string) (models.Forecast, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var payload forecastPayload
	if err := dec.Decode(&payload); err != nil {
		return models.Forecast{}, &SchemaError{Raw: raw, cause: err}
	}
	if dec.More() {
		return models.Forecast{}, &SchemaError{Raw: raw, cause: errors.New("trailing content after forecast object")}
	}
	if payload.IsWeatherForecast == nil {
		return models.Forecast{}, &SchemaError{Raw: raw, cause: errors.New("missing is_weather_forecast")}
	}
	if payload.Duration != nil && len(payload.Duration) != 2 {
		return models.Forecast{}, &SchemaError{Raw: raw, cause: fmt.Errorf("duration has %d element(s), want 2", len(payload.Duration))}
	}

	return models.Forecast{
		IsWeatherForecast: *payload.IsWeatherForecast,
		AreaAffected:      payload.AreaAffected,
		Duration:          payload.Duration,
	}, nil
}
