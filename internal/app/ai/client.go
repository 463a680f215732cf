package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/decisionjar/backend/internal/app/observability/metrics"
)

// ContentGenerator is the single-model call boundary. The production
// implementation wraps the Gemini client; tests substitute a fake to drive
// the failover loop deterministically.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
}

func (g *geminiGenerator) GenerateContent(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	txt := resp.Text()
	if txt == "" {
		// Blocked by safety filters or otherwise empty: a failed attempt,
		// not a fatal condition.
		return "", fmt.Errorf("model %s returned no text content", model)
	}
	return txt, nil
}

// CallOptions configure one reliable call. Zero values fall back to the
// client defaults.
type CallOptions struct {
	// Models overrides the client's priority-ordered model list.
	Models []string
	// Temperature should be near zero for classification and validation,
	// higher for creative generation.
	Temperature *float32
	// JSONMode asks the provider to enforce strict JSON output. Mutually
	// exclusive with search augmentation on this model family.
	JSONMode        bool
	MaxOutputTokens int32
}

// Client sends prompts to a generative model endpoint, failing over across a
// priority-ordered model list. Failover is the retry strategy: there is no
// per-model backoff, and models are tried sequentially, never raced.
type Client struct {
	gen            ContentGenerator
	models         []string
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// NewClient builds the production client from an API key and default model
// list. The configuration is injected once at process start; nothing here is
// ambient global state.
func NewClient(ctx context.Context, apiKey string, models []string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewClientWithGenerator(&geminiGenerator{client: client}, models, logger), nil
}

// NewClientWithGenerator wires an explicit generation boundary, used by tests
// and by any future provider swap.
func NewClientWithGenerator(gen ContentGenerator, models []string, logger *zap.Logger) *Client {
	return &Client{
		gen:            gen,
		models:         models,
		attemptTimeout: 45 * time.Second,
		logger:         logger,
	}
}

// SetAttemptTimeout bounds a single model attempt so one slow model cannot
// stall the whole failover chain.
func (c *Client) SetAttemptTimeout(d time.Duration) {
	if d > 0 {
		c.attemptTimeout = d
	}
}

func (c *Client) buildConfig(opts CallOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		cfg.Temperature = genai.Ptr[float32](*opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	} else {
		// Search grounding and enforced-JSON output are mutually exclusive
		// on this model family; never request both.
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func (c *Client) modelList(opts CallOptions) []string {
	if len(opts.Models) > 0 {
		return opts.Models
	}
	return c.models
}

// Generate sends the prompt to each model in order and returns the first
// non-empty text response. It raises only after every model has failed,
// wrapping the last underlying error.
func (c *Client) Generate(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	return c.call(ctx, prompt, opts, nil)
}

// GenerateJSON runs Generate in the same failover loop, but additionally
// strips markdown fencing and decodes the payload into out per attempt. A
// response that fails to parse counts as a failed attempt and the next model
// is tried.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, opts CallOptions, out any) error {
	_, err := c.call(ctx, prompt, opts, func(txt string) error {
		return json.Unmarshal([]byte(CleanJSONResponse(txt)), out)
	})
	return err
}

func (c *Client) call(ctx context.Context, prompt string, opts CallOptions, decode func(string) error) (string, error) {
	models := c.modelList(opts)
	cfg := c.buildConfig(opts)

	ctx, span := otel.Tracer("ReliableModelCaller").Start(ctx, "Call", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.Int("models.count", len(models)),
		attribute.Bool("json_mode", opts.JSONMode),
	))
	defer span.End()

	var lastErr error
	for _, model := range models {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		txt, err := c.gen.GenerateContent(attemptCtx, model, prompt, cfg)
		cancel()
		if err != nil {
			lastErr = err
			metrics.RecordModelFailover(ctx, model)
			c.logger.Warn("Model attempt failed, trying next",
				zap.String("model", model),
				zap.Error(err))
			continue
		}
		if decode != nil {
			if err := decode(txt); err != nil {
				lastErr = fmt.Errorf("model %s returned unparseable JSON: %w", model, err)
				metrics.RecordModelFailover(ctx, model)
				c.logger.Warn("Model returned unparseable JSON, trying next",
					zap.String("model", model),
					zap.Error(err))
				continue
			}
		}
		span.SetAttributes(attribute.String("model.used", model))
		span.SetStatus(codes.Ok, "Content generated")
		return txt, nil
	}

	err := fmt.Errorf("all %d models failed, last error: %w", len(models), lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, "All models exhausted")
	return "", err
}
