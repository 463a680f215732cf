// Package validator filters AI candidate recommendations against the original
// user query, failing open whenever filtering would harm the result.
package validator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/decisionjar/backend/internal/app/ai"
	"github.com/decisionjar/backend/internal/app/models"
)

// Candidate is the minimal projection of a recommendation the verifier sees.
type Candidate struct {
	Name        string
	Description string
	Type        string
}

// Verifier checks candidate relevance with a model call.
type Verifier struct {
	ai     *ai.Client
	logger *zap.Logger
}

func NewVerifier(aiClient *ai.Client, logger *zap.Logger) *Verifier {
	return &Verifier{ai: aiClient, logger: logger}
}

const descriptionLimit = 160

// verdictWire is the model's answer: indices into the candidate list that
// genuinely satisfy the query.
type verdictWire struct {
	ValidIndices []int `json:"validIndices"`
}

// BatchVerify returns the subset of candidates that match query, preserving
// order. It is strictly best-effort: a model failure, an out-of-range answer
// or an empty verdict all return the original list unchanged. Returning
// everything is always safer than returning nothing.
func (v *Verifier) BatchVerify(ctx context.Context, query string, candidates []models.CandidateIdea, toolType models.ConciergeTool) []models.CandidateIdea {
	if vagueQuery(query) || len(candidates) == 0 {
		return candidates
	}

	ctx, span := otel.Tracer("OutputValidator").Start(ctx, "BatchVerify", trace.WithAttributes(
		attribute.Int("candidates.count", len(candidates)),
		attribute.String("tool", string(toolType)),
	))
	defer span.End()

	prompt := buildVerifyPrompt(query, candidates, toolType)

	var verdict verdictWire
	err := v.ai.GenerateJSON(ctx, prompt, ai.CallOptions{
		JSONMode:    true,
		Temperature: genai.Ptr[float32](0.1),
	}, &verdict)
	if err != nil {
		v.logger.Warn("Batch verification failed, returning unfiltered candidates",
			zap.String("query", query),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Ok, "Fail-open: verification error")
		return candidates
	}

	filtered := selectByIndex(candidates, verdict.ValidIndices)
	if len(filtered) == 0 {
		// A verifier that rejects everything is more likely wrong than every
		// candidate. Fail open rather than hand back an empty jar.
		v.logger.Warn("Verifier rejected all candidates, failing open",
			zap.String("query", query),
			zap.Int("candidates", len(candidates)))
		span.SetStatus(codes.Ok, "Fail-open: empty verdict")
		return candidates
	}

	span.SetAttributes(attribute.Int("candidates.kept", len(filtered)))
	span.SetStatus(codes.Ok, "Candidates verified")
	return filtered
}

// vagueQuery reports whether validation can add signal for this query.
func vagueQuery(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) < 3 || strings.EqualFold(q, "any")
}

func selectByIndex(candidates []models.CandidateIdea, indices []int) []models.CandidateIdea {
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(candidates) {
			seen[i] = true
		}
	}
	var out []models.CandidateIdea
	for i, c := range candidates {
		if seen[i] {
			out = append(out, c)
		}
	}
	return out
}

func buildVerifyPrompt(query string, candidates []models.CandidateIdea, toolType models.ConciergeTool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A user searched a %s service for: %q\n\n", toolLabel(toolType), query)
	b.WriteString("Below are numbered candidate results. Decide which candidates genuinely satisfy the request. Be lenient: keep a candidate unless it clearly does not match.\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s — %s\n", i, c.DisplayTitle(), truncate(c.Description, descriptionLimit))
	}
	b.WriteString("\nReturn ONLY a JSON object: {\"validIndices\": [<indices of matching candidates>]}\n")
	return b.String()
}

func toolLabel(toolType models.ConciergeTool) string {
	if toolType == "" {
		return "recommendation"
	}
	return strings.ReplaceAll(string(toolType), "_", " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
