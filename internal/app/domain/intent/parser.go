// Package intent classifies free-text user requests into a closed set of
// actions, with a deterministic keyword fallback when the model is down.
package intent

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

// Context carries the disambiguation hints available at parse time.
type Context struct {
	Location string
	JarTopic string
}

// Parser resolves free text into a models.Intent.
type Parser struct {
	ai     *ai.Client
	logger *zap.Logger
}

func NewParser(aiClient *ai.Client, logger *zap.Logger) *Parser {
	return &Parser{ai: aiClient, logger: logger}
}

// intentWire mirrors the classifier's JSON output. Pointer fields
// distinguish "omitted" from zero values so defaulting stays observable.
type intentWire struct {
	Action              string   `json:"action"`
	ConciergeTool       string   `json:"conciergeTool"`
	Quantity            *int     `json:"quantity"`
	Topic               string   `json:"topic"`
	Location            string   `json:"location"`
	Constraints         []string `json:"constraints"`
	TargetCategory      string   `json:"targetCategory"`
	ContentFormat       string   `json:"contentFormat"`
	RequiresVenueLookup *bool    `json:"requiresVenueLookup"`
	IsLocationDependent *bool    `json:"isLocationDependent"`
}

// ParseIntent classifies promptText. It never returns an error: when the
// model chain is exhausted or returns garbage, the deterministic keyword
// fallback produces a best-effort BULK_GENERATE intent instead.
func (p *Parser) ParseIntent(ctx context.Context, promptText string, pctx Context) models.Intent {
	ctx, span := otel.Tracer("IntentParser").Start(ctx, "ParseIntent", trace.WithAttributes(
		attribute.Int("prompt.length", len(promptText)),
	))
	defer span.End()

	prompt := buildClassificationPrompt(promptText, pctx)

	var wire intentWire
	err := p.ai.GenerateJSON(ctx, prompt, ai.CallOptions{
		JSONMode:    true,
		Temperature: genai.Ptr[float32](0.1),
	}, &wire)
	if err != nil {
		p.logger.Warn("Intent classification failed, using keyword fallback", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Ok, "Keyword fallback used")
		return FallbackIntent(promptText)
	}

	intent := postProcess(wire)
	span.SetAttributes(
		attribute.String("intent.action", string(intent.Action)),
		attribute.Int("intent.quantity", intent.Quantity),
	)
	span.SetStatus(codes.Ok, "Intent classified")
	return intent
}

func postProcess(wire intentWire) models.Intent {
	intent := models.Intent{
		Action:         models.IntentAction(strings.ToUpper(strings.TrimSpace(wire.Action))),
		ConciergeTool:  models.ConciergeTool(strings.ToLower(strings.TrimSpace(wire.ConciergeTool))),
		Topic:          wire.Topic,
		Location:       wire.Location,
		Constraints:    wire.Constraints,
		TargetCategory: strings.ToUpper(strings.TrimSpace(wire.TargetCategory)),
		ContentFormat:  models.ContentFormat(strings.ToUpper(strings.TrimSpace(wire.ContentFormat))),
	}

	// Defaults: the most common, most forgiving interpretation.
	if !models.ValidAction(intent.Action) {
		intent.Action = models.ActionBulkGenerate
	}
	switch {
	case wire.Quantity != nil && *wire.Quantity >= 1:
		intent.Quantity = *wire.Quantity
	case intent.Action == models.ActionAddSingle:
		// A single named item must not inflate into a batch.
		intent.Quantity = 1
	default:
		intent.Quantity = models.DefaultQuantity
	}
	switch intent.ContentFormat {
	case models.FormatMarkdownRecipe, models.FormatMarkdownItinerary:
	default:
		intent.ContentFormat = models.FormatDefault
	}
	if !models.ValidCategory(intent.TargetCategory) {
		intent.TargetCategory = ""
	}

	if wire.RequiresVenueLookup != nil {
		intent.RequiresVenueLookup = *wire.RequiresVenueLookup
	} else {
		intent.RequiresVenueLookup = PhysicalTools[intent.ConciergeTool]
	}
	if wire.IsLocationDependent != nil {
		intent.IsLocationDependent = *wire.IsLocationDependent
	} else {
		intent.IsLocationDependent = intent.RequiresVenueLookup
	}
	return intent
}

func buildClassificationPrompt(promptText string, pctx Context) string {
	var b strings.Builder
	b.WriteString(`You classify a user's request for a shared "decision jar" of activity ideas.

Return ONLY a JSON object with this shape:
{
  "action": "BULK_GENERATE" | "ADD_SINGLE" | "LAUNCH_CONCIERGE" | "UNKNOWN",
  "conciergeTool": one of [`)
	b.WriteString(toolIDs())
	b.WriteString(`] or "",
  "quantity": integer >= 1,
  "topic": short free-text subject,
  "location": explicit location mentioned in the request or "",
  "constraints": array of limiting phrases (dietary, budget, ...),
  "targetCategory": one of [`)
	b.WriteString(strings.Join(models.ValidCategories, ", "))
	b.WriteString(`] or "",
  "contentFormat": "DEFAULT" | "MARKDOWN_RECIPE" | "MARKDOWN_ITINERARY",
  "requiresVenueLookup": true if fulfilling the request needs a physical address,
  "isLocationDependent": false for non-physical domains (books, movies, recipes, games)
}

Classification rules:
- A single named item with no quantity and no search verb ("Add Inception") => ADD_SINGLE.
- A quantity or list request ("5 date ideas", "give me some games") => BULK_GENERATE.
- A question or "find me"/"suggest a" construction about one venue or pick => LAUNCH_CONCIERGE with the matching tool.
- If a request both names a quantity and matches a concierge domain ("5 restaurant recommendations"), prefer BULK_GENERATE and still set conciergeTool.
- Use MARKDOWN_RECIPE only when the user wants actual recipes to cook.
`)
	if pctx.JarTopic != "" {
		fmt.Fprintf(&b, "\nThe user's current jar topic is %q.", pctx.JarTopic)
	}
	if pctx.Location != "" {
		fmt.Fprintf(&b, "\nThe user's current location is %q.", pctx.Location)
	}
	fmt.Fprintf(&b, "\n\nUser request: %q\n", promptText)
	return b.String()
}

func toolIDs() string {
	tools := []models.ConciergeTool{
		models.ToolDining, models.ToolBar, models.ToolNightclub,
		models.ToolMovie, models.ToolBook, models.ToolGame,
		models.ToolHotel, models.ToolWellness, models.ToolFitness,
		models.ToolTheatre, models.ToolSports, models.ToolHoliday,
		models.ToolEscapeRoom, models.ToolWeekendEvents, models.ToolActivity,
	}
	ids := make([]string, len(tools))
	for i, t := range tools {
		ids[i] = string(t)
	}
	return strings.Join(ids, ", ")
}
