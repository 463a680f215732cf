package generate

import (
	"fmt"
	"strings"

	"github.com/decisionjar/backend/internal/app/models"
)

// typeSchemaReference is embedded verbatim in generation prompts so the model
// emits typed payloads the standardizer can keep instead of rebuilding.
const typeSchemaReference = `Each idea MAY include "ideaType" and a matching "typeData" object:
- book: {"title","author","genre","year","pageCount","format"}
- movie: {"title","year","genre","director","cast","runtime","platform"}
- recipe: {"ingredients","instructions","prepTime","cookTime","servings","difficulty","cuisine","dietaryTags"}
- game: {"title","gameType","genre","platform","players","rating","playUrl"}
- dining: {"establishmentName","cuisine","mealType","priceRange","rating","features"}
- activity: {"activityName","activityType","location","duration","participants"}
- music: {"artist","title","type","genre","year"}
- event: {"eventName","eventType","venue","date","ticketUrl"}
- travel: {"destination","travelType","amenities"}
- itinerary: {"title","steps":[{"time","activity","location"}]}`

// linkAccuracyRules keep the model from inventing business domains. A search
// URL is always correct; a guessed domain rarely is.
const linkAccuracyRules = `Link rules:
- NEVER invent or guess a website domain for a business.
- If you are not certain of the real URL, set "website" to a search URL of the form https://www.google.com/search?q=<business name and location, URL-encoded>.
- The same applies to "playUrl" and "ticketUrl" inside typeData.`

const ideaShapeReference = `Every idea object has:
{"title","description","category","indoor":bool,"duration":hours as number,"cost":"FREE"|"$"|"$$"|"$$$"|"$$$$","activityLevel":"LOW"|"MEDIUM"|"HIGH","details":markdown string,"website"?,"address"?}`

func buildGenerationPrompt(in models.Intent, location, jarTopic string) string {
	if in.ContentFormat == models.FormatMarkdownRecipe {
		return buildRecipePrompt(in)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d idea suggestions for a shared decision jar.\n\n", in.Quantity)
	fmt.Fprintf(&b, "Request: %s\n", in.Topic)
	if jarTopic != "" {
		fmt.Fprintf(&b, "Jar theme: %s\n", jarTopic)
	}
	if location != "" {
		fmt.Fprintf(&b, "Location: %s — suggestions must be real places or options available there.\n", location)
	}
	if len(in.Constraints) > 0 {
		fmt.Fprintf(&b, "Constraints: %s\n", strings.Join(in.Constraints, "; "))
	}
	if in.TargetCategory != "" {
		fmt.Fprintf(&b, "Preferred category: %s\n", in.TargetCategory)
	} else {
		fmt.Fprintf(&b, "Choose the best-fitting category per idea from: %s\n", strings.Join(models.ValidCategories, ", "))
	}
	b.WriteString("\n")
	b.WriteString(ideaShapeReference)
	b.WriteString("\n\n")
	b.WriteString(typeSchemaReference)
	b.WriteString("\n\n")
	b.WriteString(linkAccuracyRules)
	b.WriteString("\n\nRespond with a single JSON array of idea objects and nothing else.\n")
	return b.String()
}

func buildRecipePrompt(in models.Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d complete recipes the user can cook.\n\n", in.Quantity)
	fmt.Fprintf(&b, "Request: %s\n", in.Topic)
	if len(in.Constraints) > 0 {
		fmt.Fprintf(&b, "Dietary or other constraints: %s\n", strings.Join(in.Constraints, "; "))
	}
	b.WriteString(`
Every recipe is one JSON object:
{"title","description","category":"RECIPES","indoor":true,"duration":hours as number,"cost":"$","activityLevel":"LOW",
 "details": a full markdown recipe with "## Ingredients" (bulleted) and "## Instructions" (numbered) sections,
 "ideaType":"recipe",
 "typeData":{"ingredients":[...],"instructions":[...],"prepTime","cookTime","servings","difficulty","cuisine","dietaryTags"}}

Respond with a single JSON array of recipe objects and nothing else.
`)
	return b.String()
}

// Quiz tiers render as natural-language phrases in the generation prompt.
var (
	budgetPhrases = map[string]string{
		models.CostFree: "completely free or no-cost",
		models.Cost1:    "budget-friendly, cheap",
		models.Cost2:    "moderately priced",
		models.Cost3:    "premium, a nice treat",
		models.Cost4:    "high-end, special occasion",
	}
	durationPhrases = map[string]string{
		"SHORT":  "quick, under an hour",
		"MEDIUM": "a few hours",
		"LONG":   "a half day or longer",
	}
	activityPhrases = map[string]string{
		models.ActivityLow:    "relaxed, low physical effort",
		models.ActivityMedium: "moderately active",
		models.ActivityHigh:   "energetic, physically demanding",
	}
)

func tierPhrase(table map[string]string, key string) string {
	if phrase, ok := table[strings.ToUpper(strings.TrimSpace(key))]; ok {
		return phrase
	}
	return ""
}

func buildQuizPrompt(prefs models.QuizPreferences, jarTopic string) string {
	count := prefs.IdealCount
	if count < 1 {
		count = models.DefaultQuantity
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d idea suggestions for a shared decision jar, matched to the group's quiz answers.\n\n", count)
	if jarTopic != "" {
		fmt.Fprintf(&b, "Jar theme: %s\n", jarTopic)
	}
	if len(prefs.Categories) > 0 {
		fmt.Fprintf(&b, "Preferred categories: %s\n", strings.Join(prefs.Categories, ", "))
	}
	if phrase := tierPhrase(budgetPhrases, prefs.Budget); phrase != "" {
		fmt.Fprintf(&b, "Budget: %s\n", phrase)
	}
	if phrase := tierPhrase(durationPhrases, prefs.Duration); phrase != "" {
		fmt.Fprintf(&b, "Time available: %s\n", phrase)
	}
	if phrase := tierPhrase(activityPhrases, prefs.ActivityLevel); phrase != "" {
		fmt.Fprintf(&b, "Activity level: %s\n", phrase)
	}
	b.WriteString("\n")
	b.WriteString(ideaShapeReference)
	b.WriteString("\n\n")
	b.WriteString(typeSchemaReference)
	b.WriteString("\n\n")
	b.WriteString(linkAccuracyRules)
	b.WriteString("\n\nRespond with a single JSON array of idea objects and nothing else.\n")
	return b.String()
}
