package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gardenllm/gardenllm-backend/internal/llm"
)

const classifierSystemPrompt = "You are a gardening assistant that analyzes user queries to extract plant references and classify query types."

// Classifier turns a raw utterance into a Classification with a single
// low-temperature generation call. Every failure mode degrades to a
// keyword-based fallback, so Classify never returns an error.
type Classifier struct {
	client    llm.Client
	model     string
	maxTokens int
	logger    *logrus.Logger
}

// NewClassifier creates a classifier backed by the given generation
// client.
func NewClassifier(client llm.Client, model string, maxTokens int, logger *logrus.Logger) *Classifier {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Classifier{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Classify analyzes an utterance against the known plant names. It always
// returns a well-formed Classification: a valid query type and a
// confidence in [0,1].
func (c *Classifier) Classify(ctx context.Context, utterance string, plantNames []string) Classification {
	content, err := c.client.Generate(ctx,
		[]llm.Message{
			{Role: llm.RoleSystem, Content: classifierSystemPrompt},
			{Role: llm.RoleUser, Content: buildAnalysisPrompt(utterance, plantNames)},
		},
		llm.Options{
			Model:       c.model,
			Temperature: 0.1,
			MaxTokens:   c.maxTokens,
		})
	if err != nil {
		c.logger.WithError(err).Warn("Classification call failed, using keyword fallback")
		return FallbackClassification(utterance)
	}
	if strings.TrimSpace(content) == "" {
		c.logger.Warn("Classification call returned empty content, using keyword fallback")
		return FallbackClassification(utterance)
	}

	result := parseClassification(content, c.logger)
	c.logger.WithFields(logrus.Fields{
		"query_type": result.QueryType,
		"plants":     result.PlantReferences,
		"confidence": result.Confidence,
	}).Debug("Classified query")
	return result
}

// buildAnalysisPrompt embeds the utterance and the known plant names so
// the model can disambiguate generic references ("roses" matches every
// rose variety) from exact ones ("Peggy Martin Rose" matches only
// itself).
func buildAnalysisPrompt(utterance string, plantNames []string) string {
	var b strings.Builder
	b.WriteString(`You are a gardening assistant that analyzes user queries to extract plant references and classify query types. You have access to the user's garden database.

IMPORTANT PLANT NAME MATCHING RULES:
1. Generic vs specific names: if the user asks about "roses" (generic), match ALL rose varieties in the database. If the user asks about "Peggy Martin Rose" (specific), match only that exact variety.
2. Compound plant names: "cherry" alone does NOT match "Cherry Tomato" unless the user says "cherry tomato". "basil" (generic) matches "Sweet Basil", "Thai Basil", and so on.
3. Context matters: "How do I care for my roses?" matches all rose varieties; "Where is my Peggy Martin Rose?" matches only that plant.

Analyze the query and respond with ONLY a JSON object:
{
    "plant_references": ["exact", "plant", "names", "from", "database"],
    "query_type": "TYPE",
    "confidence": 0.95,
    "reasoning": "brief explanation of matching logic"
}

Query Types:
- LIST: "What plants do I have?", "Show all plants", "List my plants"
- LOCATION: "Where is my tomato?", "Location of roses"
- PHOTO: "Show me tomato", "Picture of basil", "Photo of roses"
- CARE: "How to water", "Care for plants"
- DIAGNOSIS: "Why yellow leaves", "Plant problems"
- ADVICE: "How to prune", "Gardening tips"
- GENERAL: Other gardening questions

`)
	fmt.Fprintf(&b, "Available plants in database: %s\n", promptPlantList(utterance, plantNames))
	fmt.Fprintf(&b, "Query: %q\n", utterance)
	b.WriteString("JSON only:")
	return b.String()
}

// promptPlantList keeps the plant list in the prompt small. Names that
// look related to the utterance are always included; otherwise the list
// is truncated to the first 30 entries.
func promptPlantList(utterance string, plantNames []string) string {
	if len(plantNames) == 0 {
		return "No plants in database"
	}

	queryLower := strings.ToLower(strings.TrimSpace(utterance))

	var matching []string
	for _, name := range plantNames {
		nameLower := strings.ToLower(name)
		if strings.Contains(queryLower, nameLower) || strings.Contains(nameLower, queryLower) {
			matching = append(matching, name)
		}
		// Also match on individual words so "roses" pulls in every
		// "... Rose" entry.
		for _, word := range strings.Fields(nameLower) {
			if len(word) > 3 && strings.Contains(queryLower, strings.TrimSuffix(word, "s")) {
				matching = append(matching, name)
				break
			}
		}
	}

	if len(matching) > 0 {
		seen := make(map[string]bool)
		var unique []string
		for _, name := range matching {
			if !seen[name] {
				seen[name] = true
				unique = append(unique, name)
			}
		}
		if len(unique) > 40 {
			unique = unique[:40]
		}
		if len(unique) < len(plantNames) {
			return fmt.Sprintf("%s (and %d more plants)",
				strings.Join(unique, ", "), len(plantNames)-len(unique))
		}
		return strings.Join(unique, ", ")
	}

	if len(plantNames) > 30 {
		return fmt.Sprintf("%s (and %d more plants)",
			strings.Join(plantNames[:30], ", "), len(plantNames)-30)
	}
	return strings.Join(plantNames, ", ")
}

// rawClassification mirrors the JSON shape the model is asked for.
// Loosely typed fields absorb malformed responses.
type rawClassification struct {
	PlantReferences []string        `json:"plant_references"`
	QueryType       string          `json:"query_type"`
	Confidence      json.RawMessage `json:"confidence"`
	Reasoning       string          `json:"reasoning"`
}

// parseClassification parses the model output, substituting safe defaults
// field by field instead of failing the whole classification.
func parseClassification(content string, logger *logrus.Logger) Classification {
	cleaned := stripCodeFence(content)

	var raw rawClassification
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		logger.WithError(err).Warn("Failed to parse classification response as JSON")
		return FallbackClassification("")
	}

	result := Classification{
		QueryType:       Type(strings.ToUpper(strings.TrimSpace(raw.QueryType))),
		PlantReferences: raw.PlantReferences,
		Reasoning:       raw.Reasoning,
		Confidence:      parseConfidence(raw.Confidence),
	}
	if result.PlantReferences == nil {
		result.PlantReferences = []string{}
	}
	if !result.QueryType.Valid() {
		logger.WithField("query_type", raw.QueryType).Warn("Invalid query type, defaulting to GENERAL")
		result.QueryType = TypeGeneral
	}

	return result
}

// parseConfidence accepts a JSON number or numeric string; anything else
// becomes 0.5. The value is clamped into [0,1].
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.5
	}

	var confidence float64
	if err := json.Unmarshal(raw, &confidence); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0.5
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &confidence); err != nil {
			return 0.5
		}
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// stripCodeFence removes a surrounding markdown code fence some models
// wrap JSON in.
func stripCodeFence(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// FallbackClassification is the deterministic keyword classifier used
// when the generation call fails or returns garbage. It never calls the
// generation client and never fails. No plant extraction is attempted.
func FallbackClassification(utterance string) Classification {
	lower := strings.ToLower(utterance)

	if containsAny(lower, "what plants", "list", "all plants", "which plants", "show all", "tell me about the plants") {
		return Classification{
			QueryType:       TypeList,
			PlantReferences: []string{},
			Confidence:      0.8,
			Reasoning:       "Fallback: detected list-related keywords",
		}
	}
	if containsAny(lower, "where", "location") {
		return Classification{
			QueryType:       TypeLocation,
			PlantReferences: []string{},
			Confidence:      0.6,
			Reasoning:       "Fallback: detected location-related keywords",
		}
	}
	if containsAny(lower, "show me", "picture", "photo", "look like") {
		return Classification{
			QueryType:       TypePhoto,
			PlantReferences: []string{},
			Confidence:      0.7,
			Reasoning:       "Fallback: detected photo-related keywords",
		}
	}

	return Classification{
		QueryType:       TypeGeneral,
		PlantReferences: []string{},
		Confidence:      0.5,
		Reasoning:       "Fallback: defaulting to general query",
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
