package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/records"
)

// Search-term extraction patterns, checked in order. The first group of
// each regex captures the candidate plant name.
var (
	generalListPhrases = []string{
		"what plants",
		"list of plants",
		"all plants",
		"which plants",
		"show all plants",
		"tell me about the plants",
	}

	locationTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`where (?:is|are) (?:the\s+|my\s+)?([a-zA-Z\s]+)`),
		regexp.MustCompile(`location of (?:the\s+|my\s+)?([a-zA-Z\s]+)`),
		regexp.MustCompile(`where can i find (?:the\s+|my\s+)?([a-zA-Z\s]+)`),
	}

	plantTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`about\s+(?:the\s+|my\s+)?([a-zA-Z\s]+\b)`),
		regexp.MustCompile(`how\s+(?:do\s+)?(?:i\s+)?(?:grow|care\s+for|plant|maintain|water|prune)\s+(?:a\s+|my\s+|the\s+)?([a-zA-Z\s]+\b)`),
		regexp.MustCompile(`show\s+me\s+(?:the\s+|my\s+)?([a-zA-Z\s]+\b)`),
		regexp.MustCompile(`what\s+does\s+(?:a\s+|my\s+)?([a-zA-Z\s]+)\s+look\s+like`),
		regexp.MustCompile(`picture\s+of\s+(?:a\s+|my\s+)?([a-zA-Z\s]+\b)`),
		regexp.MustCompile(`photo\s+of\s+(?:a\s+|my\s+)?([a-zA-Z\s]+\b)`),
		regexp.MustCompile(`^([a-zA-Z\s]+)$`),
	}
)

// extractSearchTerm pulls a plant name candidate out of a message with
// basic pattern matching. "*" means a list-all query; "" means nothing
// recognizable was found.
func extractSearchTerm(message string) string {
	lower := strings.ToLower(message)

	for _, phrase := range generalListPhrases {
		if strings.Contains(lower, phrase) {
			return "*"
		}
	}

	for _, pattern := range locationTermPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	for _, pattern := range plantTermPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	return ""
}

// legacyResponse is the classifier-independent rule-based responder used
// when the main pipeline fails. It handles add/update commands, does its
// own search-term extraction and record lookups, and makes at most one
// generic generation call. It returns an error only when it truly has
// nothing to say; the caller then falls back to the static apology.
func (p *Pipeline) legacyResponse(ctx context.Context, message string) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in legacy handler: %v", r)
		}
	}()

	cmd := records.ParseCommand(message)
	switch cmd.Kind {
	case records.CommandAdd:
		return p.handleAddCommand(ctx, cmd)
	case records.CommandUpdate:
		return p.handleUpdateCommand(ctx, cmd)
	}

	lower := strings.ToLower(message)
	term := extractSearchTerm(message)

	isImageQuery := containsAny(lower, "look like", "show me", "picture of", "photo of")
	isLocationQuery := containsAny(lower, "where is", "where are", "location of", "where can i find")

	if term == "*" {
		return p.legacyListResponse(ctx)
	}

	if term != "" {
		plants, fetchErr := p.records.FetchPlants(ctx, []string{term})
		if fetchErr != nil {
			return "I encountered an error while looking up the plant database. Please try again.", nil
		}
		if len(plants) == 0 {
			return fmt.Sprintf("I couldn't find any plants matching %q in the database.", term), nil
		}

		if isLocationQuery {
			return legacyLocationResponse(plants), nil
		}
		if isImageQuery {
			return legacyPhotoResponse(plants), nil
		}
		return p.legacyInfoResponse(ctx, plants), nil
	}

	return "I'm not sure what you're asking about. Could you please rephrase your question or specify a plant name?", nil
}

// legacyListResponse enumerates the plant names without a generation
// call.
func (p *Pipeline) legacyListResponse(ctx context.Context) (string, error) {
	plants, err := p.records.FetchPlants(ctx, nil)
	if err != nil {
		return "I encountered an error while retrieving the plant list. Please try again.", nil
	}
	if len(plants) == 0 {
		return "There are currently no plants in the database.", nil
	}

	var b strings.Builder
	b.WriteString("Here are the plants currently in the database:\n")
	for _, plant := range plants {
		fmt.Fprintf(&b, "- %s\n", plant.Name)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func legacyLocationResponse(plants []records.Plant) string {
	var parts []string
	for _, plant := range plants {
		if plant.Location != "" {
			parts = append(parts, fmt.Sprintf("The %s is located in the %s.", plant.Name, plant.Location))
		} else {
			parts = append(parts, fmt.Sprintf("I found %s, but its location is not specified.", plant.Name))
		}
	}
	return strings.Join(parts, "\n")
}

func legacyPhotoResponse(plants []records.Plant) string {
	var parts []string
	for _, plant := range plants {
		if url := normalizePhotoURL(plant.PhotoURL); url != "" {
			parts = append(parts, fmt.Sprintf("Here's what %s looks like:\n%s", plant.Name, url))
		} else {
			parts = append(parts, fmt.Sprintf("I found %s, but there's no photo available.", plant.Name))
		}
	}
	return strings.Join(parts, "\n\n")
}

// legacyInfoResponse tries one generic generation call over the matched
// records; if the call fails it degrades to a plain fact dump.
func (p *Pipeline) legacyInfoResponse(ctx context.Context, plants []records.Plant) string {
	var facts strings.Builder
	for _, plant := range plants {
		fmt.Fprintf(&facts, "%s:\n", plant.Name)
		for _, field := range allFields(plant) {
			if field.value != "" {
				fmt.Fprintf(&facts, "  %s: %s\n", field.label, field.value)
			}
		}
	}

	p.monitor.RecordGeneration()
	answer, err := p.client.Generate(ctx,
		[]llm.Message{
			{Role: llm.RoleSystem, Content: "You are a helpful gardening assistant."},
			{Role: llm.RoleUser, Content: "Please describe the following plants in a natural, conversational way, focusing on the details most relevant to a gardener.\n\n" + facts.String()},
		},
		llm.Options{
			Model:       p.cfg.ChatModel,
			Temperature: p.cfg.ChatTemperature,
			MaxTokens:   p.cfg.ChatMaxTokens,
		})
	if err != nil || strings.TrimSpace(answer) == "" {
		var b strings.Builder
		for i, plant := range plants {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Here's what I know about %s:\n", plant.Name)
			for _, field := range allFields(plant) {
				if field.value != "" {
					fmt.Fprintf(&b, "%s: %s\n", field.label, field.value)
				}
			}
		}
		return strings.TrimRight(b.String(), "\n")
	}

	for _, plant := range plants {
		if url := normalizePhotoURL(plant.PhotoURL); url != "" {
			answer += fmt.Sprintf("\n\nYou can see a photo of %s here: %s", plant.Name, url)
		}
	}
	return answer
}

func allFields(plant records.Plant) []digestField {
	return []digestField{
		{"Location", plant.Location},
		{"Description", plant.Description},
		{"Light", plant.LightRequirements},
		{"Soil", plant.SoilPreferences},
		{"Watering", plant.WateringNeeds},
		{"Frost tolerance", plant.FrostTolerance},
		{"Pruning", plant.PruningInstructions},
		{"Mulching", plant.MulchingNeeds},
		{"Fertilizing", plant.FertilizingSchedule},
		{"Winter care", plant.WinterizingInstructions},
		{"Spacing", plant.SpacingRequirements},
		{"Care notes", plant.CareNotes},
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
