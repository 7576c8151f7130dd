package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/gardenllm/gardenllm-backend/internal/conversation"
	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/query"
	"github.com/gardenllm/gardenllm-backend/internal/records"
)

// emptyAnswerMessage replaces a null or empty generation result so the
// user never sees a blank reply.
const emptyAnswerMessage = "I'm sorry, I couldn't come up with an answer to that. Could you rephrase your question?"

// Per-type system prompts. Each generation-required query type gets its
// own persona so the answer stays focused on what was asked.
var systemPrompts = map[query.Type]string{
	query.TypeCare:      "You are an experienced gardener helping with plant care. Give practical, specific care instructions based on the plant details provided. Keep answers conversational and actionable.",
	query.TypeDiagnosis: "You are a plant health expert diagnosing problems. Consider the plant's growing conditions in the details provided, suggest likely causes for the symptoms described, and recommend remedies.",
	query.TypeAdvice:    "You are a knowledgeable gardening advisor. Give concrete, season-appropriate advice tailored to the plants and climate described.",
	query.TypeGeneral:   "You are a helpful gardening assistant. Answer naturally and conversationally, using the garden details provided when they are relevant.",
}

// handleAugmented answers a generation-required query: fetch the
// referenced records, build a type-specific context, call the generation
// client with optional conversation history, and post-process the answer.
func (p *Pipeline) handleAugmented(ctx context.Context, classification query.Classification, utterance, conversationID string) (string, error) {
	var plants []records.Plant
	if len(classification.PlantReferences) > 0 {
		var err error
		plants, err = p.records.FetchPlants(ctx, classification.PlantReferences)
		if err != nil {
			p.logger.WithError(err).Warn("Record fetch failed, answering without plant context")
			plants = nil
		}
	}

	contextString := p.buildContext(classification.QueryType, plants)
	systemPrompt, ok := systemPrompts[classification.QueryType]
	if !ok {
		systemPrompt = systemPrompts[query.TypeGeneral]
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt + "\n\n" + contextString},
	}
	if conversationID != "" && p.convs != nil {
		for _, msg := range p.convs.GetMessages(conversationID) {
			if msg.Role == llm.RoleSystem {
				continue
			}
			messages = append(messages, llm.Message{Role: msg.Role, Content: flattenContent(msg)})
		}
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: utterance})

	p.monitor.RecordGeneration()
	answer, err := p.client.Generate(ctx, messages, llm.Options{
		Model:       p.cfg.ChatModel,
		Temperature: p.cfg.ChatTemperature,
		MaxTokens:   p.cfg.ChatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		answer = emptyAnswerMessage
	}

	// Append a photo line for each referenced plant that has one.
	for _, plant := range plants {
		if url := normalizePhotoURL(plant.PhotoURL); url != "" {
			answer += fmt.Sprintf("\n\nYou can see a photo of %s here: %s", plant.Name, url)
		}
	}

	if conversationID != "" && p.convs != nil {
		p.convs.AddMessage(conversationID, conversation.TextMessage(llm.RoleUser, utterance))
		p.convs.AddMessage(conversationID, conversation.TextMessage(llm.RoleAssistant, answer))
	}

	return answer, nil
}

// buildContext assembles the prompt context: fixed garden facts plus a
// per-plant digest whose fields depend on the query type, so a care
// question is not padded with diagnosis data and vice versa.
func (p *Pipeline) buildContext(queryType query.Type, plants []records.Plant) string {
	var b strings.Builder
	b.WriteString(p.garden.ContextString())

	if len(plants) == 0 {
		return b.String()
	}

	b.WriteString("\n\nPlants from the garden database:\n")
	for _, plant := range plants {
		fmt.Fprintf(&b, "\n%s:\n", plant.Name)
		for _, field := range digestFields(queryType, plant) {
			if field.value != "" {
				fmt.Fprintf(&b, "  %s: %s\n", field.label, field.value)
			}
		}
	}
	return b.String()
}

type digestField struct {
	label string
	value string
}

// digestFields picks which record fields are relevant for a query type.
func digestFields(queryType query.Type, plant records.Plant) []digestField {
	switch queryType {
	case query.TypeCare:
		return []digestField{
			{"Watering", plant.WateringNeeds},
			{"Light", plant.LightRequirements},
			{"Soil", plant.SoilPreferences},
			{"Pruning", plant.PruningInstructions},
			{"Mulching", plant.MulchingNeeds},
			{"Fertilizing", plant.FertilizingSchedule},
			{"Spacing", plant.SpacingRequirements},
		}
	case query.TypeDiagnosis:
		return []digestField{
			{"Location", plant.Location},
			{"Watering", plant.WateringNeeds},
			{"Light", plant.LightRequirements},
			{"Soil", plant.SoilPreferences},
			{"Frost tolerance", plant.FrostTolerance},
			{"Description", plant.Description},
		}
	case query.TypeAdvice:
		return []digestField{
			{"Pruning", plant.PruningInstructions},
			{"Fertilizing", plant.FertilizingSchedule},
			{"Winter care", plant.WinterizingInstructions},
			{"Care notes", plant.CareNotes},
		}
	default:
		return []digestField{
			{"Location", plant.Location},
			{"Description", plant.Description},
			{"Care notes", plant.CareNotes},
		}
	}
}

// flattenContent renders a possibly multi-part message as plain text for
// the generation request.
func flattenContent(msg conversation.Message) string {
	if len(msg.Parts) == 0 {
		return msg.Content
	}
	var parts []string
	for _, part := range msg.Parts {
		switch part.Type {
		case conversation.PartTypeImage:
			parts = append(parts, part.ImageURL)
		default:
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}
