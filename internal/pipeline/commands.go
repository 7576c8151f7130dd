package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/records"
)

// Care guide section headings the model is asked for, mapped to record
// fields.
var careGuideSections = []struct {
	heading string
	field   func(*records.Plant) *string
}{
	{"Description", func(p *records.Plant) *string { return &p.Description }},
	{"Light", func(p *records.Plant) *string { return &p.LightRequirements }},
	{"Soil", func(p *records.Plant) *string { return &p.SoilPreferences }},
	{"Watering", func(p *records.Plant) *string { return &p.WateringNeeds }},
	{"Temperature", func(p *records.Plant) *string { return &p.FrostTolerance }},
	{"Pruning", func(p *records.Plant) *string { return &p.PruningInstructions }},
	{"Mulching", func(p *records.Plant) *string { return &p.MulchingNeeds }},
	{"Fertilizing", func(p *records.Plant) *string { return &p.FertilizingSchedule }},
	{"Winter Care", func(p *records.Plant) *string { return &p.WinterizingInstructions }},
	{"Spacing", func(p *records.Plant) *string { return &p.SpacingRequirements }},
}

// HandleCommand runs a message through the command parser and executes
// it if it is an add or update command. The second return is false when
// the message is an ordinary query the caller should route through
// Process instead.
func (p *Pipeline) HandleCommand(ctx context.Context, message string) (string, bool) {
	cmd := records.ParseCommand(message)
	switch cmd.Kind {
	case records.CommandAdd:
		response, err := p.handleAddCommand(ctx, cmd)
		if err != nil {
			p.logger.WithError(err).Error("Add command failed")
			return fmt.Sprintf("Error adding plant %q. Please try again.", cmd.PlantName), true
		}
		return response, true
	case records.CommandUpdate:
		response, err := p.handleUpdateCommand(ctx, cmd)
		if err != nil {
			return fmt.Sprintf("Error updating plant %q. Please try again.", cmd.PlantName), true
		}
		return response, true
	}
	return "", false
}

// handleAddCommand adds a plant to the database, asking the generation
// client for a sectioned care guide first. A failed guide call is not
// fatal; the plant is stored without one.
func (p *Pipeline) handleAddCommand(ctx context.Context, cmd records.ParsedCommand) (string, error) {
	plant := records.Plant{
		Name:     cmd.PlantName,
		Location: strings.Join(cmd.Locations, ", "),
		PhotoURL: cmd.PhotoURL,
	}

	guide := p.generateCareGuide(ctx, cmd.PlantName, cmd.Locations)
	if guide != "" {
		plant.CareNotes = guide
		parseCareGuide(guide, &plant)
	}

	if err := p.records.AddPlant(ctx, plant); err != nil {
		return "", fmt.Errorf("failed to add plant %q: %w", cmd.PlantName, err)
	}

	response := fmt.Sprintf("Added plant %q to locations: %s", cmd.PlantName, strings.Join(cmd.Locations, ", "))
	if guide != "" {
		response += "\n\nCare guide:\n" + guide
	}
	return response, nil
}

// handleUpdateCommand sets a single field on an existing plant.
func (p *Pipeline) handleUpdateCommand(ctx context.Context, cmd records.ParsedCommand) (string, error) {
	if err := p.records.UpdatePlantField(ctx, cmd.PlantName, cmd.Field, cmd.Value); err != nil {
		return fmt.Sprintf("I couldn't update %s: %v", cmd.PlantName, err), nil
	}
	return fmt.Sprintf("Updated %s for %s.", cmd.Field, cmd.PlantName), nil
}

// generateCareGuide asks for a sectioned care guide for a new plant.
// Returns "" when the call fails.
func (p *Pipeline) generateCareGuide(ctx context.Context, plantName string, locations []string) string {
	prompt := fmt.Sprintf(
		"Create a detailed plant care guide for %s in %s. "+
			"Include care requirements, growing conditions, and maintenance tips. "+
			"Focus on practical advice for the specified locations: %s\n\n"+
			"Please include sections for:\n"+
			"**Description:**\n**Light:**\n**Soil:**\n**Watering:**\n**Temperature:**\n"+
			"**Pruning:**\n**Mulching:**\n**Fertilizing:**\n**Winter Care:**\n**Spacing:**",
		plantName, p.garden.Location, strings.Join(locations, ", "))

	p.monitor.RecordGeneration()
	guide, err := p.client.Generate(ctx,
		[]llm.Message{
			{Role: llm.RoleSystem, Content: "You are a gardening expert assistant. Provide detailed, practical plant care guides with specific instructions. Use the exact section titles provided without modification."},
			{Role: llm.RoleUser, Content: prompt},
		},
		llm.Options{
			Model:       p.cfg.ChatModel,
			Temperature: 0.7,
			MaxTokens:   p.cfg.ChatMaxTokens,
		})
	if err != nil {
		p.logger.WithError(err).Warn("Care guide generation failed, adding plant without one")
		return ""
	}
	return strings.TrimSpace(guide)
}

// parseCareGuide extracts the "**Heading:**" sections of a care guide
// into the plant's individual fields.
func parseCareGuide(guide string, plant *records.Plant) {
	for _, section := range careGuideSections {
		marker := "**" + section.heading + ":**"
		start := strings.Index(guide, marker)
		if start < 0 {
			continue
		}
		body := guide[start+len(marker):]
		if end := strings.Index(body, "**"); end >= 0 {
			body = body[:end]
		}
		*section.field(plant) = strings.TrimSpace(body)
	}
}
