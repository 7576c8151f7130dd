package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/records"
)

// handleList answers "what plants do I have" straight from the database.
func (p *Pipeline) handleList(ctx context.Context) (string, error) {
	plants, err := p.records.FetchPlants(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list plants: %w", err)
	}

	if len(plants) == 0 {
		return "There are currently no plants in the database.", nil
	}

	var b strings.Builder
	b.WriteString("Here are the plants currently in your garden:\n")
	for _, plant := range plants {
		fmt.Fprintf(&b, "- %s\n", plant.Name)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// handleLocation reports where the referenced plants are, with photo
// links when available.
func (p *Pipeline) handleLocation(ctx context.Context, plantRefs []string, utterance string) (string, error) {
	plants, err := p.lookupPlants(ctx, plantRefs, utterance)
	if err != nil {
		return "", err
	}
	if len(plants) == 0 {
		return fmt.Sprintf("I couldn't find any plants matching %q in the database.", searchLabel(plantRefs, utterance)), nil
	}

	var parts []string
	for _, plant := range plants {
		if plant.Location != "" {
			parts = append(parts, fmt.Sprintf("The %s is located in the %s.", plant.Name, plant.Location))
		} else {
			parts = append(parts, fmt.Sprintf("I found %s, but its location is not specified.", plant.Name))
		}
	}
	for _, plant := range plants {
		if url := normalizePhotoURL(plant.PhotoURL); url != "" {
			parts = append(parts, fmt.Sprintf("You can see a photo of the %s here: %s", plant.Name, url))
		}
	}
	return strings.Join(parts, "\n"), nil
}

// handlePhoto reports photo links for the referenced plants.
func (p *Pipeline) handlePhoto(ctx context.Context, plantRefs []string, utterance string) (string, error) {
	plants, err := p.lookupPlants(ctx, plantRefs, utterance)
	if err != nil {
		return "", err
	}
	if len(plants) == 0 {
		return fmt.Sprintf("I couldn't find any plants matching %q in the database.", searchLabel(plantRefs, utterance)), nil
	}

	var parts []string
	for _, plant := range plants {
		if url := normalizePhotoURL(plant.PhotoURL); url != "" {
			parts = append(parts, fmt.Sprintf("Here's what %s looks like:\n%s", plant.Name, url))
		} else {
			parts = append(parts, fmt.Sprintf("I found %s, but there's no photo available.", plant.Name))
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// handlePlaceQuery answers "what plants are in <place>" queries. A
// dedicated generation call picks the relevant place names out of the
// garden's known list; the result is validated against that list before
// any records are fetched.
func (p *Pipeline) handlePlaceQuery(ctx context.Context, utterance string) (string, error) {
	locations, err := p.records.LocationNames(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load location names: %w", err)
	}
	if len(locations) == 0 {
		return "I couldn't find any location information in your garden database.", nil
	}

	matched, err := p.matchPlaces(ctx, utterance, locations)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return fmt.Sprintf("I couldn't identify which locations you're asking about in %q. Please try being more specific about the location names.", utterance), nil
	}

	plants, err := p.records.PlantsByLocations(ctx, matched)
	if err != nil {
		return "", fmt.Errorf("failed to fetch plants for locations %v: %w", matched, err)
	}
	if len(plants) == 0 {
		return fmt.Sprintf("I couldn't find any plants in the following locations: %s.", strings.Join(matched, ", ")), nil
	}

	return formatPlantsByLocation(matched, plants), nil
}

// matchPlaces asks the generation client which known place names the
// utterance refers to. Ambiguous phrasing must yield no match rather
// than a guess; names the model invents are discarded.
func (p *Pipeline) matchPlaces(ctx context.Context, utterance string, locations []string) ([]string, error) {
	prompt := fmt.Sprintf(`You are a gardening assistant that matches user queries to specific garden locations.

Available locations in the garden: %s

User query: %q

Return ONLY a JSON array of location names from the list above that the user is asking about. Include every relevant location. If no locations clearly match, return an empty array. Do not guess.

Return ONLY the JSON array, no other text:`, strings.Join(locations, ", "), utterance)

	p.monitor.RecordGeneration()
	content, err := p.client.Generate(ctx,
		[]llm.Message{
			{Role: llm.RoleSystem, Content: "You are a gardening assistant that matches user queries to garden locations."},
			{Role: llm.RoleUser, Content: prompt},
		},
		llm.Options{
			Model:       p.cfg.ChatModel,
			Temperature: 0.1,
			MaxTokens:   200,
		})
	if err != nil {
		return nil, fmt.Errorf("location matching call failed: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var candidates []string
	if err := json.Unmarshal([]byte(stripFence(content)), &candidates); err != nil {
		p.logger.WithError(err).Warn("Location matcher returned malformed JSON")
		return nil, nil
	}

	known := make(map[string]string, len(locations))
	for _, loc := range locations {
		known[strings.ToLower(loc)] = loc
	}

	var matched []string
	for _, candidate := range candidates {
		if loc, ok := known[strings.ToLower(strings.TrimSpace(candidate))]; ok {
			matched = append(matched, loc)
		}
	}
	return matched, nil
}

// lookupPlants resolves the classifier's plant references, falling back
// to the whole utterance when the classifier extracted none.
func (p *Pipeline) lookupPlants(ctx context.Context, plantRefs []string, utterance string) ([]records.Plant, error) {
	names := plantRefs
	if len(names) == 0 {
		if term := extractSearchTerm(utterance); term != "" && term != "*" {
			names = []string{term}
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	plants, err := p.records.FetchPlants(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plants %v: %w", names, err)
	}
	return plants, nil
}

func formatPlantsByLocation(matched []string, plants []records.Plant) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Here are the plants I found in %s:", strings.Join(matched, ", ")))

	grouped := make(map[string][]string)
	var order []string
	for _, plant := range plants {
		loc := plant.Location
		if loc == "" {
			loc = "Unknown Location"
		}
		if _, seen := grouped[loc]; !seen {
			order = append(order, loc)
		}
		grouped[loc] = append(grouped[loc], plant.Name)
	}
	for _, loc := range order {
		parts = append(parts, fmt.Sprintf("• %s: %s", loc, strings.Join(grouped[loc], ", ")))
	}

	var photos []string
	for _, plant := range plants {
		if url := normalizePhotoURL(plant.PhotoURL); url != "" {
			photos = append(photos, fmt.Sprintf("• %s: %s", plant.Name, url))
		}
	}
	if len(photos) > 0 {
		parts = append(parts, "\nPhotos available for:")
		parts = append(parts, photos...)
	}

	return strings.Join(parts, "\n")
}

// normalizePhotoURL works around a Google Photos quirk: shared links need
// their query parameters replaced with authuser=0 to render for the
// viewer.
func normalizePhotoURL(url string) string {
	if url == "" {
		return ""
	}
	if strings.Contains(url, "photos.google.com") {
		if idx := strings.Index(url, "?"); idx >= 0 {
			url = url[:idx]
		}
		return url + "?authuser=0"
	}
	return url
}

func searchLabel(plantRefs []string, utterance string) string {
	if len(plantRefs) > 0 {
		return strings.Join(plantRefs, ", ")
	}
	if term := extractSearchTerm(utterance); term != "" {
		return term
	}
	return utterance
}

// stripFence removes a markdown code fence around a JSON payload.
func stripFence(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
