package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenllm/gardenllm-backend/internal/records"
)

const sampleCareGuide = `**Description:** A hardy Mediterranean herb with fragrant purple blooms.
**Light:** Full sun, at least six hours a day.
**Soil:** Well-draining, slightly alkaline.
**Watering:** Sparingly once established.
**Temperature:** Hardy to zone 5.
**Pruning:** Cut back by a third after flowering.
**Mulching:** Gravel mulch, keep crowns dry.
**Fertilizing:** None needed in decent soil.
**Winter Care:** No protection needed in zone 9a.
**Spacing:** 18 to 24 inches apart.`

func TestHandleCommand_AddWithCareGuide(t *testing.T) {
	store := &fakeStore{}
	chatLLM := &fakeLLM{responses: []string{sampleCareGuide}}
	p := newTestPipeline(t, store, &fakeLLM{}, chatLLM)

	response, handled := p.HandleCommand(context.Background(), "add plant Lavender location Herb Spiral, Front Walk")

	require.True(t, handled)
	assert.Contains(t, response, `Added plant "Lavender"`)
	assert.Contains(t, response, "Herb Spiral, Front Walk")
	assert.Contains(t, response, "Care guide:")

	require.Len(t, store.added, 1)
	added := store.added[0]
	assert.Equal(t, "Lavender", added.Name)
	assert.Equal(t, "Herb Spiral, Front Walk", added.Location)
	assert.Equal(t, "A hardy Mediterranean herb with fragrant purple blooms.", added.Description)
	assert.Equal(t, "Full sun, at least six hours a day.", added.LightRequirements)
	assert.Equal(t, "Sparingly once established.", added.WateringNeeds)
	assert.Equal(t, "18 to 24 inches apart.", added.SpacingRequirements)
	assert.Equal(t, sampleCareGuide, added.CareNotes)
}

func TestHandleCommand_AddSurvivesGuideFailure(t *testing.T) {
	store := &fakeStore{}
	chatLLM := &fakeLLM{err: errors.New("model unavailable")}
	p := newTestPipeline(t, store, &fakeLLM{}, chatLLM)

	response, handled := p.HandleCommand(context.Background(), "add plant Fig location Back Fence")

	require.True(t, handled)
	assert.Contains(t, response, `Added plant "Fig"`)
	assert.NotContains(t, response, "Care guide:")

	require.Len(t, store.added, 1)
	assert.Empty(t, store.added[0].CareNotes)
}

func TestHandleCommand_AddStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("insert failed")}
	p := newTestPipeline(t, store, &fakeLLM{}, &fakeLLM{})

	response, handled := p.HandleCommand(context.Background(), "add plant Fig location Back Fence")

	require.True(t, handled)
	assert.Contains(t, response, "Error adding plant")
}

func TestHandleCommand_Update(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(t, store, &fakeLLM{}, &fakeLLM{})

	response, handled := p.HandleCommand(context.Background(), "update plant Rose location Front Bed")

	require.True(t, handled)
	assert.Equal(t, "Updated location for Rose.", response)
	assert.Equal(t, []string{"Rose/location/Front Bed"}, store.updates)
}

func TestHandleCommand_UpdateFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("no such plant")}
	p := newTestPipeline(t, store, &fakeLLM{}, &fakeLLM{})

	response, handled := p.HandleCommand(context.Background(), "update plant Rose location Front Bed")

	require.True(t, handled)
	assert.Contains(t, response, "couldn't update")
}

func TestHandleCommand_OrdinaryQueryNotHandled(t *testing.T) {
	p := newTestPipeline(t, &fakeStore{}, &fakeLLM{}, &fakeLLM{})

	response, handled := p.HandleCommand(context.Background(), "Where is my tomato?")

	assert.False(t, handled)
	assert.Empty(t, response)
}

func TestParseCareGuide_PartialSections(t *testing.T) {
	guide := "**Watering:** Weekly.\nSome free text.\n**Light:** Partial shade."

	var plant records.Plant
	parseCareGuide(guide, &plant)

	assert.Equal(t, "Weekly.\nSome free text.", plant.WateringNeeds)
	assert.Equal(t, "Partial shade.", plant.LightRequirements)
	assert.Empty(t, plant.SoilPreferences)
}
