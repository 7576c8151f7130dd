package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenllm/gardenllm-backend/internal/llm"
)

type stubClient struct {
	content  string
	err      error
	lastOpts llm.Options
	calls    int
}

func (c *stubClient) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	c.calls++
	c.lastOpts = opts
	return c.content, c.err
}

func newTestClassifier(client llm.Client) *Classifier {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClassifier(client, "gpt-3.5-turbo", 500, logger)
}

func TestClassify_WellFormedResponse(t *testing.T) {
	client := &stubClient{content: `{
		"plant_references": ["Cherry Tomato"],
		"query_type": "LOCATION",
		"confidence": 0.95,
		"reasoning": "asks where a specific plant is"
	}`}
	c := newTestClassifier(client)

	result := c.Classify(context.Background(), "Where is my cherry tomato?", []string{"Cherry Tomato", "Sweet Basil"})

	assert.Equal(t, TypeLocation, result.QueryType)
	assert.Equal(t, []string{"Cherry Tomato"}, result.PlantReferences)
	assert.Equal(t, 0.95, result.Confidence)
	assert.False(t, result.RequiresGeneration())
}

func TestClassify_UsesLowTemperature(t *testing.T) {
	client := &stubClient{content: `{"query_type": "LIST"}`}
	c := newTestClassifier(client)

	c.Classify(context.Background(), "list my plants", nil)

	assert.Equal(t, 1, client.calls)
	assert.InDelta(t, 0.1, client.lastOpts.Temperature, 0.001)
	assert.Equal(t, 500, client.lastOpts.MaxTokens)
}

func TestClassify_ClientErrorFallsBack(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	c := newTestClassifier(client)

	result := c.Classify(context.Background(), "where are my roses?", nil)

	assert.Equal(t, TypeLocation, result.QueryType)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestClassify_EmptyContentFallsBack(t *testing.T) {
	client := &stubClient{content: "   "}
	c := newTestClassifier(client)

	result := c.Classify(context.Background(), "show me a picture of my basil", nil)

	assert.Equal(t, TypePhoto, result.QueryType)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestClassify_AlwaysWellFormed(t *testing.T) {
	responses := []string{
		"not json at all",
		`{"query_type": "BANANA", "confidence": 99}`,
		`{"confidence": "very sure"}`,
		"```json\n{\"query_type\": \"care\"}\n```",
		`{"plant_references": null, "query_type": "PHOTO", "confidence": -3}`,
	}

	for _, content := range responses {
		t.Run(content, func(t *testing.T) {
			c := newTestClassifier(&stubClient{content: content})

			result := c.Classify(context.Background(), "anything", nil)

			assert.True(t, result.QueryType.Valid())
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
			assert.NotNil(t, result.PlantReferences)
		})
	}
}

func TestParseClassification_FieldDefaults(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	tests := []struct {
		name       string
		content    string
		wantType   Type
		wantConf   float64
		wantPlants []string
	}{
		{
			name:       "missing fields default",
			content:    `{}`,
			wantType:   TypeGeneral,
			wantConf:   0.5,
			wantPlants: []string{},
		},
		{
			name:       "lowercase type normalized",
			content:    `{"query_type": "diagnosis", "confidence": 0.8}`,
			wantType:   TypeDiagnosis,
			wantConf:   0.8,
			wantPlants: []string{},
		},
		{
			name:       "invalid type coerced to general",
			content:    `{"query_type": "WEATHER", "confidence": 0.9}`,
			wantType:   TypeGeneral,
			wantConf:   0.9,
			wantPlants: []string{},
		},
		{
			name:       "numeric string confidence",
			content:    `{"query_type": "CARE", "confidence": "0.75"}`,
			wantType:   TypeCare,
			wantConf:   0.75,
			wantPlants: []string{},
		},
		{
			name:       "non-numeric confidence defaults",
			content:    `{"query_type": "CARE", "confidence": "high"}`,
			wantType:   TypeCare,
			wantConf:   0.5,
			wantPlants: []string{},
		},
		{
			name:       "confidence clamped high",
			content:    `{"query_type": "LIST", "confidence": 12}`,
			wantType:   TypeList,
			wantConf:   1.0,
			wantPlants: []string{},
		},
		{
			name:       "confidence clamped low",
			content:    `{"query_type": "LIST", "confidence": -0.5}`,
			wantType:   TypeList,
			wantConf:   0.0,
			wantPlants: []string{},
		},
		{
			name:       "code fence stripped",
			content:    "```json\n{\"query_type\": \"PHOTO\", \"plant_references\": [\"Rose\"], \"confidence\": 0.9}\n```",
			wantType:   TypePhoto,
			wantConf:   0.9,
			wantPlants: []string{"Rose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseClassification(tt.content, logger)

			assert.Equal(t, tt.wantType, result.QueryType)
			assert.Equal(t, tt.wantConf, result.Confidence)
			assert.Equal(t, tt.wantPlants, result.PlantReferences)
		})
	}
}

func TestFallbackClassification(t *testing.T) {
	tests := []struct {
		utterance string
		wantType  Type
		wantConf  float64
	}{
		{"What plants do I have?", TypeList, 0.8},
		{"Show all my plants", TypeList, 0.8},
		{"Where is my tomato?", TypeLocation, 0.6},
		{"What's the location of the fig tree?", TypeLocation, 0.6},
		{"Show me the basil", TypePhoto, 0.7},
		{"What does a persimmon look like?", TypePhoto, 0.7},
		{"Why are my leaves turning yellow?", TypeGeneral, 0.5},
		{"", TypeGeneral, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			result := FallbackClassification(tt.utterance)

			assert.Equal(t, tt.wantType, result.QueryType)
			assert.Equal(t, tt.wantConf, result.Confidence)
			assert.Empty(t, result.PlantReferences)
			assert.NotNil(t, result.PlantReferences)
		})
	}
}

func TestRequiresGeneration_Partition(t *testing.T) {
	direct := []Type{TypeList, TypeLocation, TypePhoto}
	generated := []Type{TypeCare, TypeDiagnosis, TypeAdvice, TypeGeneral}

	for _, qt := range direct {
		assert.False(t, qt.RequiresGeneration(), "%s should be answerable directly", qt)
	}
	for _, qt := range generated {
		assert.True(t, qt.RequiresGeneration(), "%s should need generation", qt)
	}
}

func TestPromptPlantList(t *testing.T) {
	t.Run("empty database", func(t *testing.T) {
		assert.Equal(t, "No plants in database", promptPlantList("anything", nil))
	})

	t.Run("related names always included", func(t *testing.T) {
		names := make([]string, 0, 60)
		for i := 0; i < 58; i++ {
			names = append(names, "Filler Plant "+strings.Repeat("x", i%5+1))
		}
		names = append(names, "Peggy Martin Rose", "Knockout Rose")

		list := promptPlantList("how do I care for my roses?", names)
		assert.Contains(t, list, "Peggy Martin Rose")
		assert.Contains(t, list, "Knockout Rose")
		assert.Contains(t, list, "more plants")
	})

	t.Run("unrelated query truncates to thirty", func(t *testing.T) {
		names := make([]string, 40)
		for i := range names {
			names[i] = "Zinnia Variety " + string(rune('A'+i))
		}

		list := promptPlantList("hello", names)
		assert.Contains(t, list, "and 10 more plants")
	})
}

func TestClassify_PromptEmbedsUtteranceAndPlants(t *testing.T) {
	prompt := buildAnalysisPrompt("Where is my fig?", []string{"Celeste Fig"})

	require.Contains(t, prompt, `"Where is my fig?"`)
	assert.Contains(t, prompt, "Celeste Fig")
	assert.Contains(t, prompt, "JSON only:")
}
