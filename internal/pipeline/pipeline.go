package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gardenllm/gardenllm-backend/internal/conversation"
	"github.com/gardenllm/gardenllm-backend/internal/garden"
	"github.com/gardenllm/gardenllm-backend/internal/llm"
	"github.com/gardenllm/gardenllm-backend/internal/query"
	"github.com/gardenllm/gardenllm-backend/internal/records"
)

// apologyMessage is the terminal fallback. It is returned when every
// other tier has failed and must never be replaced by an error.
const apologyMessage = "Sorry, there was an error processing your request. Please try again."

// errUnroutable marks a classification the router has no handler for;
// the exception barrier converts it into a legacy-handler response.
var errUnroutable = fmt.Errorf("no handler for classified query type")

// Patterns that identify "what plants are in <place>" style queries.
// These are checked before classification because matching against the
// garden's dynamic place list needs its own dedicated generation call.
var placeQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bplants?\s+(?:are\s+)?in\b`),
	regexp.MustCompile(`(?i)\bgrowing\s+in\b`),
	regexp.MustCompile(`(?i)what(?:'s|\s+is)\s+in\s+the\b`),
	regexp.MustCompile(`(?i)how\s+many\s+(?:different\s+)?plants?\b.*\bin\b`),
}

// Config carries the knobs the pipeline needs for its generation calls.
type Config struct {
	ChatModel       string
	ChatTemperature float32
	ChatMaxTokens   int
}

// Pipeline orchestrates query handling: classification, routing between
// the direct and generation-augmented paths, and the fallback chain.
// Process never returns an error and never panics outward; every failure
// tier degrades to the next one, ending at a fixed apology.
type Pipeline struct {
	classifier *query.Classifier
	records    records.Store
	convs      *conversation.Store
	client     llm.Client
	monitor    *Monitor
	logger     *logrus.Logger
	garden     garden.Profile
	cfg        Config
}

// New creates a pipeline. The monitor may be shared with the API layer
// for metrics reads.
func New(
	classifier *query.Classifier,
	store records.Store,
	convs *conversation.Store,
	client llm.Client,
	monitor *Monitor,
	profile garden.Profile,
	cfg Config,
	logger *logrus.Logger,
) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	if monitor == nil {
		monitor = NewMonitor()
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4-turbo"
	}
	if cfg.ChatMaxTokens <= 0 {
		cfg.ChatMaxTokens = 1000
	}
	return &Pipeline{
		classifier: classifier,
		records:    store,
		convs:      convs,
		client:     client,
		monitor:    monitor,
		logger:     logger,
		garden:     profile,
		cfg:        cfg,
	}
}

// Monitor exposes the performance monitor for metrics endpoints.
func (p *Pipeline) Monitor() *Monitor {
	return p.monitor
}

// Conversations exposes the conversation store for session management
// endpoints.
func (p *Pipeline) Conversations() *conversation.Store {
	return p.convs
}

// Process answers a user utterance. The conversationID is optional; when
// present the generation-augmented path keeps multi-turn history.
func (p *Pipeline) Process(ctx context.Context, utterance, conversationID string) string {
	p.monitor.RecordQuery()
	start := time.Now()
	defer func() {
		p.monitor.RecordResponseTime(time.Since(start))
	}()

	response, err := p.route(ctx, utterance, conversationID)
	if err == nil && response != "" {
		return response
	}
	if err != nil {
		p.logger.WithError(err).WithField("utterance", utterance).Warn("Pipeline failed, using legacy handler")
	}
	p.monitor.RecordError()

	response, err = p.legacyResponse(ctx, utterance)
	if err != nil || response == "" {
		if err != nil {
			p.logger.WithError(err).Error("Legacy handler failed, returning static apology")
		}
		return apologyMessage
	}
	return response
}

// route runs the short-circuit check, the classifier and the dispatch.
// Any panic from a handler is converted to an error so the caller's
// fallback chain applies.
func (p *Pipeline) route(ctx context.Context, utterance, conversationID string) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in query handling: %v", r)
		}
	}()

	// Place queries bypass the classifier: matching against the dynamic
	// list of place names needs that list in its own prompt.
	if isPlaceQuery(utterance) {
		return p.handlePlaceQuery(ctx, utterance)
	}

	plantNames, nameErr := p.records.PlantNames(ctx)
	if nameErr != nil {
		p.logger.WithError(nameErr).Warn("Could not load plant names for classification")
		plantNames = nil
	}

	classStart := time.Now()
	classification := p.classifier.Classify(ctx, utterance, plantNames)
	p.monitor.RecordClassification(time.Since(classStart))

	if !classification.RequiresGeneration() {
		p.monitor.RecordDirect()
		switch classification.QueryType {
		case query.TypeList:
			return p.handleList(ctx)
		case query.TypeLocation:
			return p.handleLocation(ctx, classification.PlantReferences, utterance)
		case query.TypePhoto:
			return p.handlePhoto(ctx, classification.PlantReferences, utterance)
		default:
			return "", errUnroutable
		}
	}

	p.monitor.RecordAugmented()
	return p.handleAugmented(ctx, classification, utterance, conversationID)
}

func isPlaceQuery(utterance string) bool {
	for _, pattern := range placeQueryPatterns {
		if pattern.MatchString(utterance) {
			return true
		}
	}
	return false
}
