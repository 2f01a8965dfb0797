package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// GeminiConfig configures the Gemini extraction gateway.
// With UseVertexAI set, Project and Location select the Vertex AI endpoint
// and APIKey is ignored.
type GeminiConfig struct {
	APIKey      string
	Model       string
	UseVertexAI bool
	Project     string
	Location    string
	// Timeout bounds a single extraction request at the transport.
	Timeout time.Duration
}

// contentGenerator is the subset of *genai.Models used by the extractor.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor is the Extractor backed by the Gemini API.
type GeminiExtractor struct {
	models contentGenerator
	model  string
}

// NewGeminiExtractor creates a Gemini client from cfg.
func NewGeminiExtractor(ctx context.Context, cfg GeminiConfig) (*GeminiExtractor, error) {
	cc := &genai.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.UseVertexAI {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	} else {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}

	return newGeminiExtractor(client.Models, cfg.Model), nil
}

func newGeminiExtractor(models contentGenerator, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{models: models, model: model}
}

// Model returns the model name requests are sent to.
func (g *GeminiExtractor) Model() string {
	return g.model
}

// Extract sends every document inline, followed by the instruction prompt,
// and decodes the schema-constrained JSON answer.
func (g *GeminiExtractor) Extract(ctx context.Context, docs []domain.Document) (*RawAnalysis, error) {
	log := logger.FromContext(ctx)

	parts := make([]*genai.Part, 0, len(docs)+1)
	for _, doc := range docs {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: doc.MIMEType,
				Data:     doc.Data,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: buildAnalysisPrompt(len(docs))})

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		log.Error().Err(err).Str("model", g.model).Msg("Gemini request failed")
		return nil, classifyGatewayError(err)
	}

	rawText := resp.Text()
	log.Debug().
		Str("model", g.model).
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(rawText)).
		Msg("Gemini response received")

	out, err := decodeModelOutput(rawText)
	if err != nil {
		log.Warn().Err(err).Str("response", describeResponse(rawText)).Msg("Unusable Gemini response")
		return nil, err
	}
	return out, nil
}

// classifyGatewayError maps transport and API errors onto analysis kinds.
func classifyGatewayError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return gatewayError(err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return transientError(err)
		}
		return gatewayError(err)
	}

	if strings.Contains(err.Error(), "429") {
		return transientError(err)
	}
	return gatewayError(err)
}
