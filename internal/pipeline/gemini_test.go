package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text string
	err  error

	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{text: `{"transactions":[{"date":"2024-01-02","description":"Shop","amount":-5,"category":"Groceries","statementSource":"Document 2"}],"insights":["One"]}`}
	ex := newGeminiExtractor(gen, "")
	docs := []domain.Document{
		{Name: "a.pdf", MIMEType: "application/pdf", Data: []byte("%PDF-a")},
		{Name: "b.png", MIMEType: "image/png", Data: []byte("png")},
	}

	out, err := ex.Extract(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, DefaultModelName, gen.model)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "application/pdf", parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("png"), parts[1].InlineData.Data)
	assert.Contains(t, parts[2].Text, "2 document(s)")
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.NotNil(t, gen.config.ResponseSchema)

	require.Len(t, out.Transactions, 1)
	assert.Equal(t, "Document 2", out.Transactions[0].StatementSource)
	assert.Equal(t, []string{"One"}, out.Insights)
}

func TestGeminiExtractor_MalformedResponse(t *testing.T) {
	ex := newGeminiExtractor(&fakeGenerator{text: `{"insights":[]}`}, "gemini-test")

	_, err := ex.Extract(context.Background(), []domain.Document{{Name: "a.pdf", MIMEType: "application/pdf", Data: []byte("x")}})

	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestGeminiExtractor_RateLimited(t *testing.T) {
	ex := newGeminiExtractor(&fakeGenerator{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}}, "gemini-test")

	_, err := ex.Extract(context.Background(), []domain.Document{{Name: "a.pdf", MIMEType: "application/pdf", Data: []byte("x")}})

	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.Equal(t, MsgRateLimited, UserMessage(err))
}

func TestClassifyGatewayError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"api 429", genai.APIError{Code: 429}, KindTransient},
		{"api exhausted", fmt.Errorf("call: %w", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}), KindTransient},
		{"api 500", genai.APIError{Code: 500, Status: "INTERNAL"}, KindUnknown},
		{"string 429", errors.New("HTTP 429 Too Many Requests"), KindTransient},
		{"deadline", context.DeadlineExceeded, KindUnknown},
		{"other", errors.New("dial tcp: refused"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGatewayError(tt.err)
			assert.Equal(t, tt.want, KindOf(got))
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}
}

func TestNewGeminiExtractor_ModelName(t *testing.T) {
	assert.Equal(t, "custom", newGeminiExtractor(&fakeGenerator{}, "custom").Model())
	assert.Equal(t, DefaultModelName, newGeminiExtractor(&fakeGenerator{}, "").Model())
}
