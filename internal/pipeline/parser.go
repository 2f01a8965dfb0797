package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// decodeModelOutput validates and decodes the extractor's JSON text.
// A missing or non-list "transactions" member rejects the whole response;
// a missing or malformed "insights" member degrades to an empty list.
func decodeModelOutput(raw string) (*RawAnalysis, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, malformedError("empty response from model", nil)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &top); err != nil {
		return nil, malformedError("response is not a JSON object", err)
	}

	txRaw, ok := top["transactions"]
	if !ok || !isJSONArray(txRaw) {
		return nil, malformedError("'transactions' array not found", nil)
	}

	var txs []RawTransaction
	if err := json.Unmarshal(txRaw, &txs); err != nil {
		return nil, malformedError("decoding transactions", err)
	}
	if txs == nil {
		txs = []RawTransaction{}
	}

	return &RawAnalysis{
		Transactions: txs,
		Insights:     decodeInsights(top["insights"]),
	}, nil
}

func decodeInsights(raw json.RawMessage) []string {
	insights := []string{}
	if !isJSONArray(raw) {
		return insights
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return insights
	}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			insights = append(insights, s)
		}
		if len(insights) == MaxInsights {
			break
		}
	}
	return insights
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object, in case the model ignored the response MIME type.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func describeResponse(raw string) string {
	const maxLen = 200
	if len(raw) > maxLen {
		return fmt.Sprintf("%s... (%d bytes)", raw[:maxLen], len(raw))
	}
	return raw
}
