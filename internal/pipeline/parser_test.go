package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeModelOutput(t *testing.T) {
	raw := `{
		"transactions": [
			{"date": "2024-01-02", "description": "Shop", "amount": -12.5, "category": "Groceries", "statementSource": "Document 1"},
			{"date": "2024-01-03", "description": "Pay", "amount": 1000, "category": "Salary", "notes": "monthly", "statementSource": "Document 1"}
		],
		"insights": ["Spending is steady."]
	}`

	out, err := decodeModelOutput(raw)

	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)
	assert.Equal(t, "-12.5", out.Transactions[0].Amount.String())
	assert.Equal(t, "monthly", out.Transactions[1].Notes)
	assert.Equal(t, []string{"Spending is steady."}, out.Insights)
}

func TestDecodeModelOutput_MissingInsights(t *testing.T) {
	out, err := decodeModelOutput(`{"transactions": []}`)

	require.NoError(t, err)
	assert.NotNil(t, out.Transactions)
	assert.Empty(t, out.Transactions)
	assert.NotNil(t, out.Insights)
	assert.Empty(t, out.Insights)
}

func TestDecodeModelOutput_BadInsightsDegrade(t *testing.T) {
	out, err := decodeModelOutput(`{"transactions": [], "insights": "not a list"}`)
	require.NoError(t, err)
	assert.Empty(t, out.Insights)

	out, err = decodeModelOutput(`{"transactions": [], "insights": ["a", 3, " ", "b", "c", "d", "e", "f"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out.Insights)
}

func TestDecodeModelOutput_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":                "",
		"not json":             "I could not read the statement.",
		"missing transactions": `{"insights": ["x"]}`,
		"transactions object":  `{"transactions": {"date": "2024-01-01"}}`,
		"transactions null":    `{"transactions": null}`,
		"bad element":          `{"transactions": [{"amount": "lots"}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeModelOutput(raw)
			require.Error(t, err)
			assert.Equal(t, KindMalformedResponse, KindOf(err))
			assert.Equal(t, MsgAnalyzeFail, UserMessage(err))
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding text", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}

func TestDescribeResponse(t *testing.T) {
	assert.Equal(t, "short", describeResponse("short"))

	long := strings.Repeat("x", 300)
	got := describeResponse(long)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("x", 200)+"..."))
	assert.Contains(t, got, "(300 bytes)")
}
