package pipeline

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// MaxInsights caps the number of insight strings kept from a response.
const MaxInsights = 5

// buildAnalysisPrompt returns the fixed instruction sent after the documents.
// Documents are referred to as "Document 1", "Document 2", ... in upload order.
func buildAnalysisPrompt(docCount int) string {
	var b strings.Builder
	b.WriteString("You are an expert financial analyst. Your task is to meticulously analyze the provided bank statement image(s) or PDF(s).\n\n")
	fmt.Fprintf(&b, "You have been given %d document(s). They are numbered in the order provided: the first is 'Document 1', the second 'Document 2', and so on.\n\n", docCount)
	b.WriteString("Your response must have two parts: 'transactions' and 'insights'.\n\n")

	b.WriteString("1. Transactions: Extract all transactions from all documents.\n")
	b.WriteString("   - For each transaction, identify the date (YYYY-MM-DD), description, and amount.\n")
	b.WriteString("   - Represent expenses as NEGATIVE numbers and income as POSITIVE numbers.\n")
	b.WriteString("   - Assign a relevant category (e.g., 'Groceries', 'Salary', 'Utilities', 'Entertainment', 'Transfer').\n")
	b.WriteString("   - Identify the source for each transaction using 'Document 1', 'Document 2', etc., in the 'statementSource' field.\n\n")

	fmt.Fprintf(&b, "2. Insights: Based on the transaction descriptions and amounts, provide a few (maximum %d) intelligent insights.\n", MaxInsights)
	b.WriteString("   - Look for recurring subscriptions, significant one-time purchases, spending habit patterns, or potential savings opportunities.\n")
	b.WriteString("   - Each insight should be a short, clear, and helpful string.\n")
	b.WriteString("   - For example: \"You have a recurring subscription to 'Example.com' for $9.99.\" or \"Your spending on 'Food & Dining' has increased this month.\"\n\n")

	b.WriteString("Return a single, strict JSON object according to the provided schema. Do not include any other text or explanations in your response.\n")
	return b.String()
}

func transactionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":            {Type: genai.TypeString, Description: "Transaction date (e.g., YYYY-MM-DD)"},
			"description":     {Type: genai.TypeString, Description: "A brief description of the transaction"},
			"amount":          {Type: genai.TypeNumber, Description: "Transaction amount. Use negative for debits/expenses and positive for credits/income."},
			"category":        {Type: genai.TypeString, Description: "A suitable category like 'Groceries', 'Salary', 'Utilities'"},
			"notes":           {Type: genai.TypeString, Description: "Any additional notes, can be empty."},
			"statementSource": {Type: genai.TypeString, Description: "The source document of the transaction, e.g., 'Document 1', 'Document 2'."},
		},
		Required: []string{"date", "description", "amount", "category", "statementSource"},
	}
}

// responseSchema constrains the model output server-side.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"transactions": {
				Type:  genai.TypeArray,
				Items: transactionSchema(),
			},
			"insights": {
				Type:        genai.TypeArray,
				Description: "A list of intelligent insights derived from the transactions.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"transactions"},
	}
}
