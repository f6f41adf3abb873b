package ask

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/dialect"
	"github.com/askdb/askdb/internal/results"
)

// buildSQLPrompt assembles the generation instruction: dialect name, schema
// verbatim, the fixed rule list, and the user's literal question. Pure string
// formatting; safety checks happen before and after, never here.
func buildSQLPrompt(d dialect.Dialect, schemaText, question string, rowLimit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert %s engineer. Write a single SQL query that answers the user's question.\n\n", d.Name)
	b.WriteString("Database schema:\n")
	b.WriteString(schemaText)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Generate only SELECT statements, never data modification\n")
	fmt.Fprintf(&b, "- %s\n", d.QuoteRule)
	b.WriteString("- Never include SQL comments or multiple statements\n")
	fmt.Fprintf(&b, "- %s\n", d.SyntaxNote)
	if rowLimit > 0 {
		fmt.Fprintf(&b, "- Limit the result to at most %d rows unless the question asks for an aggregate\n", rowLimit)
	}
	b.WriteString("- Return only the SQL query, with no explanation and no markdown formatting\n")
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// buildSummaryPrompt serializes the flattened result set and asks for a short
// plain-language answer.
func buildSummaryPrompt(question string, records []results.Record) string {
	var b strings.Builder
	b.WriteString("Summarize the following query results in one or two plain sentences. ")
	b.WriteString("Answer the question directly; do not mention SQL or the result format.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Results (%d rows):\n", len(records))
	for _, record := range records {
		pairs := make([]string, 0, record.Len())
		for _, key := range record.Keys() {
			value, _ := record.Get(key)
			pairs = append(pairs, fmt.Sprintf("%s=%v", key, value))
		}
		b.WriteString(strings.Join(pairs, ", "))
		b.WriteByte('\n')
	}
	return b.String()
}
