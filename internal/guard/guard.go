// Package guard holds the pre-execution safety checks between the model and
// the database: a keyword scan on the user's raw question, a pattern scan on
// generated SQL, code-fence stripping, and statement-type classification.
//
// The question scan is a deliberately coarse substring heuristic with known
// false positives (a question about a "dropdown" is rejected). The pattern
// scan catches common injection idioms, not all of them. EnsureReadOnlySelect
// is the check with teeth: real parsing, pure-SELECT statements only.
package guard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	// ErrMutationKeyword rejects a question before any model call is made.
	ErrMutationKeyword = errors.New("only read-only queries are allowed; mutating queries are not supported")

	// ErrDangerousPattern rejects generated SQL that matches an injection idiom.
	ErrDangerousPattern = errors.New("potentially dangerous SQL detected")

	// ErrNotReadOnly rejects anything that does not classify as a pure SELECT.
	ErrNotReadOnly = errors.New("generated SQL is not a read-only SELECT statement")
)

var forbiddenKeywords = []string{"add", "insert", "update", "delete", "drop", "alter", "truncate"}

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`;\s*/\*`),
	regexp.MustCompile(`(?i)EXEC\s+`),
	regexp.MustCompile(`(?i)DROP\s+TABLE`),
}

// CheckQuestion scans the user's raw text for mutation keywords. Substring
// match, lower-cased, no tokenization.
func CheckQuestion(question string) error {
	lowered := strings.ToLower(question)
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(lowered, keyword) {
			return fmt.Errorf("%w (matched %q)", ErrMutationKeyword, keyword)
		}
	}
	return nil
}

// CheckGenerated scans model output for injection markers: a statement
// terminator followed by a comment opener, an EXEC, or a DROP TABLE.
func CheckGenerated(sql string) error {
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(sql) {
			return fmt.Errorf("%w (matched %s)", ErrDangerousPattern, pattern)
		}
	}
	return nil
}

var fenceOpen = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\r?\n?")

// StripFences removes a leading/trailing markdown code fence, including an
// optional language tag, the way models commonly wrap SQL replies.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = fenceOpen.ReplaceAllString(trimmed, "")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// EnsureReadOnlySelect parses the SQL and accepts it only when parsing yields
// at least one statement and every statement classifies as a SELECT. An
// unparseable or empty input is a rejection, never a pass.
func EnsureReadOnlySelect(sql string) error {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReadOnly, err)
	}
	if len(result.Stmts) == 0 {
		return fmt.Errorf("%w: no statements found", ErrNotReadOnly)
	}
	for _, raw := range result.Stmts {
		if raw.Stmt == nil || raw.Stmt.GetSelectStmt() == nil {
			return ErrNotReadOnly
		}
	}
	return nil
}
