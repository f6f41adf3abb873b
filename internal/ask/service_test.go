package ask

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/dialect"
	"github.com/askdb/askdb/internal/results"
	"github.com/askdb/askdb/internal/schema"
)

type stubIntrospector struct {
	description schema.Description
	err         error
}

func (s stubIntrospector) Describe(context.Context) (schema.Description, error) {
	return s.description, s.err
}

type stubCompleter struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	call := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if call < len(s.errs) {
		err = s.errs[call]
	}
	if err != nil {
		return "", err
	}
	if call < len(s.replies) {
		return s.replies[call], nil
	}
	return "", errors.New("unexpected completion call")
}

func (s *stubCompleter) Name() string { return "stub" }

type stubRunner struct {
	records []results.Record
	err     error
	queries []string
}

func (s *stubRunner) Execute(_ context.Context, query string) ([]results.Record, error) {
	s.queries = append(s.queries, query)
	return s.records, s.err
}

func usersSchema() schema.Description {
	return schema.Description{Tables: []schema.Table{
		{Name: "users", Columns: []string{"id (integer)", "name (text)"}},
	}}
}

func userRecord(id int64, name string) results.Record {
	var record results.Record
	record.Set("id", id)
	record.Set("name", name)
	return record
}

func pgDialect(t *testing.T) dialect.Dialect {
	t.Helper()
	d, err := dialect.ByName("postgresql")
	if err != nil {
		t.Fatalf("ByName(postgresql) error = %v", err)
	}
	return d
}

func newTestService(t *testing.T, d dialect.Dialect, completer *stubCompleter, runner *stubRunner) *Service {
	t.Helper()
	return NewService(d, stubIntrospector{description: usersSchema()}, completer, runner, nil, nil, 200)
}

func TestAskFullPipeline(t *testing.T) {
	completer := &stubCompleter{replies: []string{
		"```sql\nSELECT \"id\", \"name\" FROM \"users\"\n```",
		"There are two users, alice and bob.",
	}}
	runner := &stubRunner{records: []results.Record{userRecord(1, "alice"), userRecord(2, "bob")}}
	service := newTestService(t, pgDialect(t), completer, runner)

	result, err := service.Ask(context.Background(), "show me all users")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.SQLQuery != `SELECT "id", "name" FROM "users"` {
		t.Fatalf("SQLQuery = %q", result.SQLQuery)
	}
	if len(runner.queries) != 1 || runner.queries[0] != result.SQLQuery {
		t.Fatalf("executed queries = %v", runner.queries)
	}
	if result.Summary != "There are two users, alice and bob." {
		t.Fatalf("Summary = %q", result.Summary)
	}
	if len(result.Results) != 2 {
		t.Fatalf("len(Results) = %d", len(result.Results))
	}
	if keys := result.Results[0].Keys(); keys[0] != "id" || keys[1] != "name" {
		t.Fatalf("result keys = %v", keys)
	}
	if !strings.HasPrefix(result.CSVFilename, "result_") || !strings.HasSuffix(result.CSVFilename, ".csv") {
		t.Fatalf("CSVFilename = %q", result.CSVFilename)
	}
	decoded, err := base64.StdEncoding.DecodeString(result.CSVBase64)
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if string(decoded) != "id,name\n1,alice\n2,bob\n" {
		t.Fatalf("csv = %q", decoded)
	}

	prompt := completer.prompts[0]
	for _, fragment := range []string{"PostgreSQL", "Table: users", "id (integer)", "show me all users", "at most 200 rows"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("sql prompt missing %q:\n%s", fragment, prompt)
		}
	}
	if !strings.Contains(completer.prompts[1], "Results (2 rows)") {
		t.Fatalf("summary prompt missing row count:\n%s", completer.prompts[1])
	}
}

func TestAskRejectsMutationKeywordBeforeBackend(t *testing.T) {
	completer := &stubCompleter{}
	runner := &stubRunner{}
	service := newTestService(t, pgDialect(t), completer, runner)

	_, err := service.Ask(context.Background(), "please INSERT a new user")
	var askErr *Error
	if !errors.As(err, &askErr) || askErr.Kind != KindRejected {
		t.Fatalf("Ask() error = %v, want rejection", err)
	}
	if askErr.Rule != "mutation_keyword" {
		t.Fatalf("Rule = %q", askErr.Rule)
	}
	if len(completer.prompts) != 0 {
		t.Fatalf("backend was called %d times", len(completer.prompts))
	}
	if askErr.HTTPStatus() != 400 {
		t.Fatalf("HTTPStatus = %d", askErr.HTTPStatus())
	}
}

func TestAskRejectsDangerousGeneratedSQLBeforeValidation(t *testing.T) {
	completer := &stubCompleter{replies: []string{`SELECT 1; DROP TABLE users`}}
	runner := &stubRunner{}
	service := newTestService(t, pgDialect(t), completer, runner)

	_, err := service.Ask(context.Background(), "show me something")
	var askErr *Error
	if !errors.As(err, &askErr) || askErr.Rule != "dangerous_pattern" {
		t.Fatalf("Ask() error = %v, want dangerous_pattern rejection", err)
	}
	if len(runner.queries) != 0 {
		t.Fatalf("query was executed: %v", runner.queries)
	}
}

func TestAskRejectsNonSelectStatements(t *testing.T) {
	completer := &stubCompleter{replies: []string{`WITH ids AS (SELECT 1) SELECT * FROM ids; COMMIT`}}
	service := newTestService(t, pgDialect(t), completer, &stubRunner{})

	_, err := service.Ask(context.Background(), "show me something")
	var askErr *Error
	if !errors.As(err, &askErr) || askErr.Rule != "not_read_only" {
		t.Fatalf("Ask() error = %v, want not_read_only rejection", err)
	}
}

func TestAskAcceptsMySQLBacktickIdentifiers(t *testing.T) {
	d, err := dialect.ByName("mysql")
	if err != nil {
		t.Fatalf("ByName(mysql) error = %v", err)
	}
	completer := &stubCompleter{replies: []string{
		"SELECT `id` FROM `users`",
		"One user.",
	}}
	runner := &stubRunner{records: []results.Record{userRecord(1, "alice")}}
	service := newTestService(t, d, completer, runner)

	result, err := service.Ask(context.Background(), "show me all users")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.SQLQuery != "SELECT `id` FROM `users`" {
		t.Fatalf("SQLQuery = %q, backticks must survive", result.SQLQuery)
	}
}

func TestAskEmptyCompletionIsBackendError(t *testing.T) {
	completer := &stubCompleter{replies: []string{"   \n"}}
	service := newTestService(t, pgDialect(t), completer, &stubRunner{})

	_, err := service.Ask(context.Background(), "show me something")
	var askErr *Error
	if !errors.As(err, &askErr) || askErr.Kind != KindBackend {
		t.Fatalf("Ask() error = %v, want backend error", err)
	}
	if askErr.HTTPStatus() != 500 {
		t.Fatalf("HTTPStatus = %d", askErr.HTTPStatus())
	}
}

func TestAskExecutionErrorIsClientError(t *testing.T) {
	completer := &stubCompleter{replies: []string{`SELECT "id" FROM "users"`}}
	runner := &stubRunner{err: errors.New(`relation "users" does not exist`)}
	service := newTestService(t, pgDialect(t), completer, runner)

	_, err := service.Ask(context.Background(), "show me all people")
	var askErr *Error
	if !errors.As(err, &askErr) || askErr.Kind != KindExecution {
		t.Fatalf("Ask() error = %v, want execution error", err)
	}
	if askErr.HTTPStatus() != 400 {
		t.Fatalf("HTTPStatus = %d", askErr.HTTPStatus())
	}
	if !strings.Contains(askErr.Error(), "does not exist") {
		t.Fatalf("driver detail missing from %q", askErr.Error())
	}
}

func TestAskSummaryFailureFallsBack(t *testing.T) {
	completer := &stubCompleter{
		replies: []string{`SELECT "id" FROM "users"`, ""},
		errs:    []error{nil, errors.New("rate limited")},
	}
	runner := &stubRunner{records: []results.Record{userRecord(1, "alice"), userRecord(2, "bob")}}
	service := newTestService(t, pgDialect(t), completer, runner)

	result, err := service.Ask(context.Background(), "show me all users")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.Summary != "Returned 2 rows." {
		t.Fatalf("Summary = %q", result.Summary)
	}
}

func TestAskZeroRows(t *testing.T) {
	completer := &stubCompleter{replies: []string{`SELECT "id" FROM "users" WHERE false`}}
	runner := &stubRunner{}
	service := newTestService(t, pgDialect(t), completer, runner)

	result, err := service.Ask(context.Background(), "show me nothing")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.Summary != "Returned 0 rows." {
		t.Fatalf("Summary = %q", result.Summary)
	}
	if result.CSVBase64 != "" || result.CSVFilename != "" {
		t.Fatalf("csv fields = %q/%q, want empty", result.CSVBase64, result.CSVFilename)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("backend called %d times, want 1", len(completer.prompts))
	}
}

func TestSchemaErrorIsServerError(t *testing.T) {
	service := NewService(pgDialect(t), stubIntrospector{err: errors.New("connection refused")}, &stubCompleter{}, &stubRunner{}, nil, nil, 0)

	_, err := service.Schema(context.Background())
	var askErr *Error
	if !errors.As(err, &askErr) || askErr.Kind != KindSchema {
		t.Fatalf("Schema() error = %v, want schema error", err)
	}
	if askErr.HTTPStatus() != 500 {
		t.Fatalf("HTTPStatus = %d", askErr.HTTPStatus())
	}
}
