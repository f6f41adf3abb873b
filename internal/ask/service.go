// Package ask implements the question-to-answer pipeline: guard the
// question, introspect the schema, generate SQL, validate it, execute it,
// flatten the rows, and summarize.
package ask

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/artifact"
	"github.com/askdb/askdb/internal/dialect"
	"github.com/askdb/askdb/internal/guard"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/results"
	"github.com/askdb/askdb/internal/schema"
)

// Introspector abstracts schema.Introspector for tests.
type Introspector interface {
	Describe(ctx context.Context) (schema.Description, error)
}

// SQLRunner abstracts Executor for tests.
type SQLRunner interface {
	Execute(ctx context.Context, query string) ([]results.Record, error)
}

// Result is the assembled answer for one question. Field names match the
// HTTP response contract.
type Result struct {
	Summary     string           `json:"summary"`
	SQLQuery    string           `json:"sql_query"`
	Results     []results.Record `json:"results"`
	CSVBase64   string           `json:"csv_base64"`
	CSVFilename string           `json:"csv_filename"`
}

type Service struct {
	dialect      dialect.Dialect
	introspector Introspector
	completer    llm.Completer
	runner       SQLRunner
	sink         artifact.Sink
	logger       *slog.Logger
	rowLimit     int
}

// NewService wires the pipeline. sink may be nil, in which case no CSV is
// persisted.
func NewService(d dialect.Dialect, introspector Introspector, completer llm.Completer, runner SQLRunner, sink artifact.Sink, logger *slog.Logger, rowLimit int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		dialect:      d,
		introspector: introspector,
		completer:    completer,
		runner:       runner,
		sink:         sink,
		logger:       logger,
		rowLimit:     rowLimit,
	}
}

// Schema returns the rendered schema description for the fetch-schema
// endpoint.
func (s *Service) Schema(ctx context.Context) (string, error) {
	description, err := s.introspector.Describe(ctx)
	if err != nil {
		observability.ObserveSchemaFetch("error")
		return "", &Error{Kind: KindSchema, Err: fmt.Errorf("describe schema: %w", err)}
	}
	observability.ObserveSchemaFetch("ok")
	return description.Render(), nil
}

// Ask runs the full pipeline for one question.
func (s *Service) Ask(ctx context.Context, question string) (Result, error) {
	if err := guard.CheckQuestion(question); err != nil {
		return Result{}, s.reject("mutation_keyword", err)
	}

	description, err := s.introspector.Describe(ctx)
	if err != nil {
		observability.ObserveSchemaFetch("error")
		return Result{}, &Error{Kind: KindSchema, Err: fmt.Errorf("describe schema: %w", err)}
	}
	observability.ObserveSchemaFetch("ok")

	query, err := s.generateSQL(ctx, question, description.Render())
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	records, err := s.runner.Execute(ctx, query)
	if err != nil {
		return Result{}, &Error{Kind: KindExecution, Err: err}
	}
	observability.ObserveSQLExecution(len(records), time.Since(started))

	flat := results.FlattenAll(records)
	result := Result{
		Summary:  s.summarize(ctx, question, flat),
		SQLQuery: query,
		Results:  flat,
	}
	if len(flat) > 0 {
		s.attachCSV(ctx, &result, flat)
	}
	return result, nil
}

// generateSQL asks the bound backend for a query, then strips fences, scans
// for injection markers, and classifies every statement as SELECT-only.
func (s *Service) generateSQL(ctx context.Context, question, schemaText string) (string, error) {
	prompt := buildSQLPrompt(s.dialect, schemaText, question, s.rowLimit)
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		observability.ObserveTranslation(s.completer.Name(), "error")
		return "", &Error{Kind: KindBackend, Err: fmt.Errorf("complete sql prompt: %w", err)}
	}
	if strings.TrimSpace(raw) == "" {
		observability.ObserveTranslation(s.completer.Name(), "empty")
		return "", &Error{Kind: KindBackend, Err: errors.New("backend returned an empty completion")}
	}
	if err := guard.CheckGenerated(raw); err != nil {
		observability.ObserveTranslation(s.completer.Name(), "rejected")
		return "", s.reject("dangerous_pattern", err)
	}

	query := guard.StripFences(raw)
	if err := guard.EnsureReadOnlySelect(s.dialect.NormalizeForClassification(query)); err != nil {
		observability.ObserveTranslation(s.completer.Name(), "rejected")
		return "", s.reject("not_read_only", err)
	}
	observability.ObserveTranslation(s.completer.Name(), "ok")
	return query, nil
}

// summarize asks the backend for a short answer. Any failure degrades to the
// deterministic row-count fallback; this stage never fails the request.
func (s *Service) summarize(ctx context.Context, question string, records []results.Record) string {
	if len(records) == 0 {
		return "Returned 0 rows."
	}
	summary, err := s.completer.Complete(ctx, buildSummaryPrompt(question, records))
	if err != nil || strings.TrimSpace(summary) == "" {
		observability.IncrementSummaryFallback()
		if err != nil {
			s.logger.WarnContext(ctx, "summary fallback", slog.String("error", err.Error()))
		}
		return fmt.Sprintf("Returned %d rows.", len(records))
	}
	return strings.TrimSpace(summary)
}

// attachCSV renders the rows as CSV and, when a sink is configured, persists
// the file best-effort. A sink failure is logged and never fails the
// request.
func (s *Service) attachCSV(ctx context.Context, result *Result, records []results.Record) {
	encoded, err := results.EncodeCSV(records)
	if err != nil {
		s.logger.WarnContext(ctx, "csv rendering failed", slog.String("error", err.Error()))
		return
	}
	result.CSVFilename = results.CSVFilename()
	result.CSVBase64 = base64.StdEncoding.EncodeToString(encoded)
	if s.sink == nil {
		return
	}
	location, err := s.sink.Store(ctx, result.CSVFilename, encoded)
	if err != nil {
		s.logger.WarnContext(ctx, "artifact store failed",
			slog.String("sink", s.sink.Name()),
			slog.String("error", err.Error()))
		return
	}
	s.logger.DebugContext(ctx, "artifact stored",
		slog.String("sink", s.sink.Name()),
		slog.String("location", location))
}

func (s *Service) reject(rule string, err error) *Error {
	observability.ObserveGuardRejection(rule)
	return &Error{Kind: KindRejected, Rule: rule, Err: err}
}
