package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/lexkit/internal/grammar"
	"github.com/zjrosen/lexkit/internal/lex"
)

// Span attribute keys for scans.
const (
	AttrFile       = "scan.file"
	AttrGrammar    = "scan.grammar"
	AttrCaptures   = "scan.captures"
	AttrSteps      = "scan.steps"
	AttrFinalState = "scan.final_state"
	AttrCandidates = "ambiguity.candidates"
	AttrTied       = "ambiguity.tied"
	AttrStart      = "ambiguity.start"
)

// Span and event names.
const (
	SpanScan       = "lexkit.scan"
	EventAmbiguity = "ambiguity"
)

// StartScan opens a span for scanning one file.
func StartScan(ctx context.Context, tracer trace.Tracer, file, grammarName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanScan, trace.WithAttributes(
		attribute.String(AttrFile, file),
		attribute.String(AttrGrammar, grammarName),
	))
}

// EndScan records the outcome of a scan on span and ends it.
func EndScan(span trace.Span, rep grammar.Report, err error) {
	defer span.End()

	span.SetAttributes(
		attribute.Int(AttrCaptures, len(rep.Captures)),
		attribute.Int(AttrSteps, rep.Steps),
		attribute.String(AttrFinalState, rep.Final),
	)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	var amb *lex.AmbiguityError
	if errors.As(err, &amb) && len(amb.Tied) > 0 {
		tied := make([]string, len(amb.Tied))
		for i, r := range amb.Tied {
			tied[i] = string(r.Lexer)
		}
		span.AddEvent(EventAmbiguity, trace.WithAttributes(
			attribute.Int(AttrCandidates, len(amb.Candidates)),
			attribute.StringSlice(AttrTied, tied),
			attribute.Int(AttrStart, amb.Tied[0].Start),
		))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
