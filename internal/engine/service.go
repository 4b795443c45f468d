package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"signet/internal/attestation"
	"signet/internal/audit"
	"signet/internal/compiler"
	"signet/internal/entity"
	"signet/internal/evaluation"
	"signet/internal/engine/metrics"
	"signet/internal/storage"
	pstrings "signet/pkg/platform/strings"
)

// Service is the core exposed to the host: it evaluates one request against a
// client's policies and entities and, on permit, issues a signed attestation.
//
// Every step operates on immutable inputs; concurrent evaluations share
// nothing but the compiled bundle cache.
type Service struct {
	store    storage.DataStore
	compiler *compiler.Compiler
	runtime  *evaluation.Runtime
	decoder  evaluation.IntentDecoder
	builder  *attestation.Builder
	signer   attestation.Signer

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func New(store storage.DataStore, comp *compiler.Compiler, runtime *evaluation.Runtime, decoder evaluation.IntentDecoder, signer attestation.Signer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		compiler: comp,
		runtime:  runtime,
		decoder:  decoder,
		builder:  attestation.NewBuilder(),
		signer:   signer,
		tracer:   otel.Tracer("signet/engine"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Evaluate decides one request for the given client. Errors propagate as
// typed domain errors; an internal failure is never mapped to a FORBID.
func (s *Service) Evaluate(ctx context.Context, clientID string, req evaluation.EvaluationRequest) (*evaluation.EvaluationResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "engine.Evaluate", trace.WithAttributes(
		attribute.String("client_id", clientID),
		attribute.String("action", string(req.Request.Action)),
	))
	defer span.End()

	dataSet, err := s.store.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, s.fail(ctx, span, "load data set", clientID, err)
	}

	prepared, err := entity.Prepare(dataSet.Entities, dataSet.Version)
	if err != nil {
		return nil, s.fail(ctx, span, "prepare entities", clientID, err)
	}

	bundle, err := s.compiler.Compile(ctx, dataSet.Policies)
	if err != nil {
		return nil, s.fail(ctx, span, "compile policies", clientID, err)
	}

	input, err := evaluation.BuildInput(req, s.decoder)
	if err != nil {
		return nil, s.fail(ctx, span, "build input", clientID, err)
	}

	results, err := s.runtime.Evaluate(ctx, bundle, prepared, input)
	if err != nil {
		return nil, s.fail(ctx, span, "evaluate bundle", clientID, err)
	}

	decision := evaluation.Decide(results)
	response := &evaluation.EvaluationResponse{
		Decision:  decision,
		Principal: &req.Principal,
		Request:   &req.Request,
		Metadata:  req.Metadata,
	}

	if decision.Decision == evaluation.OutcomePermit && s.signer != nil {
		payload, err := s.builder.BuildPermitPayload(clientID, response)
		if err != nil {
			return nil, s.fail(ctx, span, "build attestation payload", clientID, err)
		}
		token, err := s.signer.Sign(ctx, payload)
		if err != nil {
			return nil, s.fail(ctx, span, "sign attestation", clientID, err)
		}
		response.AccessToken = token
	}

	s.metrics.IncrementDecision(string(decision.Decision), string(req.Request.Action))
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	span.SetAttributes(attribute.String("decision", string(decision.Decision)))

	s.emitAudit(ctx, clientID, req, decision, results)
	return response, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, stage, clientID string, err error) error {
	span.RecordError(err)
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "evaluation failed",
			"stage", stage,
			"client_id", clientID,
			"error", err,
		)
	}
	return err
}

func (s *Service) emitAudit(ctx context.Context, clientID string, req evaluation.EvaluationRequest, decision evaluation.Decision, results []evaluation.Result) {
	if s.audit == nil {
		return
	}
	var policyIDs []string
	for _, result := range results {
		for _, reason := range result.Reasons {
			policyIDs = append(policyIDs, reason.PolicyID)
		}
	}
	event := audit.Event{
		ClientID:    clientID,
		PrincipalID: req.Principal.UserID,
		Action:      string(req.Request.Action),
		Decision:    string(decision.Decision),
		PolicyIDs:   pstrings.DedupeAndTrim(policyIDs),
	}
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		// Audit is best effort; a sink outage must not flip a decision.
		s.logger.WarnContext(ctx, "audit emit failed",
			"client_id", clientID,
			"error", err,
		)
	}
}
