package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chazu/upfit/internal/logging"
	"github.com/chazu/upfit/internal/observability"
	"github.com/chazu/upfit/pkg/engine"
	"github.com/chazu/upfit/pkg/evaluate"
	"github.com/chazu/upfit/pkg/export"
	"github.com/chazu/upfit/pkg/model"
	"github.com/chazu/upfit/pkg/rules"
)

// scriptResponse is returned by POST /v1/scripts/evaluate.
type scriptResponse struct {
	Project *model.Project   `json:"project"`
	Summary evaluate.Summary `json:"summary"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Modules())
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Vehicles())
}

// handleEvaluate handles POST /v1/evaluate: a JSON or YAML project in, the
// evaluation summary out.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeProject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.evaluate(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Summary())
}

// handleExport handles POST /v1/exports/{format}: the payload bytes of one
// export of the posted project.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, &apiError{status: http.StatusNotFound, code: CodeUnknownFormat, message: err.Error()})
		return
	}
	p, err := s.decodeProject(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.evaluate(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := e.Render(f)
	if err != nil {
		logging.FromContext(r.Context()).Error(r.Context(), "render failed",
			logging.String("format", string(f)), logging.Err(err))
		writeError(w, err)
		return
	}
	s.metrics.ObserveExport(f)

	w.Header().Set("Content-Type", payload.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload.Content)
}

// handleScript handles POST /v1/scripts/evaluate: a layout script in, the
// project it describes and its evaluation summary out.
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// A fresh engine per request: engines discard superseded evaluations.
	p, evalErrs, err := engine.NewEngine(engine.WithTimeout(s.timeout)).Evaluate(string(body))
	if err != nil {
		logging.FromContext(r.Context()).Warn(r.Context(), "script evaluation failed", logging.Err(err))
		writeError(w, &apiError{status: http.StatusUnprocessableEntity, code: CodeScript, message: err.Error()})
		return
	}
	if len(evalErrs) > 0 {
		writeError(w, scriptErrors(evalErrs))
		return
	}
	if errs := model.ValidateProject(p); len(errs) > 0 {
		writeError(w, invalidProject(errs))
		return
	}

	e, err := s.evaluate(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scriptResponse{Project: p, Summary: e.Summary()})
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody+1))
	if err != nil {
		return nil, badRequest("read body: " + err.Error())
	}
	if int64(len(body)) > s.maxBody {
		return nil, &apiError{status: http.StatusRequestEntityTooLarge, code: CodeBadRequest,
			message: fmt.Sprintf("body exceeds %d bytes", s.maxBody)}
	}
	return body, nil
}

// decodeProject reads and validates a project document. YAML is accepted
// when the content type says so.
func (s *Server) decodeProject(r *http.Request) (*model.Project, error) {
	body, err := s.readBody(r)
	if err != nil {
		return nil, err
	}
	f := model.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		f = model.FormatYAML
	}
	p, err := model.DecodeProject(body, f)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	if errs := model.ValidateProject(p); len(errs) > 0 {
		return nil, invalidProject(errs)
	}
	return p, nil
}

// evaluate runs one evaluation inside a span and records its metrics.
func (s *Server) evaluate(ctx context.Context, p *model.Project) (*evaluate.Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "evaluate", trace.WithAttributes(
		attribute.String("project.id", p.ID),
		attribute.String("vehicle.id", p.Vehicle.BlueprintID),
		attribute.Int("placements", len(p.Placements)),
	))
	defer span.End()
	log := logging.FromContext(ctx)

	start := time.Now()
	e, err := evaluate.EvaluateProject(p, s.catalog, s.evalOpt...)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		outcome := observability.OutcomeError
		if toAPIError(err).status < http.StatusInternalServerError {
			outcome = observability.OutcomeRejected
		}
		s.metrics.ObserveEvaluation(outcome, elapsed, nil)
		log.Warn(ctx, "evaluation failed", logging.String("project_id", p.ID), logging.Err(err))
		return nil, err
	}

	s.metrics.ObserveEvaluation(observability.OutcomeOK, elapsed, e.Issues)
	span.SetAttributes(attribute.Int("issues", len(e.Issues)))
	log.Info(ctx, "project evaluated",
		logging.String("project_id", p.ID),
		logging.Int("issues", len(e.Issues)),
		logging.String("max_severity", maxSeverity(e.Issues)),
		logging.Duration("duration", elapsed))
	return e, nil
}

func maxSeverity(issues []rules.Issue) string {
	if sev := rules.MaxSeverity(issues); sev != "" {
		return string(sev)
	}
	return "none"
}
