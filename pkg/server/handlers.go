package server

import (
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/supportree/pkg/buildinfo"
	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/pipeline"
	"github.com/matzehuels/supportree/pkg/problem"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

type listResponse struct {
	Runs []problem.Summary `json:"runs"`
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	format := problem.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		switch {
		case err != nil:
			s.sendError(w, errors.New(errors.ErrCodeInvalidFormat, "bad content type %q", ct))
			return
		case mt == "application/toml":
			format = problem.FormatTOML
		case mt != "application/json":
			s.sendError(w, errors.New(errors.ErrCodeUnsupported, "unsupported content type %q", mt))
			return
		}
	}

	p, err := problem.Read(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes), format)
	if err != nil {
		s.sendError(w, err)
		return
	}
	p.Search = withDefaults(p.Search, s.opts.Defaults)

	res, err := s.runner.Execute(r.Context(), p, pipeline.Options{Workers: s.opts.Workers})
	if err != nil {
		s.sendError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), res); err != nil {
		s.sendError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/runs/"+res.ID)
	s.sendJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.sendError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.sendError(w, err)
		return
	}
	if runs == nil {
		runs = []problem.Summary{}
	}
	s.sendJSON(w, http.StatusOK, listResponse{Runs: runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.sendError(w, errors.New(errors.ErrCodeInvalidInput, "tree index must be an integer"))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.sendError(w, err)
		return
	}

	res, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendError(w, err)
		return
	}
	data, err := s.runner.RenderTree(r.Context(), res, index, format)
	if err != nil {
		s.sendError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// withDefaults fills the problem's unset search preferences from d. The
// default escalation choice only applies when the problem gives no bounds.
func withDefaults(s *problem.Search, d problem.Search) *problem.Search {
	if s == nil {
		out := d
		return &out
	}
	out := *s
	if out.MaxCandidates == 0 {
		out.MaxCandidates = d.MaxCandidates
	}
	if s.MaxDepth != 0 || s.L1Quota != 0 {
		return &out
	}
	out.MaxDepth = d.MaxDepth
	out.L1Quota = d.L1Quota
	if out.Escalate == nil {
		out.Escalate = d.Escalate
	}
	return &out
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.sendJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidGraph, errors.ErrCodeInvalidJunction, errors.ErrCodeInvalidBounds:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeRunNotFound, errors.ErrCodeTreeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
