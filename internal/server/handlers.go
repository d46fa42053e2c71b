package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pyview/hiergraph/pkg/buildinfo"
	"github.com/pyview/hiergraph/pkg/entity"
	hgerrors "github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/graph"
	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/search"
	"github.com/pyview/hiergraph/pkg/session"
)

// maxBodyBytes bounds request bodies; the only body is a view request.
const maxBodyBytes = 4 << 10

// =============================================================================
// Responses
// =============================================================================

// GraphResponse is returned by every endpoint that changes or reads the view.
type GraphResponse struct {
	Session  session.State  `json:"session"`
	Elements graph.Elements `json:"elements"`

	// Expanded is set by toggle (whether the node is now expanded) and
	// expand-all (how many nodes are expanded).
	Expanded any `json:"expanded,omitempty"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Loaded   bool   `json:"loaded"`
	Project  string `json:"project,omitempty"`
	Entities int    `json:"entities,omitempty"`
	Sessions int    `json:"sessions"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := hgerrors.HTTPStatus(err)
	code := string(hgerrors.GetCode(err))
	if errors.Is(err, context.Canceled) {
		status, code = hgerrors.StatusClientClosedRequest, string(hgerrors.ErrCodeAborted)
	}
	if code == "" {
		code = string(hgerrors.ErrCodeInternal)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = hgerrors.UserMessage(err)
	writeJSON(w, status, resp)
}

// =============================================================================
// Sessions
// =============================================================================

type ctxKey int

const sessionKey ctxKey = 0

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

// withSession resolves the caller's session, creating one (and restoring
// persisted state for a known id) when needed.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := s.analysis()
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		id := r.Header.Get(SessionHeader)
		if id == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				id = c.Value
			}
		}

		sess, err := s.cfg.Sessions.Get(id)
		if err != nil {
			sess = s.openSession(id, t)
		}

		w.Header().Set(SessionHeader, sess.ID)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func (s *Server) openSession(id string, t *pipeline.Transformed) *session.Session {
	level := s.cfg.Options.Level
	if s.cfg.States != nil && id != "" {
		if st, err := s.cfg.States.Get(id); err == nil {
			sess := s.cfg.Sessions.CreateWithID(id, t.Scope(), t.Hash, level)
			if err := sess.Restore(st); err != nil {
				s.logger.Debug("discarding session state", "id", id, "err", err)
			}
			return sess
		}
	}
	return s.cfg.Sessions.Create(t.Scope(), t.Hash, level)
}

func (s *Server) persist(sess *session.Session) {
	if s.cfg.States == nil {
		return
	}
	if err := s.cfg.States.Save(s.cfg.Sessions, sess); err != nil {
		s.logger.Warn("save session state", "id", sess.ID, "err", err)
	}
}

func (s *Server) respondGraph(w http.ResponseWriter, r *http.Request, sess *session.Session, expanded any) {
	el, err := sess.Elements(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Session: sess.State(), Elements: el, Expanded: expanded})
}

func nodeID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		return "", hgerrors.Wrap(hgerrors.ErrCodeInvalidInput, err, "invalid node id")
	}
	if err := hgerrors.ValidateNodeID(id); err != nil {
		return "", err
	}
	return id, nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  buildinfo.Version,
		Sessions: s.cfg.Sessions.Len(),
	}
	if t, err := s.analysis(); err == nil {
		resp.Loaded = true
		resp.Project = t.ProjectName
		resp.Entities = t.Graph.EntityCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGraph returns the current view. The optional level and expand
// query parameters replace the session's view state first.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	q := r.URL.Query()

	if q.Has("level") || q.Has("expand") {
		st := sess.State()
		if q.Has("level") {
			level, err := strconv.Atoi(q.Get("level"))
			if err != nil {
				s.writeError(w, r, hgerrors.New(hgerrors.ErrCodeInvalidViewLevel, "level %q is not a number", q.Get("level")))
				return
			}
			if err := hgerrors.ValidateViewLevel(level); err != nil {
				s.writeError(w, r, err)
				return
			}
			if level != st.Level {
				st.Expanded = nil
			}
			st.Level = level
		}
		if q.Has("expand") {
			st.Expanded = splitList(q.Get("expand"))
		}
		if err := sess.Restore(st); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.persist(sess)
	}
	s.respondGraph(w, r, sess, nil)
}

// ViewRequest is the body of POST /api/view.
type ViewRequest struct {
	Level *int `json:"level"`
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, hgerrors.Wrap(hgerrors.ErrCodeInvalidInput, err, "invalid view request"))
		return
	}
	if req.Level == nil {
		s.writeError(w, r, hgerrors.New(hgerrors.ErrCodeInvalidInput, "level is required"))
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.SetViewLevel(*req.Level); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.persist(sess)
	s.respondGraph(w, r, sess, nil)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	expanded, err := sess.Toggle(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.persist(sess)
	s.respondGraph(w, r, sess, expanded)
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	n := sess.ExpandAll()
	s.persist(sess)
	s.respondGraph(w, r, sess, n)
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.CollapseAll()
	s.persist(sess)
	s.respondGraph(w, r, sess, 0)
}

func (s *Server) handleNodeInfo(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := sessionFrom(r.Context()).Info(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	focus, err := sessionFrom(r.Context()).Focus(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, focus)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := search.Options{CycleOnly: q.Get("cycles") == "true"}
	for _, name := range splitList(q.Get("kind")) {
		k, err := entity.ParseKind(strings.ToLower(name))
		if err != nil {
			s.writeError(w, r, hgerrors.Wrap(hgerrors.ErrCodeInvalidInput, err, "invalid kind %q", name))
			return
		}
		opts.Kinds = append(opts.Kinds, k)
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, hgerrors.New(hgerrors.ErrCodeInvalidInput, "limit %q is not a number", v))
			return
		}
		opts.Limit = limit
	}

	res, err := search.Run(sessionFrom(r.Context()).Scope(), q.Get("q"), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGraphArtifact renders the session's current view in the format
// named by the path extension.
func (s *Server) handleGraphArtifact(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	el, err := sess.Elements(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Formats:    []string{format},
		Title:      sess.Scope().Label(),
		EdgeLabels: r.URL.Query().Get("labels") == "true",
	}
	artifacts, err := s.cfg.Runner.Render(r.Context(), el, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
