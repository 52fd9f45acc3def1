package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
	"github.com/matzehuels/thoughtgraph/pkg/render"
	"github.com/matzehuels/thoughtgraph/pkg/viewer"
)

var validate = validator.New()

// =============================================================================
// Request Bodies
// =============================================================================

type loadRequest struct {
	Path string `json:"path" validate:"required,max=500"`
}

type selectRequest struct {
	ID *string `json:"id" validate:"omitempty,min=1,max=500"`
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "malformed request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return tgerrors.New(tgerrors.ErrCodeInvalidInput, "field %s failed %q", strings.ToLower(fe.Field()), fe.Tag())
		}
		return tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// =============================================================================
// Pages
// =============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		s.writeError(w, r, tgerrors.Wrap(tgerrors.ErrCodeInternal, err, "viewer page missing"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListFiles(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		Root  string `json:"root"`
		Files any    `json:"files"`
	}{Files: []any{}}
	if s.catalog != nil {
		resp.Root = s.catalog.Root()
		resp.Files = s.catalog.List()
	}
	writeJSON(w, s.logger, http.StatusOK, resp)
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create(r.Context())
	writeJSON(w, s.logger, http.StatusCreated, map[string]string{"id": sess.ID})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLoadDocument loads a multipart upload (field "file") or a catalog
// file named by a JSON body. A failed document load drops the session's
// graph and selection and records the error.
func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var res *pipeline.Result
	var err error
	if isMultipart(r) {
		res, err = s.loadUpload(w, r)
	} else {
		res, err = s.loadCatalogFile(r)
	}
	if err != nil {
		if isDocumentError(err) {
			sess.Fail(ctx, err)
		}
		s.writeError(w, r, err)
		return
	}

	sess.Load(ctx, res)
	writeJSON(w, s.logger, http.StatusOK, newGraphView(sess.Snapshot(), res.Graph))
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// isDocumentError reports whether err is about the document itself rather
// than a malformed request. Only those are shown in the viewer banner.
func isDocumentError(err error) bool {
	switch tgerrors.GetCode(err) {
	case tgerrors.ErrCodeFileNotFound, tgerrors.ErrCodeInvalidJSON, tgerrors.ErrCodeSchema, tgerrors.ErrCodeInvalidPath:
		return true
	}
	return false
}

func (s *Server) loadUpload(w http.ResponseWriter, r *http.Request) (*pipeline.Result, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tgerrors.New(tgerrors.ErrCodeInvalidInput, "upload exceeds %d bytes", s.cfg.MaxUploadBytes)
		}
		return nil, tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "malformed upload")
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "upload has no \"file\" field")
	}
	defer f.Close()

	if err := tgerrors.ValidateUploadName(header.Filename); err != nil {
		return nil, err
	}
	return s.runner.ExecuteReader(r.Context(), path.Base(header.Filename), f, s.cfg.Options)
}

func (s *Server) loadCatalogFile(r *http.Request) (*pipeline.Result, error) {
	var req loadRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if s.catalog == nil {
		return nil, tgerrors.New(tgerrors.ErrCodeUnsupported, "no data directory configured")
	}
	file, err := s.catalog.Resolve(req.Path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, tgerrors.NotFound(err, "cannot read %s", req.Path)
	}
	defer f.Close()
	// The catalog-relative path is the display name, so no server path leaks.
	return s.runner.ExecuteReader(r.Context(), req.Path, f, s.cfg.Options)
}

// =============================================================================
// Graph and Selection
// =============================================================================

func renderOptions(r *http.Request) pipeline.RenderOptions {
	q := r.URL.Query()
	detailed, _ := strconv.ParseBool(q.Get("detailed"))
	refresh, _ := strconv.ParseBool(q.Get("refresh"))
	return pipeline.RenderOptions{
		HideGroup: q.Get("hide_group"),
		Detailed:  detailed,
		Refresh:   refresh,
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	var view graphView
	if snap.HasGraph() {
		view = newGraphView(snap, pipeline.VisibleGraph(snap.Graph, renderOptions(r)))
	} else {
		view = newGraphView(snap, nil)
	}
	writeJSON(w, s.logger, http.StatusOK, view)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opts := renderOptions(r)
	opts.Format = chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(opts.Format); err != nil {
		s.writeError(w, r, err)
		return
	}

	snap := sess.Snapshot()
	if !snap.HasGraph() {
		s.writeError(w, r, tgerrors.New(tgerrors.ErrCodeNotFound, "no graph loaded"))
		return
	}
	data, hit, err := s.runner.RenderWithCacheInfo(r.Context(), snap.Result, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(opts.Format))
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	_, _ = w.Write(data)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, selection(sess.Snapshot()))
}

// handleSelect selects {"id": "a"} or deselects {"id": null} / {}.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.ID == nil {
		sess.Deselect(r.Context())
	} else if _, err := sess.Select(r.Context(), *req.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, selection(sess.Snapshot()))
}

func selection(snap viewer.Snapshot) selectionView {
	if snap.Selected == nil {
		return selectionView{}
	}
	n := newNodeView(snap.Graph, snap.Layout, snap.Selected)
	return selectionView{Selected: &n}
}
