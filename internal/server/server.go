package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"orderview/internal/loader"
	"orderview/internal/locale"
	"orderview/internal/metrics"
	"orderview/internal/query"
	"orderview/internal/store"
)

// multipartSlack covers multipart boundaries and part headers around an upload.
const multipartSlack = 64 << 10

// Server exposes a Store over HTTP for the browser front end.
type Server struct {
	log        zerolog.Logger
	store      *store.Store
	metrics    *metrics.Registry
	format     *locale.Formatter
	exportPath string
}

func New(log zerolog.Logger, st *store.Store, m *metrics.Registry, f *locale.Formatter, exportPath string) *Server {
	return &Server{log: log, store: st, metrics: m, format: f, exportPath: exportPath}
}

// Reload reads the export file and, only if that succeeds, replaces the dataset.
// A failed reload leaves the current dataset in place. It is called outside any
// HTTP handler (start-up, file watcher), so a panic is turned into an error.
func (s *Server) Reload() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("reload panicked: %v", r)
			s.log.Error().Err(err).Str("file", s.exportPath).Msg("export reload failed, keeping current data")
		}
	}()
	if s.exportPath == "" {
		return errors.New("no export file configured")
	}
	start := time.Now()
	ds, err := loader.ReadExport(s.exportPath)
	s.metrics.LoadLatencySec.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Loads.WithLabelValues("export", loader.KindOf(err).String()).Inc()
		s.log.Error().Err(err).Str("file", s.exportPath).Msg("export load failed, keeping current data")
		return err
	}
	s.accept(ds, "export")
	return nil
}

func (s *Server) accept(ds loader.Dataset, source string) string {
	for _, w := range ds.Warnings {
		s.log.Warn().Str("source", ds.Source).Int("row", w.Index).Err(w.Err).Msg("skipped order row")
	}
	gen := s.store.Load(ds)
	s.metrics.Loads.WithLabelValues(source, "ok").Inc()
	s.metrics.RowsSkipped.Add(float64(len(ds.Warnings)))
	s.metrics.RecordsLoaded.Set(float64(len(ds.Records)))
	s.log.Info().
		Str("source", ds.Source).
		Str("generation", gen).
		Int("records", len(ds.Records)).
		Int("skipped", len(ds.Warnings)).
		Msg("dataset loaded")
	return gen
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": s.store.Len()})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/options", s.handleOptions)
		r.Post("/filter", s.handleFilter)
		r.Post("/pages/next", s.handleNext)
		r.Post("/pages/prev", s.handlePrev)
		r.Post("/pages/{page}", s.handleGoTo)
		r.Post("/upload", s.handleUpload)
		r.Post("/reload", s.handleReload)
		r.Delete("/orders", s.handleClear)
	})
	return r
}

type pageResponse struct {
	Changed bool         `json:"changed"`
	View    viewResponse `json:"view"`
}

type loadResponse struct {
	Generation string       `json:"generation"`
	Records    int          `json:"records"`
	Skipped    int          `json:"skipped"`
	View       viewResponse `json:"view"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, present(s.store.View(), s.format))
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Options())
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var c query.Criteria
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid filter criteria: " + err.Error()})
		return
	}
	s.metrics.FilterApplied.Inc()
	writeJSON(w, http.StatusOK, present(s.store.Apply(c), s.format))
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "page must be a number"})
		return
	}
	changed, v := s.store.GoTo(page)
	s.writePage(w, changed, v)
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	changed, v := s.store.Next()
	s.writePage(w, changed, v)
}

func (s *Server) handlePrev(w http.ResponseWriter, _ *http.Request) {
	changed, v := s.store.Prev()
	s.writePage(w, changed, v)
}

func (s *Server) writePage(w http.ResponseWriter, changed bool, v store.View) {
	result := "changed"
	if !changed {
		result = "rejected"
	}
	s.metrics.PageNavigations.WithLabelValues(result).Inc()
	writeJSON(w, http.StatusOK, pageResponse{Changed: changed, View: present(v, s.format)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > loader.MaxUploadSize+multipartSlack {
		s.uploadFailed(w, loader.ValidateUpload("", "", r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, loader.MaxUploadSize+multipartSlack)

	u, err := uploadFrom(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	ds, err := loader.ReadUpload(u)
	if err != nil {
		s.uploadFailed(w, err)
		return
	}
	gen := s.accept(ds, "upload")
	writeJSON(w, http.StatusOK, loadResponse{
		Generation: gen,
		Records:    len(ds.Records),
		Skipped:    len(ds.Warnings),
		View:       present(s.store.View(), s.format),
	})
}

// uploadFrom accepts either a multipart form with a "file" part or the raw file
// as the request body (name taken from ?name=).
func uploadFrom(r *http.Request) (loader.Upload, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return loader.Upload{
			Name:        r.URL.Query().Get("name"),
			ContentType: r.Header.Get("Content-Type"),
			Size:        r.ContentLength,
			Body:        r.Body,
		}, nil
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return loader.Upload{}, errors.Wrap(err, "read multipart form")
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return loader.Upload{}, errors.New(`multipart form has no "file" part`)
		}
		if err != nil {
			return loader.Upload{}, errors.Wrap(err, "read multipart form")
		}
		if part.FormName() != "file" {
			continue
		}
		return loader.Upload{
			Name:        part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Body:        part,
		}, nil
	}
}

func (s *Server) uploadFailed(w http.ResponseWriter, err error) {
	kind := loader.KindOf(err)
	s.metrics.UploadsRejected.WithLabelValues(kind.String()).Inc()
	s.metrics.Loads.WithLabelValues("upload", kind.String()).Inc()
	s.log.Warn().Err(err).Str("kind", kind.String()).Msg("upload rejected, keeping current data")
	writeError(w, err)
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.Reload(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, present(s.store.View(), s.format))
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.store.Clear()
	s.metrics.RecordsLoaded.Set(0)
	s.log.Info().Msg("dataset cleared")
	writeJSON(w, http.StatusOK, present(s.store.View(), s.format))
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := loader.KindOf(err)
	switch kind {
	case loader.KindValidation, loader.KindParse:
		status = http.StatusBadRequest
	case loader.KindSchema:
		status = http.StatusUnprocessableEntity
	}
	body := errorBody{Error: loader.Message(err)}
	if kind != 0 {
		body.Kind = kind.String()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
