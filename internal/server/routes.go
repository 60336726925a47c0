package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/history"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/overlay"
	"github.com/ziadkadry99/ripview/internal/raster"
	"github.com/ziadkadry99/ripview/internal/search"
	"github.com/ziadkadry99/ripview/internal/session"
	"github.com/ziadkadry99/ripview/internal/viewer"
)

// stateResponse is the full viewer state returned by most endpoints.
type stateResponse struct {
	session.Snapshot
	Search    search.Status    `json:"search"`
	Benchmark benchmark.Status `json:"benchmark"`
}

type toggleResponse struct {
	Layer   layers.Layer `json:"layer"`
	Visible bool         `json:"visible"`
	Error   string       `json:"error,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	// Immediate skips the debounce window.
	Immediate bool `json:"immediate"`
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/documents", s.handleUpload)
		r.Get("/pdf-file", s.handlePDFFile)

		r.Post("/pages/next", s.handleNext)
		r.Post("/pages/prev", s.handlePrev)
		r.Post("/pages/{n}", s.handleGoto)

		r.Get("/layers/{layer}", s.handleLayer)
		r.Post("/layers/{layer}/toggle", s.handleToggle)

		r.Get("/overlay", s.handleOverlay)
		r.Get("/overlay.svg", s.handleOverlaySVG)
		r.Get("/page.png", s.handlePagePNG)

		r.Get("/search", s.handleSearchStatus)
		r.Post("/search", s.handleSearch)

		r.Get("/benchmark", s.handleBenchmarkStatus)
		r.Post("/benchmark", s.handleBenchmark)
		r.Get("/benchmark/libraries", s.handleLibraries)

		r.Get("/summary", s.handleSummary)

		if s.cfg.History != nil {
			history.RegisterRoutes(r, s.cfg.History)
		}
	})
}

func (s *Server) state() stateResponse {
	return stateResponse{
		Snapshot:  s.app.Session.Snapshot(),
		Search:    s.app.Search.Status(),
		Benchmark: s.app.Bench.Status(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if err := s.app.Open(r.Context(), header.Filename, file); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePDFFile(w http.ResponseWriter, r *http.Request) {
	if s.app.Session.Document() == nil {
		s.writeError(w, session.ErrNoDocument)
		return
	}
	rc, err := s.app.Service.PDFFile(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("server: streaming pdf: %v", err)
	}
}

func (s *Server) handleGoto(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	s.navigate(w, s.app.Goto(r.Context(), n))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, s.app.Next(r.Context()))
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, s.app.Prev(r.Context()))
}

func (s *Server) navigate(w http.ResponseWriter, err error) {
	if err != nil && !viewer.Silent(err) {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	l, err := layers.Parse(chi.URLParam(r, "layer"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	snap := s.app.Session.Snapshot()
	entry, ok := snap.Entries[l]
	if !ok {
		entry = layers.Entry{Layer: l, Records: []layers.Record{}}
	}
	writeJSON(w, http.StatusOK, struct {
		layers.Entry
		Status session.LayerStatus `json:"status"`
	}{entry, snap.Status(l)})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	l, err := layers.Parse(chi.URLParam(r, "layer"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	visible, err := s.app.Session.ToggleLayer(r.Context(), l)
	resp := toggleResponse{Layer: l, Visible: visible}
	if err != nil {
		// The toggle itself succeeded; the failure is recorded on the layer.
		resp.Error = extract.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

var errBadWidth = errors.New("width must be a positive integer")

// widthParam returns the requested raster width, 0 when absent.
func widthParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("width")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", errBadWidth, v)
	}
	if n > raster.MaxDimension {
		return 0, fmt.Errorf("%w: width %d exceeds %d px", raster.ErrTooLarge, n, raster.MaxDimension)
	}
	return n, nil
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	width, err := widthParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ov, err := s.app.Overlay(width)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleOverlaySVG(w http.ResponseWriter, r *http.Request) {
	width, err := widthParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ov, err := s.app.Overlay(width)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := overlay.WriteSVG(w, ov); err != nil {
		log.Printf("server: writing svg: %v", err)
	}
}

func (s *Server) handlePagePNG(w http.ResponseWriter, r *http.Request) {
	width, err := widthParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := s.app.RenderPNG(r.Context(), w, width); err != nil {
		if viewer.Silent(err) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Del("Content-Type")
		s.writeError(w, err)
	}
}

func (s *Server) handleSearchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Search.Status())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Immediate {
		s.app.Search.Input(req.Query)
		writeJSON(w, http.StatusAccepted, s.app.Search.Status())
		return
	}
	if err := s.app.Search.Submit(r.Context(), req.Query); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Search.Status())
}

func (s *Server) handleBenchmarkStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Bench.Status())
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Session.Snapshot()
	if !snap.Ready() {
		s.writeError(w, viewer.ErrNotReady)
		return
	}
	if _, err := s.app.Bench.Run(r.Context(), snap.Page.Number); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Bench.Status())
}

func (s *Server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := s.app.Bench.Libraries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"available": libs})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.app.Report.Render(w, s.app.Summary()); err != nil {
		log.Printf("server: rendering summary: %v", err)
	}
}

// writeError maps viewer errors onto HTTP statuses. The body mirrors the
// extraction service's {"detail": ...} shape.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrPageOutOfRange), errors.Is(err, raster.ErrTooLarge), errors.Is(err, errBadWidth):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoDocument), errors.Is(err, viewer.ErrNotReady), errors.Is(err, benchmark.ErrRunning),
		errors.Is(err, benchmark.ErrInactivePage):
		status = http.StatusConflict
	case extract.IsTransport(err):
		status = http.StatusBadGateway
	case extract.IsRejected(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Printf("server: %v", err)
	}
	msg := extract.UserMessage(err)
	writeDetail(w, status, msg)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
