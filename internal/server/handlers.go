package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nao1215/salesdash"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/nao1215/salesdash/internal/chart"
	"github.com/nao1215/salesdash/internal/logging"
)

type healthResponse struct {
	Status    string `json:"status"`
	DatasetID string `json:"dataset_id"`
	Rows      int    `json:"rows"`
}

type dashboardResponse struct {
	DatasetID string `json:"dataset_id"`
	salesdash.Dashboard
}

type uploadResponse struct {
	DatasetID string              `json:"dataset_id"`
	Name      string              `json:"name"`
	Rows      int                 `json:"rows"`
	Warnings  []salesdash.Warning `json:"warnings"`
}

// contentTypes maps export formats to their media types.
var contentTypes = map[salesdash.FileType]string{
	salesdash.FileTypeCSV:     "text/csv",
	salesdash.FileTypeTSV:     "text/tab-separated-values",
	salesdash.FileTypeLTSV:    "text/plain",
	salesdash.FileTypeXLSX:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	salesdash.FileTypeParquet: "application/vnd.apache.parquet",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	d := s.snapshot()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", DatasetID: d.id, Rows: d.table.Len()})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := salesdash.ParseSelection(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d := s.snapshot()
	dash := salesdash.BuildDashboard(r.Context(), d.table, sel, s.resolver, s.dashboardOpts...)
	if dash.Map != nil && len(dash.Map.Unresolved) > 0 {
		logging.Warn(r.Context(), "states left off the map", slog.Any("states", dash.Map.Unresolved))
	}
	writeJSON(w, http.StatusOK, dashboardResponse{DatasetID: d.id, Dashboard: dash})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	sel, err := salesdash.ParseSelection(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, salesdash.Options(s.snapshot().table, sel))
}

// handleUpload loads the multipart "file" field. A failed load answers 400
// and leaves the served table untouched.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}
	defer file.Close()

	table, err := s.loader.LoadReader(ctx, file, header.Filename)
	if s.metrics != nil {
		rows := 0
		if table != nil {
			rows = table.Len()
		}
		s.metrics.ObserveLoad(model.DetectFileType(header.Filename).String(), rows, err)
	}
	if err != nil {
		logging.Warn(ctx, "upload rejected", slog.String("file", header.Filename), slog.Any("err", err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := s.Replace(table)
	for _, warning := range table.Warnings() {
		logging.Warn(ctx, "schema warning", slog.String("dataset_id", id), slog.String("warning", warning.Message))
	}
	logging.Info(ctx, "dataset replaced",
		slog.String("dataset_id", id),
		slog.String("file", header.Filename),
		slog.Int("rows", table.Len()),
	)
	writeJSON(w, http.StatusOK, uploadResponse{
		DatasetID: id,
		Name:      table.Name(),
		Rows:      table.Len(),
		Warnings:  table.Warnings(),
	})
}

// handleExport writes the filtered table as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sel, err := salesdash.ParseSelection(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := salesdash.NewExportOptions()
	if name := query.Get("format"); name != "" {
		format := model.ParseFileType(name)
		if format == model.FileTypeUnsupported {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format %q", name))
			return
		}
		opts = opts.WithFormat(format)
	}
	compression, ok := model.ParseCompressionType(query.Get("compression"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown compression %q", query.Get("compression")))
		return
	}
	opts = opts.WithCompression(compression)

	view := salesdash.Apply(s.snapshot().table, sel)
	var buf bytes.Buffer
	if err := salesdash.Export(r.Context(), &buf, view, opts); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, salesdash.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	name := view.Name()
	if name == "" {
		name = "orders"
	}
	contentType := contentTypes[opts.Format]
	if opts.Compression != salesdash.CompressionNone {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+opts.FileExtension()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleChart renders one panel for the selection in the query.
// A panel with nothing to plot answers 204.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	panel, ok := salesdash.ParsePanel(chi.URLParam(r, "panel"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown panel")
		return
	}
	query := r.URL.Query()
	sel, err := salesdash.ParseSelection(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	width, _ := strconv.Atoi(query.Get("width"))
	height, _ := strconv.Atoi(query.Get("height"))

	dash := salesdash.BuildDashboard(r.Context(), s.snapshot().table, sel, s.resolver, s.dashboardOpts...)
	var buf bytes.Buffer
	err = chart.Render(&buf, panel, dash, chart.WithSize(width, height))
	switch {
	case errors.Is(err, chart.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, chart.ErrPanelUnavailable):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		logging.Error(r.Context(), "render chart failed", slog.String("panel", string(panel)), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "render chart failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
