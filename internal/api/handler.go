// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/uzhanitsoft/qarzdorlik/internal/dashboard"
	"github.com/uzhanitsoft/qarzdorlik/internal/extractor"
	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

const (
	maxUploadMemory = 32 << 20
	passwordHeader  = "X-Admin-Password"
)

// Store is the part of the dashboard the handlers need.
type Store interface {
	Ingest(ctx context.Context, files []extractor.File) (*dashboard.IngestResult, error)
	Data() dashboard.DataView
	History(limit int) dashboard.HistoryView
	CompareWith(date string) (*dashboard.CompareView, error)
	Dates() []model.DatePoint
	Status() dashboard.StatusView
}

type Handler struct {
	store         Store
	adminPassword string
}

func NewHandler(s Store, adminPassword string) *Handler {
	return &Handler{store: s, adminPassword: adminPassword}
}

// UploadResponse is returned after a committed upload.
type UploadResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Agents       int       `json:"agents"`
	LastUpdated  time.Time `json:"lastUpdated"`
	HistoryCount int       `json:"historyCount"`
	Failed       []string  `json:"failed"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Status(), "GET", "/")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Data(), "GET", "/api/data")
}

// GetHistory returns the newest ?limit entries; a missing or non-numeric
// limit returns everything.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	respondJSON(w, http.StatusOK, h.store.History(limit), "GET", "/api/history")
}

func (h *Handler) GetCompare(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	view, err := h.store.CompareWith(date)
	if err != nil {
		if errors.Is(err, dashboard.ErrDateNotFound) {
			respondError(w, http.StatusNotFound, "Bu sana uchun ma'lumot topilmadi", "GET", "/api/compare/{date}")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error(), "GET", "/api/compare/{date}")
		return
	}
	respondJSON(w, http.StatusOK, view, "GET", "/api/compare/{date}")
}

func (h *Handler) GetDates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Dates(), "GET", "/api/dates")
}

func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/api/auth")
		return
	}
	if !h.authorized(req.Password) {
		respondError(w, http.StatusUnauthorized, "Noto'g'ri parol", "POST", "/api/auth")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true}, "POST", "/api/auth")
}

// Upload ingests the workbooks sent in the multipart field "files".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/api/upload"))
	defer timer.ObserveDuration()

	if !h.authorized(r.Header.Get(passwordHeader)) {
		respondError(w, http.StatusUnauthorized, "Ruxsat yo'q", "POST", "/api/upload")
		return
	}

	files, err := readUpload(r)
	if err != nil {
		logger.Warn("upload rejected: %v", err)
		respondError(w, http.StatusBadRequest, "Fayllar yuklanmadi", "POST", "/api/upload")
		return
	}

	res, err := h.store.Ingest(r.Context(), files)
	if err != nil {
		if errors.Is(err, dashboard.ErrEmptyBatch) {
			respondError(w, http.StatusBadRequest, "Fayllar yuklanmadi", "POST", "/api/upload")
			return
		}
		logger.Error("upload failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Ma'lumotlarni saqlab bo'lmadi", "POST", "/api/upload")
		return
	}

	failed := make([]string, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, f.File)
	}
	respondJSON(w, http.StatusOK, UploadResponse{
		Success:      true,
		Message:      fmt.Sprintf("%d ta agent ma'lumotlari yuklandi", len(res.Agents)),
		Agents:       len(res.Agents),
		LastUpdated:  res.LastUpdated,
		HistoryCount: res.HistoryCount,
		Failed:       failed,
	}, "POST", "/api/upload")
}

func (h *Handler) authorized(given string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(h.adminPassword)) == 1
}

// readUpload returns the files of the "files" field in the order they were
// sent. A request without that field yields an empty batch.
func readUpload(r *http.Request) ([]extractor.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]extractor.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, extractor.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Helpers
func respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("write %s response: %v", endpoint, err)
	}
}

func respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
