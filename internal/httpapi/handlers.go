package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"vidfetch/internal/core/domain"
	"vidfetch/internal/filename"
	"vidfetch/internal/service"
)

const maxInfoBody = 1 << 20

type fetchInfoRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleFetchInfo(w http.ResponseWriter, r *http.Request) {
	var req fetchInfoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInfoBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	info, err := s.info.FetchInfo(r.Context(), req.URL)
	if err != nil {
		de := domain.AsError(domain.OpInfo, err)
		writeJSONError(w, de.Status(), de.Message())
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	art, err := s.downloader.Download(r.Context(), service.DownloadRequest{
		URL:     q.Get("url"),
		Quality: q.Get("quality"),
		Title:   q.Get("title"),
	})
	if err != nil {
		de := domain.AsError(domain.OpDownload, err)
		http.Error(w, de.Message(), de.Status())
		return
	}

	h := w.Header()
	h.Set("Content-Type", art.ContentType)
	h.Set("Content-Length", strconv.FormatInt(art.Size, 10))
	h.Set("Content-Disposition", contentDisposition(art.Filename))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	n, err := art.Source.Stream(r.Context(), w)
	log := s.logger.With(slog.String("job", art.JobID), slog.Int64("sent", n), slog.Int64("size", art.Size))
	if err != nil {
		log.Warn("stream ended early", slog.Any("error", err))
		return
	}
	log.Info("stream complete", slog.String("file", art.Filename))
}

func (s *Server) handleThumbnailProxy(w http.ResponseWriter, r *http.Request) {
	img, err := s.thumbnails.Fetch(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		de := domain.AsError(domain.OpThumbnail, err)
		http.Error(w, de.Message(), de.Status())
		return
	}
	defer img.Body.Close()

	h := w.Header()
	h.Set("Content-Type", img.ContentType)
	if img.ContentLength > 0 {
		h.Set("Content-Length", strconv.FormatInt(img.ContentLength, 10))
	}
	h.Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, img.Body); err != nil {
		s.logger.Debug("thumbnail copy interrupted", slog.Any("error", err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// contentDisposition builds an attachment header with an ASCII fallback
// and the RFC 5987 UTF-8 form.
func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, filename.ASCII(name), filename.ExtValue(name))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
