package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rollforge/sheetscan/internal/document"
)

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	log := s.logger.With(zap.String("request_id", requestID))

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	hint := r.FormValue("hint")
	ext := filepath.Ext(header.Filename)
	log.Debug("parse request",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(raw)),
		zap.String("hint", hint))

	record, err := s.engine.Parse(r.Context(), raw, ext, hint)
	if err != nil {
		if errors.Is(err, document.ErrUnreadableDocument) {
			s.respondError(w, http.StatusUnprocessableEntity, "document could not be read")
			return
		}
		log.Error("parse failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Debug("parse finished",
		zap.String("source_hash", record.SourceHash),
		zap.Float64("overall_confidence", record.OverallConfidence),
		zap.Int("unresolved", len(record.Unresolved)))
	s.respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"version": s.registry.Version(),
		"fields":  s.registry.Fields(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
