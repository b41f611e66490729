package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/logging"
	"github.com/vbonduro/plantasking/internal/photostore"
	"github.com/vbonduro/plantasking/internal/service"
)

const maxPhotoSize = 20 * 1024 * 1024 // 20 MB

type captureResponse struct {
	Plant    *domain.Plant    `json:"plant"`
	Analysis *domain.Analysis `json:"analysis"`
}

func (s *Server) handleCapturePlant(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1024*1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", log)

	imageData, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		log.Error("read upload failed", "error", err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	plant, a, err := s.service.CapturePlant(r.Context(), imageData, mimeType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process photo")
		log.Error("capture plant failed", "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, captureResponse{Plant: plant, Analysis: a})
}

func (s *Server) handleListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.service.ListPlants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plants")
		logging.FromContext(r.Context(), s.logger).Error("list plants failed", "error", err)
		return
	}
	if plants == nil {
		plants = []*service.PlantSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plants": plants})
}

func (s *Server) handleGetPlant(w http.ResponseWriter, r *http.Request) {
	plantID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant id")
		return
	}

	detail, err := s.service.GetPlant(r.Context(), plantID)
	if err != nil {
		s.plantError(w, r, "get plant failed", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	plantID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant id")
		return
	}

	a, err := s.service.Reanalyze(r.Context(), plantID)
	if err != nil {
		s.plantError(w, r, "reanalyze plant failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDeletePlant(w http.ResponseWriter, r *http.Request) {
	plantID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant id")
		return
	}

	if err := s.service.DeletePlant(r.Context(), plantID); err != nil {
		s.plantError(w, r, "delete plant failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	plantID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plant id")
		return
	}

	reader, mimeType, err := s.service.Photo(r.Context(), plantID)
	if err != nil {
		s.plantError(w, r, "get photo failed", err)
		return
	}
	log := logging.FromContext(r.Context(), s.logger)
	defer closeWithLog(reader, "photo reader", log)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, reader); err != nil {
		log.Error("write photo failed", "plant_id", plantID, "error", err)
	}
}

// plantError maps a service error onto a response: missing plants and
// photos are 404s, anything else is logged and reported as a 500.
func (s *Server) plantError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrPlantNotFound):
		writeError(w, http.StatusNotFound, "plant not found")
	case errors.Is(err, photostore.ErrNotFound):
		writeError(w, http.StatusNotFound, "photo not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
		logging.FromContext(r.Context(), s.logger).Error(msg, "error", err)
	}
}
