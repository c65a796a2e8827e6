// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/objectstore"
)

// UploadResponse is the data of a successful raw upload.
type UploadResponse struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// UploadRaw handles PUT /lake/raw/{filename}. The body is stored under
// the raw prefix; the storage event it raises starts the pipeline.
func (h *Handler) UploadRaw(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := UploadRequest{Filename: chi.URLParam(r, "filename")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	if models.IsPlaceholderKey(req.Filename) {
		respondError(w, http.StatusBadRequest, CodeValidation, "filename is reserved", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooBig, "Upload too large", nil)
			return
		}
		respondError(w, http.StatusBadRequest, CodeValidation, "Unable to read upload", err)
		return
	}
	if len(body) == 0 {
		respondError(w, http.StatusBadRequest, CodeValidation, "body is required", nil)
		return
	}

	key := models.StageRaw.Key(req.Filename)
	if err := h.lake.Put(r.Context(), key, body); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to store upload", err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("key", key).Int("bytes", len(body)).Msg("Raw object uploaded")
	respondSuccess(w, http.StatusAccepted, UploadResponse{Key: key, Size: len(body)}, 0, start)
}

// ListObjects handles GET /lake/{stage}.
func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stage, ok := models.ParseStage(chi.URLParam(r, "stage"))
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "Unknown stage", nil)
		return
	}

	objects, err := h.lake.List(r.Context(), stage.Prefix())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to list objects", err)
		return
	}
	if objects == nil {
		objects = []objectstore.ObjectInfo{}
	}
	respondSuccess(w, http.StatusOK, objects, len(objects), start)
}
