package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"BeatWave/core/marketplace"
	"BeatWave/core/submission"
	"BeatWave/logger"
)

// maxUploadBytes bounds the whole multipart request. Generous on purpose:
// an oversized audio file must still parse so the validator can answer with
// the precise field and limit instead of a blind connection reset.
const maxUploadBytes = 120 << 20

// UploadBeatHandler handles beat submissions.
// Expected multipart form fields:
// - beatFile: the audio file (required)
// - coverFile: cover art image (optional)
// - title, genre, bpm, price, description, tags (comma separated), freeDownload
func (h *APIHandler) UploadBeatHandler(w http.ResponseWriter, r *http.Request) {
	producerID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	logger.Info("handling beat upload",
		logger.Int64("producerId", producerID),
		logger.Int64("contentLength", r.ContentLength),
	)

	if r.ContentLength > maxUploadBytes {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB in memory, rest spills to disk
		logger.Error("failed to parse multipart form", logger.ErrorField(err))
		http.Error(w, "Failed to parse upload form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	raw := marketplace.RawSubmission{
		Submission: submission.Submission{
			Title:        strings.TrimSpace(r.FormValue("title")),
			Genre:        strings.TrimSpace(r.FormValue("genre")),
			Description:  strings.TrimSpace(r.FormValue("description")),
			FreeDownload: parseBoolField(r.FormValue("freeDownload")),
		},
	}

	if bpmStr := r.FormValue("bpm"); bpmStr != "" {
		bpm, err := strconv.Atoi(bpmStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid submission: bpm: must be a number", Field: "bpm"})
			return
		}
		raw.BPM = bpm
	}

	if priceStr := r.FormValue("price"); priceStr != "" {
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid submission: price: must be a number", Field: "price"})
			return
		}
		raw.Price = price
	}

	if tags := r.FormValue("tags"); tags != "" {
		raw.Tags = strings.Split(tags, ",")
	}

	beatFile, beatHeader, err := r.FormFile("beatFile")
	if err == nil {
		defer beatFile.Close()
		raw.Audio = beatFile
		raw.AudioName = beatHeader.Filename
		raw.AudioContentType = beatHeader.Header.Get("Content-Type")
		raw.AudioSize = beatHeader.Size
	}

	coverFile, coverHeader, err := r.FormFile("coverFile")
	if err == nil {
		defer coverFile.Close()
		raw.Cover = coverFile
		raw.CoverName = coverHeader.Filename
		raw.CoverContentType = coverHeader.Header.Get("Content-Type")
		raw.CoverSize = coverHeader.Size
	}

	id, err := h.facade.SubmitBeat(r.Context(), producerID, raw)
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      id,
		"message": "Beat uploaded successfully",
	})
}

// HomeHandler serves the landing page view.
func (h *APIHandler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.facade.BrowseHome(r.Context())
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// BeatDetailHandler serves one beat with its related discovery slice.
func (h *APIHandler) BeatDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := beatIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid beat id", http.StatusBadRequest)
		return
	}

	view, err := h.facade.BrowseDetail(r.Context(), id)
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RecordPlayHandler counts one listen of a beat.
func (h *APIHandler) RecordPlayHandler(w http.ResponseWriter, r *http.Request) {
	id, err := beatIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid beat id", http.StatusBadRequest)
		return
	}

	if err := h.facade.RecordPlay(r.Context(), id); err != nil {
		writeMarketplaceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FeatureBeatHandler flips the curated featured flag for a beat.
func (h *APIHandler) FeatureBeatHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := GetUserIDFromContext(r.Context()); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := beatIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid beat id", http.StatusBadRequest)
		return
	}

	var req struct {
		Featured bool `json:"featured"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.facade.FeatureBeat(r.Context(), id, req.Featured); err != nil {
		writeMarketplaceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func beatIDFromRequest(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["id"], 10, 64)
}

func parseBoolField(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
