package server

import (
	"net/http"

	"BeatWave/logger"
	"BeatWave/model"
)

// GetProfileHandler returns the caller's profile.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load profile",
			logger.Int64("userId", userID),
			logger.ErrorField(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		// Profiles are created with the account, so this indicates data loss.
		logger.Error("profile missing for existing user", logger.Int64("userId", userID))
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfileHandler saves the caller's editable profile fields.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req model.UpdateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile := &model.Profile{
		UserID:     userID,
		Bio:        req.Bio,
		Website:    req.Website,
		Instagram:  req.Instagram,
		Twitter:    req.Twitter,
		Soundcloud: req.Soundcloud,
	}
	if err := h.profileRepo.Update(r.Context(), profile); err != nil {
		logger.Error("failed to update profile",
			logger.Int64("userId", userID),
			logger.ErrorField(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	updated, err := h.profileRepo.GetByUserID(r.Context(), userID)
	if err != nil || updated == nil {
		logger.Error("failed to reload profile after update",
			logger.Int64("userId", userID),
			logger.ErrorField(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// UploadAvatarHandler stores a new profile avatar.
// Expected multipart form field: avatarFile.
func (h *APIHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxCoverSize+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "Failed to parse upload form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	avatarFile, avatarHeader, err := r.FormFile("avatarFile")
	if err != nil {
		http.Error(w, "Missing 'avatarFile' in form", http.StatusBadRequest)
		return
	}
	defer avatarFile.Close()

	if avatarHeader.Size > h.cfg.MaxCoverSize {
		http.Error(w, "Avatar image too large", http.StatusRequestEntityTooLarge)
		return
	}

	avatarPath, err := h.blobStore.UploadAvatar(r.Context(), avatarHeader.Filename, avatarFile, avatarHeader.Size, avatarHeader.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("failed to store avatar",
			logger.Int64("userId", userID),
			logger.ErrorField(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.profileRepo.UpdateAvatar(r.Context(), userID, avatarPath); err != nil {
		logger.Error("failed to save avatar path",
			logger.Int64("userId", userID),
			logger.ErrorField(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatarPath": avatarPath})
}

// ProfileBeatsHandler lists the caller's own beats, newest first.
func (h *APIHandler) ProfileBeatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	beats, err := h.facade.BrowseProfile(r.Context(), userID)
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"beats": beats})
}
