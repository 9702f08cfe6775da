package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/treelinux/leafregistry/internal/service"
	"github.com/treelinux/leafregistry/internal/storage"
	"github.com/treelinux/leafregistry/internal/transport/http/middleware"
	"github.com/treelinux/leafregistry/pkg/validator"
)

const maxAvatarBytes = 2 << 20

type AccountHandler struct {
	accountService *service.AccountService
	store          *storage.Store
}

func NewAccountHandler(accountService *service.AccountService, store *storage.Store) *AccountHandler {
	return &AccountHandler{accountService: accountService, store: store}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetUser(r.Context()))
}

func (h *AccountHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var input struct {
		Bio string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateBio(input.Bio); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	if err := h.accountService.SetBio(r.Context(), user, input.Bio); err != nil {
		slog.Error("update bio failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "Avatar file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "READ_FAILED", "Could not read avatar file")
		return
	}
	if len(content) > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Avatar exceeds the size limit")
		return
	}

	if err := h.accountService.SetAvatar(r.Context(), user, header.Filename, content); err != nil {
		if errors.Is(err, service.ErrBadAvatarType) {
			writeError(w, http.StatusBadRequest, "BAD_AVATAR_TYPE", "Unsupported avatar image type")
		} else {
			slog.Error("set avatar failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var input struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateRename(input.Username); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	err := h.accountService.Rename(r.Context(), user, input.Username)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, user)
	case errors.Is(err, service.ErrRenamePartial):
		// The identity record changed; some files may not have followed.
		writeJSON(w, http.StatusOK, map[string]any{
			"user":    user,
			"warning": "rename finished with errors; some files may not have been relocated",
		})
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username is already taken")
	case errors.Is(err, service.ErrRenameCooldown):
		writeError(w, http.StatusConflict, "RENAME_COOLDOWN", "Username was changed too recently")
	default:
		slog.Error("rename failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

// Avatar serves a user's avatar image by stored filename.
func (h *AccountHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("file")

	path, err := h.store.AvatarPath(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Avatar not found")
		} else {
			writeError(w, http.StatusBadRequest, "INVALID_PATH", "Invalid avatar path")
		}
		return
	}

	http.ServeFile(w, r, path)
}
