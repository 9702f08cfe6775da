package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/treelinux/leafregistry/internal/domain"
	"github.com/treelinux/leafregistry/internal/service"
	"github.com/treelinux/leafregistry/internal/storage"
	"github.com/treelinux/leafregistry/internal/transport/http/middleware"
)

type AdminHandler struct {
	moderationService *service.ModerationService
	accountService    *service.AccountService
}

func NewAdminHandler(moderationService *service.ModerationService, accountService *service.AccountService) *AdminHandler {
	return &AdminHandler{moderationService: moderationService, accountService: accountService}
}

func (h *AdminHandler) Pending(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	subs, err := h.moderationService.ListPending(r.Context(), user)
	if err != nil {
		writeModerationError(w, err, "list pending")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *AdminHandler) PendingManifest(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	m, err := h.moderationService.PendingManifest(r.Context(), user, r.PathValue("user"), r.PathValue("file"))
	if err != nil {
		writeModerationError(w, err, "pending manifest")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *AdminHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	err := h.moderationService.Accept(r.Context(), user, r.PathValue("user"), r.PathValue("file"))
	if err != nil {
		writeModerationError(w, err, "accept")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Deny(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	err := h.moderationService.Deny(r.Context(), user, r.PathValue("user"), r.PathValue("file"))
	if err != nil {
		writeModerationError(w, err, "deny")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeletePublished(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	err := h.moderationService.DeletePublished(r.Context(), user, r.PathValue("user"), r.PathValue("file"))
	if err != nil {
		writeModerationError(w, err, "delete published")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var input struct {
		// DurationSeconds of 0 (or omitted) means a permanent ban.
		DurationSeconds int64 `json:"duration_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.accountService.Ban(r.Context(), user, r.PathValue("user"), time.Duration(input.DurationSeconds)*time.Second)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Banning requires admin or owner role")
	case errors.Is(err, service.ErrSelfBan):
		writeError(w, http.StatusForbidden, "SELF_BAN", "Cannot ban yourself")
	case errors.Is(err, service.ErrCannotBanOwner):
		writeError(w, http.StatusForbidden, "CANNOT_BAN_OWNER", "Cannot ban owner")
	case errors.Is(err, service.ErrAdminBanRequiresOwner):
		writeError(w, http.StatusForbidden, "ADMIN_BAN_REQUIRES_OWNER", "Only owner may ban admins")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		slog.Error("ban failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	err := h.accountService.Unban(r.Context(), user, r.PathValue("user"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Unbanning requires admin or owner role")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		slog.Error("unban failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var input struct {
		Role domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.accountService.SetRole(r.Context(), user, r.PathValue("user"), input.Role)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrOwnerOnly):
		writeError(w, http.StatusForbidden, "OWNER_ONLY", "Only owner may change roles")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		slog.Error("set role failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func writeModerationError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Operation requires admin or owner role")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.Is(err, storage.ErrBadExtension), errors.Is(err, storage.ErrPathEscapes):
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "Invalid file path")
	default:
		slog.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
