package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/treelinux/leafregistry/internal/domain"
	"github.com/treelinux/leafregistry/internal/service"
	"github.com/treelinux/leafregistry/internal/storage"
	"github.com/treelinux/leafregistry/internal/transport/http/middleware"
)

const maxUploadBytes = 10 << 20

type PackageHandler struct {
	moderationService *service.ModerationService
	registryService   *service.RegistryService
}

func NewPackageHandler(moderationService *service.ModerationService, registryService *service.RegistryService) *PackageHandler {
	return &PackageHandler{moderationService: moderationService, registryService: registryService}
}

// Upload receives a manifest file. Where it lands depends on the uploader's
// role: privileged uploads publish immediately, everyone else queues for
// review.
func (h *PackageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}
	defer file.Close()

	// Read one byte past the limit so an oversize file is rejected rather
	// than stored truncated.
	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "READ_FAILED", "Could not read uploaded file")
		return
	}
	if len(content) > maxUploadBytes {
		writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "File exceeds the upload size limit")
		return
	}

	loc, err := h.moderationService.Upload(r.Context(), user, header.Filename, content)
	if err != nil {
		if errors.Is(err, storage.ErrBadExtension) {
			writeError(w, http.StatusBadRequest, "BAD_EXTENSION", "Only "+storage.Extension+" files are allowed")
		} else if errors.Is(err, storage.ErrPathEscapes) {
			writeError(w, http.StatusBadRequest, "INVALID_PATH", "Invalid file path")
		} else {
			slog.Error("upload failed", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"location": loc})
}

func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	sortKey := r.URL.Query().Get("sort")
	ascending := r.URL.Query().Get("order") != "desc"

	subs, err := h.registryService.ListAllPublic(r.Context(), sortKey, ascending)
	if err != nil {
		slog.Error("list packages failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PackageHandler) Search(w http.ResponseWriter, r *http.Request) {
	subs, err := h.registryService.SearchPackages(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("search packages failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PackageHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.registryService.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("search users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *PackageHandler) UserPackages(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("user")

	subs, err := h.registryService.ListPublic(r.Context(), owner)
	if err != nil {
		if errors.Is(err, storage.ErrPathEscapes) {
			writeError(w, http.StatusBadRequest, "INVALID_PATH", "Invalid username")
			return
		}
		slog.Error("list user packages failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Download streams a published file as an attachment.
func (h *PackageHandler) Download(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("user")
	filename := r.PathValue("file")

	path, err := h.registryService.DownloadPath(r.Context(), owner, filename)
	if err != nil {
		writePackageError(w, err, "download")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

func (h *PackageHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("user")
	filename := r.PathValue("file")

	m, err := h.registryService.Manifest(r.Context(), owner, filename)
	if err != nil {
		writePackageError(w, err, "manifest")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MyPending lists the caller's own review queue.
func (h *PackageHandler) MyPending(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	subs, err := h.moderationService.ListOwnPending(r.Context(), user)
	if err != nil {
		slog.Error("list own pending failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func writePackageError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Package not found")
	case errors.Is(err, storage.ErrBadExtension), errors.Is(err, storage.ErrPathEscapes):
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "Invalid package path")
	default:
		slog.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
