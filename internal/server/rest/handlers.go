package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
	"github.com/dmitrijs2005/intelligence/internal/server/storage"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	users         LoginService
	storage       *storage.Manager
	db            Pinger
	logger        logging.Logger
	maxImageBytes int64
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type filesResponse struct {
	Files []string `json:"files"`
}

type usageResponse struct {
	Bytes uint64 `json:"bytes"`
}

// authFailed collapses every rejection to a bare 401 and a store outage to
// a bare 500.
func (h *handler) authFailed(w http.ResponseWriter, r *http.Request, err error) {
	if auth.ReasonOf(err).Retryable() {
		internalError(w)
		return
	}
	unauthorized(w)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Error(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(w, "username and password are required")
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, []byte(req.Password))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			unauthorized(w)
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err)
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request, p *models.User) {
	writeJSON(w, http.StatusOK, p)
}

// target returns the {userId} path value, or "" when it cannot be one
// storage segment.
func target(r *http.Request) string {
	id := chi.URLParam(r, "userId")
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return ""
	}
	return id
}

func imagePath(userID string) string {
	return path.Join(common.UserImagesDir, userID)
}

func filesPath(userID string) string {
	return path.Join(common.UserFilesDir, userID)
}

func (h *handler) getImage(w http.ResponseWriter, r *http.Request) {
	id := target(r)
	if id == "" {
		notFound(w)
		return
	}

	data, ok, err := h.storage.Get(r.Context(), imagePath(id))
	if err != nil {
		internalError(w)
		return
	}
	if !ok {
		notFound(w)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) putImage(w http.ResponseWriter, r *http.Request, p *models.User) {
	id := target(r)
	if id == "" {
		notFound(w)
		return
	}
	if !auth.CanAccess(p, id) {
		forbidden(w)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "")
			return
		}
		badRequest(w, "could not read body")
		return
	}

	if err := h.storage.Put(r.Context(), imagePath(id), data); err != nil {
		internalError(w)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) deleteImage(w http.ResponseWriter, r *http.Request, p *models.User) {
	id := target(r)
	if id == "" {
		notFound(w)
		return
	}
	if !auth.CanAccess(p, id) {
		forbidden(w)
		return
	}

	if err := h.storage.Delete(r.Context(), imagePath(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			notFound(w)
			return
		}
		internalError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request, p *models.User) {
	id := target(r)
	if id == "" {
		notFound(w)
		return
	}
	if !auth.CanAccess(p, id) {
		forbidden(w)
		return
	}

	names, ok, err := h.storage.ListChildren(r.Context(), filesPath(id))
	if err != nil {
		internalError(w)
		return
	}
	if !ok {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, filesResponse{Files: names})
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request, p *models.User) {
	id := target(r)
	if id == "" {
		notFound(w)
		return
	}
	if !auth.CanAccess(p, id) {
		forbidden(w)
		return
	}

	n, err := h.storage.Size(r.Context(), filesPath(id))
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Bytes: n})
}
