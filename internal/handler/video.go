package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/heartline/internal/service"
)

type VideoHandler struct {
	service *service.VideoService
	logger  *slog.Logger
}

func NewVideoHandler(svc *service.VideoService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{service: svc, logger: logger}
}

// videoRequest registers metadata for a file already placed under /uploads/.
type videoRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Filename string `json:"filename" validate:"required"`
}

// HandleCreate handles POST /api/videos (creators only).
func (h *VideoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req videoRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.service.Register(r.Context(), p, req.Title, req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// HandleGet returns one video and counts the view.
func (h *VideoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
