package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/service"
)

// CreatorHandler serves creator profiles, support settings, presence,
// visual posts and both "my meetings" views.
type CreatorHandler struct {
	service *service.CreatorService
	logger  *slog.Logger
}

func NewCreatorHandler(svc *service.CreatorService, logger *slog.Logger) *CreatorHandler {
	return &CreatorHandler{service: svc, logger: logger}
}

type windowRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// supportSettingsRequest leaves a slice nil when its key is absent, which keeps
// the stored value. An explicit [] clears it.
type supportSettingsRequest struct {
	AvailableForSupport *bool           `json:"availableForSupport" validate:"required"`
	SupportEmotions     []string        `json:"supportEmotions" validate:"omitempty,dive,required"`
	Availability        []windowRequest `json:"availability" validate:"omitempty,dive"`
}

type presenceRequest struct {
	Status string `json:"status" validate:"required,oneof=online offline"`
}

type visualPostRequest struct {
	Type     string `json:"type" validate:"required"`
	Content  string `json:"content"`
	MediaURL string `json:"mediaUrl" validate:"omitempty,url"`
}

// HandleList handles GET /api/creators?category=Visuals
func (h *CreatorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	creators, err := h.service.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creators)
}

// HandleGet handles GET /api/creators/{id}
func (h *CreatorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleVisuals handles GET /api/creators/{id}/visuals
func (h *CreatorHandler) HandleVisuals(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Visuals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleAddVisual handles POST /api/creators/{id}/visuals
func (h *CreatorHandler) HandleAddVisual(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req visualPostRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.AddVisualPost(r.Context(), p, chi.URLParam(r, "id"), service.VisualPostInput{
		Type:     req.Type,
		Content:  req.Content,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleSupportSettings handles PUT /api/creators/{id}/support-settings
func (h *CreatorHandler) HandleSupportSettings(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req supportSettingsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.SupportSettingsInput{
		AvailableForSupport: *req.AvailableForSupport,
		SupportEmotions:     req.SupportEmotions,
	}
	if req.Availability != nil {
		in.Availability = make([]model.AvailabilityWindow, 0, len(req.Availability))
		for _, win := range req.Availability {
			in.Availability = append(in.Availability, model.AvailabilityWindow{
				Day:       model.Weekday(win.Day),
				StartTime: win.StartTime,
				EndTime:   win.EndTime,
			})
		}
	}

	profile, err := h.service.UpdateSupportSettings(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandlePresence handles PUT /api/creators/{id}/presence
func (h *CreatorHandler) HandlePresence(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req presenceRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.service.SetPresence(r.Context(), p, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleCreatorMeetings handles GET /api/creators/{id}/meetings
func (h *CreatorHandler) HandleCreatorMeetings(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := h.service.Meetings(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleUserMeetings handles GET /api/users/{id}/meetings
func (h *CreatorHandler) HandleUserMeetings(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := h.service.UserMeetings(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
