package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/service"
)

// localLayouts are accepted for times sent without an offset, e.g. from an
// HTML datetime-local input. They are read in the meeting location.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// MeetingHandler serves support bookings, meeting requests and status changes.
type MeetingHandler struct {
	support  *service.SupportService
	meetings *service.MeetingService
	loc      *time.Location
	logger   *slog.Logger
}

func NewMeetingHandler(support *service.SupportService, meetings *service.MeetingService, loc *time.Location, logger *slog.Logger) *MeetingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &MeetingHandler{support: support, meetings: meetings, loc: loc, logger: logger}
}

type supportMeetingRequest struct {
	UserID        string `json:"userId"`
	Emotion       string `json:"emotion" validate:"required"`
	PreferredTime string `json:"preferredTime" validate:"required"`
}

type meetingRequestBody struct {
	UserID   string `json:"userId"`
	Emotion  string `json:"emotion" validate:"required"`
	DateTime string `json:"dateTime" validate:"required"`
}

type actionRequest struct {
	Action string `json:"action" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// meetingResponse wraps a changed meeting with a short confirmation.
type meetingResponse struct {
	Message  string `json:"message"`
	MeetLink string `json:"meetLink,omitempty"`
	Status   string `json:"status"`
	Meeting  any    `json:"meeting"`
}

// parseTime accepts RFC 3339 or a local wall-clock time.
func (h *MeetingHandler) parseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, h.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.ValidationFailed(field, field+" must be an RFC 3339 date-time")
}

// HandleSupportMeeting books an immediate support session with the best
// available creator.
// POST /api/support-meetings
func (h *MeetingHandler) HandleSupportMeeting(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req supportMeetingRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	at, err := h.parseTime("preferredTime", req.PreferredTime)
	if err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.support.RequestSupportMeeting(r.Context(), service.BookingRequest{
		Principal:     p,
		UserID:        req.UserID,
		Emotion:       req.Emotion,
		PreferredTime: at,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// HandleRequestMeeting records a pending request the matched creator must answer.
// POST /api/meetings
func (h *MeetingHandler) HandleRequestMeeting(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req meetingRequestBody
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	at, err := h.parseTime("dateTime", req.DateTime)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.meetings.RequestMeeting(r.Context(), service.BookingRequest{
		Principal:     p,
		UserID:        req.UserID,
		Emotion:       req.Emotion,
		PreferredTime: at,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleGet handles GET /api/meetings/{id}.
func (h *MeetingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.meetings.GetMeeting(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRespond lets the creator accept or reject a pending request.
// PUT /api/meetings/{id}
func (h *MeetingHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req actionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.meetings.Respond(r.Context(), p, chi.URLParam(r, "id"), req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetingResponse{
		Message:  "meeting " + string(m.Status),
		MeetLink: m.MeetLink,
		Status:   string(m.Status),
		Meeting:  m,
	})
}

// HandleUpdateStatus moves a meeting through its lifecycle.
// PUT /api/meetings/{id}/status
func (h *MeetingHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.meetings.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meetingResponse{
		Message:  "meeting status updated",
		MeetLink: m.MeetLink,
		Status:   string(m.Status),
		Meeting:  m,
	})
}
