package meetlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sakif/heartline/internal/apperror"
)

// GoogleConfig holds the credentials of the calendar that owns every event.
// The refresh token is obtained once, offline, for that account.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string // "primary" when empty
	TimeZone     string // IANA name sent with event times
}

// GoogleCalendar creates Calendar events with a Google Meet conference attached.
//
// The oauth2 client refreshes the access token on demand, so a single
// GoogleCalendar is safe to share between requests.
type GoogleCalendar struct {
	events     *calendar.EventsService
	calendarID string
	timeZone   string
}

// NewGoogleCalendar builds a provider authenticated with a stored refresh token.
// ctx only scopes client construction; the token source uses its own.
func NewGoogleCalendar(ctx context.Context, cfg GoogleConfig) (*GoogleCalendar, error) {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	client := oc.Client(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	client.Timeout = 15 * time.Second

	return newGoogleCalendar(ctx, cfg, option.WithHTTPClient(client))
}

func newGoogleCalendar(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*GoogleCalendar, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("meetlink: creating calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	tz := cfg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return &GoogleCalendar{events: svc.Events, calendarID: calendarID, timeZone: tz}, nil
}

// CreateMeeting inserts an event and returns its Meet link.
func (g *GoogleCalendar) CreateMeeting(ctx context.Context, req Request) (string, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ev := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &calendar.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: g.timeZone},
		End:         &calendar.EventDateTime{DateTime: req.End().Format(time.RFC3339), TimeZone: g.timeZone},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             requestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
	for _, email := range req.Attendees {
		if email != "" {
			ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
		}
	}

	created, err := g.events.Insert(g.calendarID, ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			err = fmt.Errorf("status %d: %w", gerr.Code, err)
		}
		return "", apperror.External("calendar", err)
	}

	if link := meetLink(created); link != "" {
		return link, nil
	}
	return "", apperror.External("calendar", errors.New("event created without a conference link"))
}

func meetLink(ev *calendar.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData == nil {
		return ""
	}
	for _, ep := range ev.ConferenceData.EntryPoints {
		if ep.EntryPointType == "video" && ep.Uri != "" {
			return ep.Uri
		}
	}
	return ""
}
