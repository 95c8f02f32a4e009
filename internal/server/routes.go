package server

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/heartline/internal/auth"
	"github.com/sakif/heartline/internal/handler"
	"github.com/sakif/heartline/internal/meetlink"
	"github.com/sakif/heartline/internal/middleware"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/service"
)

// setupRoutes configures middleware and handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /health, /api/visuals, /api/cultural            public
//	POST /api/{users|creators}/register, /api/*/login    public
//	POST /api/admins/register                           admin token or ADMIN_REGISTRATION_TOKEN
//	GET  /api/creators[?category=], /api/creators/{id}[/visuals]
//	everything else under /api                          token required
//
// MIDDLEWARE ORDER MATTERS:
// RequestID → RealIP → Recoverer → Logger run on every request. RequireAuth
// and RequireRole guard groups; RateLimit runs after RequireAuth so it can
// key on the principal.
func (s *Server) setupRoutes(links meetlink.Provider) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	opts := service.BookingOptions{
		Location:        s.config.Location(),
		MeetingDuration: s.config.MeetingDuration,
		RequireFuture:   s.config.Booking.RequireFuture,
		OverlapWindow:   s.config.Booking.OverlapWindow,
	}

	authH := handler.NewAuthHandler(
		service.NewAuthService(s.store, tokens, passwords, s.logger),
		s.config.TokenTTL, !s.config.IsDevelopment(), s.logger,
	)
	meetingH := handler.NewMeetingHandler(
		service.NewSupportService(s.store, links, opts, s.logger),
		service.NewMeetingService(s.store, links, opts, s.logger),
		opts.Location, s.logger,
	)
	creatorH := handler.NewCreatorHandler(service.NewCreatorService(s.store, s.logger), s.logger)
	videoH := handler.NewVideoHandler(service.NewVideoService(s.store, s.logger), s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/health", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Get("/visuals", handler.HandleVisuals)
		r.Get("/cultural", handler.HandleCultural)
		for _, role := range []model.Role{model.RoleUser, model.RoleCreator, model.RoleAdmin} {
			prefix := "/" + string(role) + "s"
			if role == model.RoleAdmin {
				r.With(auth.RequireAdminOrBootstrap(tokens, s.config.AdminRegistrationToken)).
					Post(prefix+"/register", authH.HandleRegister(role))
			} else {
				r.Post(prefix+"/register", authH.HandleRegister(role))
			}
			r.Post(prefix+"/login", authH.HandleLogin(role))
		}
		r.Get("/creators", creatorH.HandleList)
		r.Get("/creators/{id}", creatorH.HandleGet)
		r.Get("/creators/{id}/visuals", creatorH.HandleVisuals)

		// === Authenticated ===
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authH.HandleMe)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleUser, model.RoleAdmin))
				if s.redis != nil {
					r.With(middleware.RateLimit(
						middleware.NewRedisCounter(s.redis),
						s.config.RateLimitRequests, s.config.RateLimitWindow, s.logger,
					)).Post("/support-meetings", meetingH.HandleSupportMeeting)
				} else {
					r.Post("/support-meetings", meetingH.HandleSupportMeeting)
				}
				r.Post("/meetings", meetingH.HandleRequestMeeting)
			})

			r.Get("/meetings/{id}", meetingH.HandleGet)
			r.Put("/meetings/{id}", meetingH.HandleRespond)
			r.Put("/meetings/{id}/status", meetingH.HandleUpdateStatus)

			r.With(auth.RequireRole(model.RoleAdmin)).Get("/users", authH.HandleListUsers)
			r.Get("/users/{id}/meetings", creatorH.HandleUserMeetings)

			r.Put("/creators/{id}/support-settings", creatorH.HandleSupportSettings)
			r.Put("/creators/{id}/presence", creatorH.HandlePresence)
			r.Post("/creators/{id}/visuals", creatorH.HandleAddVisual)
			r.Get("/creators/{id}/meetings", creatorH.HandleCreatorMeetings)

			r.With(auth.RequireRole(model.RoleCreator)).Post("/videos", videoH.HandleCreate)
			r.Get("/videos", videoH.HandleList)
			r.Get("/videos/{id}", videoH.HandleGet)

			r.With(auth.RequireRole(model.RoleAdmin)).Get("/admins/dashboard", authH.HandleDashboard)
		})
	})

	return nil
}
