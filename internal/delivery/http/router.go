package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"partyhub/internal/delivery/http/controllers"
	"partyhub/internal/delivery/http/middleware"
	"partyhub/internal/domain"
)

// Controllers bundles every controller the router mounts.
type Controllers struct {
	Auth       *controllers.AuthController
	Party      *controllers.PartyController
	Save       *controllers.SaveController
	Invite     *controllers.InviteController
	Referral   *controllers.ReferralController
	Connection *controllers.ConnectionController
	Profile    *controllers.ProfileController
	Calendar   *controllers.CalendarController
	FeedAdmin  *controllers.FeedAdminController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(verifier domain.TokenVerifier, logger *slog.Logger, c Controllers) *http.ServeMux {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(verifier, logger)
	optional := middleware.OptionalAuth(verifier)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return authed(middleware.RequireRole(domain.RoleAdmin)(next))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /api/auth/login", c.Auth.Login)
	mux.HandleFunc("POST /api/auth/code/request", c.Auth.RequestLoginCode)
	mux.HandleFunc("POST /api/auth/code/verify", c.Auth.VerifyLoginCode)

	// Parties. Reads are public but personalized for authenticated callers.
	mux.HandleFunc("GET /api/parties", optional(c.Party.ListParties))
	mux.HandleFunc("GET /api/parties/{partyID}", optional(c.Party.GetParty))
	mux.HandleFunc("POST /api/parties", admin(c.Party.CreateParty))
	mux.HandleFunc("PUT /api/parties/{partyID}", admin(c.Party.UpdateParty))
	mux.HandleFunc("DELETE /api/parties/{partyID}", admin(c.Party.DeleteParty))

	// Saves
	mux.HandleFunc("POST /api/parties/{partyID}/save", authed(c.Save.SaveParty))
	mux.HandleFunc("DELETE /api/parties/{partyID}/save", authed(c.Save.UnsaveParty))
	mux.HandleFunc("GET /api/me/parties", authed(c.Save.ListSavedParties))

	// Invites. Accepting is unauthenticated: the recipient may not have an
	// account yet.
	mux.HandleFunc("GET /api/invites", authed(c.Invite.Overview))
	mux.HandleFunc("POST /api/invites", authed(c.Invite.SendInvite))
	mux.HandleFunc("POST /api/invites/accept", c.Invite.AcceptInvite)

	// Referral codes
	mux.HandleFunc("POST /api/referral/generate", authed(c.Referral.Generate))
	mux.HandleFunc("POST /api/referral/redeem", authed(c.Referral.Redeem))
	mux.HandleFunc("GET /api/referral/status", authed(c.Referral.Status))

	// Connections
	mux.HandleFunc("GET /api/connections", authed(c.Connection.ListConnections))
	mux.HandleFunc("POST /api/connections", authed(c.Connection.Connect))
	mux.HandleFunc("DELETE /api/connections/{userID}", authed(c.Connection.Disconnect))

	// Profile
	mux.HandleFunc("GET /api/profile", authed(c.Profile.GetProfile))
	mux.HandleFunc("PUT /api/profile", authed(c.Profile.UpdateProfile))
	mux.HandleFunc("GET /api/profile/export", authed(c.Profile.Export))
	mux.HandleFunc("POST /api/profile/import", authed(c.Profile.Import))

	// Calendar. The feed itself authenticates by token: calendar apps poll
	// it without headers.
	mux.HandleFunc("POST /api/calendar/feed", authed(c.Calendar.EnableFeed))
	mux.HandleFunc("DELETE /api/calendar/feed", authed(c.Calendar.DisableFeed))
	mux.HandleFunc("GET /api/calendar/feed/{token}", c.Calendar.ServeFeed)
	mux.HandleFunc("GET /api/calendar/status", authed(c.Calendar.Status))
	mux.HandleFunc("GET /api/parties/{partyID}/calendar.ics", authed(c.Calendar.PartyICS))

	// Admin
	mux.HandleFunc("POST /api/admin/feeds/sync", admin(c.FeedAdmin.SyncNow))
	mux.HandleFunc("GET /api/admin/feeds", admin(c.FeedAdmin.ListSources))

	// Ops
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
