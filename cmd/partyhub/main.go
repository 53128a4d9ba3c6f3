package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"partyhub/config"
	"partyhub/internal/adapters/auth"
	"partyhub/internal/adapters/email"
	"partyhub/internal/adapters/feed"
	"partyhub/internal/cache"
	"partyhub/internal/database"
	delivery "partyhub/internal/delivery/http"
	"partyhub/internal/delivery/http/controllers"
	"partyhub/internal/delivery/http/middleware"
	"partyhub/internal/domain"
	"partyhub/internal/repository/postgres"
	"partyhub/internal/services"
)

// @title PartyHub API
// @version 1.0
// @description Party discovery, saves, invites, and calendar sync for conference attendees.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	logger.Info("database connected")

	if cfg.Migrate {
		if err := database.NewMigrator(db, logger).Up(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var partyCache domain.PartyListCache = cache.NewNoop()
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		partyCache = cache.NewPartyListCache(rdb)
		logger.Info("redis connected")
	} else {
		logger.Info("REDIS_URL not set, party list cache disabled")
	}

	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	loginCodeRepo := postgres.NewLoginCodeRepository(db)
	partyRepo := postgres.NewPartyRepository(db)
	saveRepo := postgres.NewSaveRepository(db)
	inviteRepo := postgres.NewInviteRepository(db)
	referralRepo := postgres.NewReferralRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)
	calendarTokenRepo := postgres.NewCalendarTokenRepository(db)
	feedStateRepo := postgres.NewFeedStateRepository(db)

	referralService := services.NewReferralService(referralRepo, inviteRepo, cfg.InviteSeedBudget)
	authService := services.NewAuthService(
		userRepo, roleRepo, loginCodeRepo, inviteRepo, referralService,
		hasher, tokenIssuer, time.Duration(cfg.TokenExpiryHours)*time.Hour,
		emailService, cfg.AdminEmails, cfg.InviteSeedBudget, logger,
	)
	partyService := services.NewPartyService(partyRepo, saveRepo, partyCache,
		time.Duration(cfg.PartyCacheTTLSeconds)*time.Second, logger)
	saveService := services.NewSaveService(saveRepo, partyRepo)
	inviteService := services.NewInviteService(inviteRepo, userRepo, connectionRepo,
		emailService, cfg.InviteSeedBudget, cfg.BaseURL, logger)
	connectionService := services.NewConnectionService(connectionRepo, userRepo)
	profileService := services.NewProfileService(userRepo, saveRepo, inviteRepo,
		connectionRepo, referralRepo, cfg.InviteSeedBudget)
	calendarService := services.NewCalendarService(calendarTokenRepo, saveRepo, partyRepo,
		cfg.BaseURL, logger)
	feedSyncService := services.NewFeedSyncService(cfg.FeedSources, feed.NewHTTPFetcher(nil),
		feed.Parse, feedStateRepo, partyRepo, partyCache,
		time.Duration(cfg.FeedHorizonDays)*24*time.Hour, logger)

	router := delivery.NewRouter(tokenVerifier, logger, delivery.Controllers{
		Auth:       controllers.NewAuthController(logger, authService),
		Party:      controllers.NewPartyController(logger, partyService),
		Save:       controllers.NewSaveController(logger, saveService),
		Invite:     controllers.NewInviteController(logger, inviteService),
		Referral:   controllers.NewReferralController(logger, referralService),
		Connection: controllers.NewConnectionController(logger, connectionService),
		Profile:    controllers.NewProfileController(logger, profileService),
		Calendar:   controllers.NewCalendarController(logger, calendarService),
		FeedAdmin:  controllers.NewFeedAdminController(logger, feedSyncService),
	})
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var scheduler *cron.Cron
	if len(cfg.FeedSources) > 0 {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.FeedSyncCron, func() {
			syncCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			feedSyncService.SyncAll(syncCtx)
		}); err != nil {
			return fmt.Errorf("schedule feed sync: %w", err)
		}
		scheduler.Start()
		logger.Info("feed sync scheduled", "cron", cfg.FeedSyncCron, "sources", len(cfg.FeedSources))

		// Prime the party list instead of waiting for the first tick.
		go func() {
			syncCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			feedSyncService.SyncAll(syncCtx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
