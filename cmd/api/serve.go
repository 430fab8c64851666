package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/identity"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/kommo"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/whatsapp"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var (
	servePort     int
	serveMigrate  bool
	serveNoWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and console API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the schema before serving")
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-worker", false, "do not consume lead events in this process")
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewDBConnection(cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if serveMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	repo := database.NewLeadRepository(db)

	validator, err := usecase.NewEnvelopeValidator()
	if err != nil {
		return eris.Wrap(err, "compile webhook schemas")
	}

	var (
		publisher queue.LeadEventPublisher = queue.NopPublisher{}
		broker    handlers.BrokerStatus
		rabbit    *queue.RabbitMQ
	)
	if cfg.Queue.AMQPURL != "" {
		rabbit, err = queue.NewRabbitMQ(cfg.Queue.AMQPURL)
		if err != nil {
			return err
		}
		defer rabbit.Close()
		publisher = queue.NewProducer(rabbit.Ch)
		broker = rabbit
	} else {
		zap.L().Warn("queue.amqp_url not set, lead events are disabled")
	}

	limiter := handlers.NewRateLimiter(cfg.Webhook.RateLimit, cfg.Webhook.RateBurst)

	routerCfg := handlers.RouterConfig{
		Webhook:        handlers.NewWebhookHandler(usecase.NewIngestLeadUseCase(repo, validator, publisher), cfg.Webhook.InstagramVerifyToken),
		Leads:          handlers.NewLeadHandler(repo),
		Health:         handlers.NewHealthHandler(db, broker),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if cfg.Webhook.RateLimit > 0 {
		routerCfg.RateLimiter = limiter
	}
	if cfg.Identity.APIURL != "" {
		idClient := identity.NewClient(cfg.Identity.APIURL, cfg.Identity.APIKey)
		routerCfg.Sessions = handlers.NewSessionHandler(idClient, cfg.Auth.CookieName)
		if cfg.Auth.Required {
			routerCfg.Auth = middleware.RequireSession(idClient, cfg.Auth.CookieName)
		}
	}
	if !cfg.Auth.Required {
		zap.L().Warn("auth.required is off, console API is open")
		routerCfg.Auth = middleware.DevAuth
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port), zap.String("driver", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return limiter.Run(gctx)
	})

	if rabbit != nil && !serveNoWorker {
		notifiers := buildNotifiers(cfg)
		worker := queue.NewWorker(rabbit.Ch, notifiers...)
		worker.OnNotifierError = middleware.RecordIntegrationError
		g.Go(func() error {
			return worker.Start(gctx)
		})
	}

	return g.Wait()
}

func buildNotifiers(cfg *config.Config) []queue.LeadNotifier {
	var notifiers []queue.LeadNotifier
	if cfg.Mail.Host != "" {
		sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.AlertTo)
		sender.ConsoleURL = cfg.Mail.ConsoleURL
		notifiers = append(notifiers, sender)
	}
	if cfg.Kommo.APIToken != "" {
		notifiers = append(notifiers, kommo.NewClient(cfg.Kommo.BaseURL, cfg.Kommo.APIToken, cfg.Kommo.PipelineID))
	}
	if w := cfg.WhatsApp; w.AccessToken != "" && w.PhoneID != "" && len(w.NotifyTo) > 0 {
		notifiers = append(notifiers, whatsapp.NewClient(w.BaseURL, w.AccessToken, w.PhoneID, w.Template, w.NotifyTo))
	}
	if len(notifiers) == 0 {
		zap.L().Warn("no lead notifiers configured, events will only be acknowledged")
	}
	return notifiers
}
