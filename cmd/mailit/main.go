package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miekg/dns"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/ultrazend/ultrazend/internal/analytics"
	"github.com/ultrazend/ultrazend/internal/config"
	"github.com/ultrazend/ultrazend/internal/engine"
	"github.com/ultrazend/ultrazend/internal/handler"
	"github.com/ultrazend/ultrazend/internal/pipeline"
	"github.com/ultrazend/ultrazend/internal/repository/postgres"
	"github.com/ultrazend/ultrazend/internal/server"
	"github.com/ultrazend/ultrazend/internal/server/middleware"
	"github.com/ultrazend/ultrazend/internal/service"
	"github.com/ultrazend/ultrazend/internal/smtp"
	"github.com/ultrazend/ultrazend/internal/webhook"
	"github.com/ultrazend/ultrazend/internal/worker"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	switch os.Args[1] {
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		serveCmd.StringVar(&configPath, "config", "config/mailit.yaml", "config file path")
		serveCmd.Parse(os.Args[2:])
		runServe(configPath)
	case "migrate":
		migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
		migrateCmd.StringVar(&configPath, "config", "config/mailit.yaml", "config file path")
		up := migrateCmd.Bool("up", false, "run migrations up")
		down := migrateCmd.Bool("down", false, "roll back last migration")
		migrateCmd.Parse(os.Args[2:])
		runMigrate(configPath, *up, *down)
	case "setup":
		setupCmd := flag.NewFlagSet("setup", flag.ExitOnError)
		setupCmd.StringVar(&configPath, "config", "config/mailit.yaml", "config file path")
		setupCmd.Parse(os.Args[2:])
		runSetup(configPath)
	case "version":
		fmt.Printf("mailit %s\n", Version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("MailIt - Self-hosted email platform")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mailit serve   [--config path]             Start API server, workers, and SMTP")
	fmt.Println("  mailit migrate [--config path] --up/--down Run database migrations")
	fmt.Println("  mailit setup   [--config path]             First-run setup (admin + DKIM)")
	fmt.Println("  mailit version                             Print version")
}

func runServe(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging.
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting mailit", "version", Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Connect to PostgreSQL.
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("pinging database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Connect to Redis.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to redis")

	// Run auto-migrations if enabled.
	if cfg.Database.AutoMigrate {
		logger.Info("running auto-migrations")
		connStr := dsnToURL(cfg.Database)
		m, err := migrate.New("file://db/migrations", connStr)
		if err != nil {
			logger.Error("initializing migrations", "error", err)
			os.Exit(1)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Error("running migrations", "error", err)
			os.Exit(1)
		}
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Error("closing migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Error("closing migration db", "error", dbErr)
		}
		logger.Info("migrations complete")
	}

	// Shared asynq client used by every service/handler that enqueues tasks.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Repositories.
	userRepo := postgres.NewUserRepository(pool)
	teamRepo := postgres.NewTeamRepository(pool)
	teamMemberRepo := postgres.NewTeamMemberRepository(pool)
	teamInvitationRepo := postgres.NewTeamInvitationRepository(pool)
	apiKeyRepo := postgres.NewAPIKeyRepository(pool)
	domainRepo := postgres.NewDomainRepository(pool)
	dnsRecordRepo := postgres.NewDomainDNSRecordRepository(pool)
	emailRepo := postgres.NewEmailRepository(pool)
	emailEventRepo := postgres.NewEmailEventRepository(pool)
	inboundEmailRepo := postgres.NewInboundEmailRepository(pool)
	logRepo := postgres.NewLogRepository(pool)
	metricsRepo := postgres.NewMetricsRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	suppressionRepo := postgres.NewSuppressionRepository(pool)
	templateRepo := postgres.NewTemplateRepository(pool)
	templateVersionRepo := postgres.NewTemplateVersionRepository(pool)
	webhookRepo := postgres.NewWebhookRepository(pool)
	webhookEventRepo := postgres.NewWebhookEventRepository(pool)

	attachmentStorage := service.NewLocalAttachmentStorage(cfg.Storage.LocalPath)

	// Services.
	authSvc := service.NewAuthService(userRepo, teamRepo, teamMemberRepo, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.BcryptCost)
	emailSvc := service.NewEmailService(emailRepo, suppressionRepo, asynqClient, rdb)
	domainSvc := service.NewDomainService(domainRepo, dnsRecordRepo, asynqClient, cfg.DKIM.Selector, cfg.DKIM.MasterEncryptionKey)
	apiKeySvc := service.NewAPIKeyService(apiKeyRepo, cfg.Auth.APIKeyPrefix)
	templateSvc := service.NewTemplateService(templateRepo, templateVersionRepo)
	webhookSvc := service.NewWebhookService(webhookRepo)
	inboundEmailSvc := service.NewInboundEmailService(inboundEmailRepo)
	logSvc := service.NewLogService(logRepo)
	metricsSvc := service.NewMetricsService(metricsRepo)
	settingsSvc := service.NewSettingsService(settingsRepo, teamInvitationRepo, userRepo, teamMemberRepo,
		service.SMTPDisplayConfig{
			Host:       cfg.SMTPInbound.Domain,
			Port:       cfg.SMTPOutbound.Port,
			Encryption: cfg.SMTPOutbound.TLSPolicy,
		},
		cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.BcryptCost)

	services := &service.Services{
		Auth:         authSvc,
		Email:        emailSvc,
		Domain:       domainSvc,
		APIKey:       apiKeySvc,
		Template:     templateSvc,
		Webhook:      webhookSvc,
		InboundEmail: inboundEmailSvc,
		Log:          logSvc,
		Metrics:      metricsSvc,
		Settings:     settingsSvc,
	}

	asynqInspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqInspector.Close()

	dnsResolverAddr := cfg.DNS.Resolver
	healthHandler := handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})).WithQueue(handler.PingFunc(func(ctx context.Context) error {
		_, err := asynqInspector.Queues()
		return err
	})).WithDNS(handler.PingFunc(func(ctx context.Context) error {
		c := &dns.Client{Timeout: cfg.DNS.Timeout}
		m := new(dns.Msg)
		m.SetQuestion(".", dns.TypeNS)
		_, _, err := c.ExchangeContext(ctx, m, dnsResolverAddr)
		return err
	}))
	healthHandler.SetReady(true)

	handlers := handler.NewHandlers(services, healthHandler)

	// API key auth middleware needs a lookup/last-used-update pair backed by
	// the repository directly; going through APIKeyService would require
	// exposing the raw hash, which the service layer deliberately never does.
	apiKeyLookup := middleware.APIKeyLookup(func(ctx context.Context, keyHash string) (*middleware.AuthContext, error) {
		key, err := apiKeyRepo.GetByHash(ctx, keyHash)
		if err != nil {
			return nil, err
		}
		return &middleware.AuthContext{
			TeamID:     key.TeamID,
			Permission: key.Permission,
			AuthMethod: "api_key",
		}, nil
	})
	apiKeyLastUsed := middleware.APIKeyLastUsedUpdate(func(ctx context.Context, keyHash string, usedAt time.Time) {
		if err := apiKeyRepo.UpdateLastUsed(ctx, keyHash, usedAt); err != nil {
			logger.Warn("failed to update api key last_used_at", "error", err)
		}
	})

	httpServer := server.New(server.Config{
		Addr:         cfg.Server.HTTPAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Auth.JWTSecret,
		APIKeyPrefix: cfg.Auth.APIKeyPrefix,
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateLimitCfg: middleware.RateLimitConfig{
			Enabled:    cfg.RateLimit.Enabled,
			DefaultRPS: cfg.RateLimit.DefaultRPS,
			SendRPS:    cfg.RateLimit.SendRPS,
			BatchRPS:   cfg.RateLimit.BatchRPS,
			Window:     cfg.RateLimit.Window,
		},
		Redis:          rdb,
		APIKeyLookup:   apiKeyLookup,
		APIKeyLastUsed: apiKeyLastUsed,
		Handlers:       handlers,
		Logger:         logger,
	})

	// Pipeline event bus: every email-state transition the send/bounce
	// handlers record, plus permanently-failed webhook deliveries, are
	// published here for in-process observers. Analytics is the only
	// subscriber today.
	pipelineBus := pipeline.NewBus(logger)
	metricsAggregator := analytics.NewAggregator(metricsRepo, logger)
	metricsAggregator.Subscribe(pipelineBus)

	// Webhook dispatcher, shared by the HTTP-triggered webhook test endpoint
	// and the worker-side event-driven dispatch.
	webhookDispatcher := webhook.NewDispatcher(webhookRepo, webhookEventRepo, asynqClient, webhook.DispatcherConfig{
		Timeout:    cfg.Webhooks.Timeout,
		MaxRetries: cfg.Webhooks.MaxRetries,
	}, logger).WithBus(pipelineBus)
	webhookDispatch := worker.WebhookDispatchFunc(func(ctx context.Context, teamID uuid.UUID, eventType string, payload interface{}) {
		if err := webhookDispatcher.Dispatch(ctx, teamID, eventType, payload); err != nil {
			logger.Error("failed to dispatch webhook event", "error", err, "team_id", teamID, "event_type", eventType)
		}
	})

	// Outbound delivery engine (direct-MX sender).
	dnsResolver := engine.NewDNSResolver(cfg.DNS.Resolver, cfg.DNS.Timeout)
	sender := engine.NewSender(engine.SenderConfig{
		Hostname:       cfg.SMTPOutbound.Hostname,
		HeloDomain:     cfg.SMTPOutbound.HELODomain,
		TLSPolicy:      cfg.SMTPOutbound.TLSPolicy,
		ConnectTimeout: cfg.SMTPOutbound.ConnectTimeout,
		SendTimeout:    cfg.SMTPOutbound.SendTimeout,
		MaxRecipients:  cfg.SMTPOutbound.MaxRecipients,
	}, dnsResolver, logger)
	var dkimMasterKey []byte
	if cfg.DKIM.MasterEncryptionKey != "" {
		dkimMasterKey, err = hex.DecodeString(cfg.DKIM.MasterEncryptionKey)
		if err != nil {
			logger.Error("invalid dkim.master_encryption_key", "error", err)
			os.Exit(1)
		}
	}
	senderAdapter := engine.NewWorkerAdapter(sender, dkimMasterKey)

	taskEnqueuer := worker.TaskEnqueuer(asynqClient)

	emailSendHandler := worker.NewEmailSendHandler(
		emailRepo, emailEventRepo, domainRepo, suppressionRepo,
		senderAdapter, webhookDispatch, taskEnqueuer, logger,
	).WithFallbackDomain(cfg.DKIM.FallbackDomain).WithBus(pipelineBus)

	workerHandlers := worker.Handlers{
		EmailSend:        emailSendHandler,
		EmailBatchSend:   worker.NewBatchEmailSendHandler(asynqClient, logger),
		DomainVerify:     worker.NewDomainVerifyHandler(domainRepo, dnsRecordRepo, taskEnqueuer, logger).WithResolver(cfg.DNS.Resolver, cfg.DNS.Timeout),
		Bounce:           worker.NewBounceHandler(emailRepo, emailEventRepo, suppressionRepo, logger).WithBus(pipelineBus),
		Inbound:          worker.NewInboundHandler(inboundEmailRepo, webhookDispatch, logger),
		Cleanup:          worker.NewCleanupHandler(webhookEventRepo, logRepo, logger),
		WebhookDeliver:   worker.NewWebhookDeliverHandler(webhookDispatcher, logger),
		MetricsAggregate: worker.NewMetricsAggregateHandler(pool, metricsRepo, logger),
	}

	workerCfg := worker.Config{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		Concurrency:   cfg.Workers.Concurrency,
	}
	if len(cfg.Workers.Queues) > 0 {
		workerCfg.Queues = cfg.Workers.Queues
	}
	asynqSrv := worker.NewServer(workerCfg, logger)
	mux := worker.NewMux(workerHandlers)

	// Optional inbound SMTP servers: the unauthenticated MX listener (25)
	// and the authenticated Submission listener (587).
	var smtpServer *gosmtp.Server
	var submissionServer *gosmtp.Server
	if cfg.SMTPInbound.Enabled {
		backend := smtp.NewBackend(domainRepo, inboundEmailRepo, attachmentStorage, asynqClient, int64(cfg.SMTPInbound.MaxMessageBytes), logger)
		smtpServer = smtp.NewServer(smtp.ServerConfig{
			ListenAddr:      fmt.Sprintf(":%d", cfg.SMTPInbound.MXPort),
			Domain:          cfg.SMTPInbound.Domain,
			MaxMessageBytes: int64(cfg.SMTPInbound.MaxMessageBytes),
			ReadTimeout:     cfg.SMTPInbound.ReadTimeout,
			WriteTimeout:    cfg.SMTPInbound.WriteTimeout,
			TLSCert:         cfg.SMTPInbound.TLSCert,
			TLSKey:          cfg.SMTPInbound.TLSKey,
		}, backend, logger)
	}
	if cfg.SMTPInbound.Enabled && cfg.SMTPInbound.SubmissionEnabled {
		// Credentials are the (email, password) of a tenant user, the same
		// pair used to log in over HTTP — not an API key.
		submissionAuth := smtp.SubmissionAuthenticatorFunc(func(ctx context.Context, email, password string) (uuid.UUID, error) {
			user, err := userRepo.GetByEmail(ctx, email)
			if err != nil {
				return uuid.Nil, fmt.Errorf("invalid email or password")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				return uuid.Nil, fmt.Errorf("invalid email or password")
			}
			members, err := teamMemberRepo.ListByUserID(ctx, user.ID)
			if err != nil || len(members) == 0 {
				return uuid.Nil, fmt.Errorf("user has no team memberships")
			}
			return members[0].TeamID, nil
		})
		submissionBackend := smtp.NewSubmissionBackend(submissionAuth, emailSvc, int64(cfg.SMTPInbound.MaxMessageBytes), logger)
		submissionServer = smtp.NewSubmissionServer(smtp.ServerConfig{
			ListenAddr:      fmt.Sprintf(":%d", cfg.SMTPInbound.SubmissionPort),
			Domain:          cfg.SMTPInbound.Domain,
			MaxMessageBytes: int64(cfg.SMTPInbound.MaxMessageBytes),
			ReadTimeout:     cfg.SMTPInbound.ReadTimeout,
			WriteTimeout:    cfg.SMTPInbound.WriteTimeout,
			TLSCert:         cfg.SMTPInbound.TLSCert,
			TLSKey:          cfg.SMTPInbound.TLSKey,
		}, submissionBackend, logger)
	}

	// Listener liveness, surfaced through /healthz and /readyz.
	var mxListening, submissionListening atomic.Bool
	if smtpServer != nil {
		mxListening.Store(true)
		healthHandler.WithListener("smtp_mx", mxListening.Load)
	}
	if submissionServer != nil {
		submissionListening.Store(true)
		healthHandler.WithListener("smtp_submission", submissionListening.Load)
	}

	// Run all servers concurrently using errgroup.
	g, gctx := errgroup.WithContext(ctx)

	// HTTP server.
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Asynq worker server.
	g.Go(func() error {
		logger.Info("starting worker server", "concurrency", cfg.Workers.Concurrency)
		if err := asynqSrv.Run(mux); err != nil {
			return fmt.Errorf("asynq worker: %w", err)
		}
		return nil
	})

	// Inbound MX SMTP server.
	if smtpServer != nil {
		g.Go(func() error {
			defer mxListening.Store(false)
			logger.Info("starting inbound MX SMTP server", "addr", smtpServer.Addr)
			if err := smtpServer.ListenAndServe(); err != nil {
				return fmt.Errorf("smtp server: %w", err)
			}
			return nil
		})
	}

	// Submission SMTP server.
	if submissionServer != nil {
		g.Go(func() error {
			defer submissionListening.Store(false)
			logger.Info("starting submission SMTP server", "addr", submissionServer.Addr)
			if err := submissionServer.ListenAndServe(); err != nil {
				return fmt.Errorf("submission smtp server: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown goroutine.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		healthHandler.SetReady(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		// Shutdown HTTP server.
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", "error", err)
		}

		// Shutdown Asynq worker server.
		asynqSrv.Shutdown()

		// Shutdown inbound SMTP servers.
		if smtpServer != nil {
			if err := smtpServer.Close(); err != nil {
				logger.Error("smtp server shutdown", "error", err)
			}
		}
		if submissionServer != nil {
			if err := submissionServer.Close(); err != nil {
				logger.Error("submission smtp server shutdown", "error", err)
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("mailit stopped")
}

func runMigrate(configPath string, up, down bool) {
	if !up && !down {
		fmt.Fprintln(os.Stderr, "Error: specify --up or --down")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	connStr := dsnToURL(cfg.Database)

	m, err := migrate.New("file://db/migrations", connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing migrations: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if up {
		fmt.Println("Running migrations up...")
		if err := m.Up(); err != nil {
			if err == migrate.ErrNoChange {
				fmt.Println("No new migrations to apply.")
				return
			}
			fmt.Fprintf(os.Stderr, "Error running migrations up: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied successfully.")
	}

	if down {
		fmt.Println("Rolling back last migration...")
		if err := m.Steps(-1); err != nil {
			fmt.Fprintf(os.Stderr, "Error rolling back migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migration rolled back successfully.")
	}
}

func runSetup(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to the database.
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	// Prompt for admin details.
	fmt.Print("Admin name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Admin email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Admin password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	fmt.Print("Team name [Default Team]: ")
	teamName, _ := reader.ReadString('\n')
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		teamName = "Default Team"
	}

	// Hash the password.
	bcryptCost := cfg.Auth.BcryptCost
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	// Create user, team, and team_member in a transaction.
	tx, err := pool.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting transaction: %v\n", err)
		os.Exit(1)
	}
	defer tx.Rollback(ctx)

	userID := uuid.New()
	teamID := uuid.New()
	memberID := uuid.New()
	now := time.Now()
	slug := strings.ToLower(strings.ReplaceAll(teamName, " ", "-"))

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, true, $5, $5)`,
		userID, email, string(hash), name, now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO teams (id, name, slug, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		teamID, teamName, slug, now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating team: %v\n", err)
		os.Exit(1)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO team_members (id, team_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, 'owner', $4)`,
		memberID, teamID, userID, now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating team member: %v\n", err)
		os.Exit(1)
	}

	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error committing transaction: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Admin user created successfully!")
	fmt.Printf("  User ID: %s\n", userID)
	fmt.Printf("  Email:   %s\n", email)
	fmt.Printf("  Team:    %s (ID: %s)\n", teamName, teamID)
	fmt.Println()

	// Generate DKIM keys.
	keyBits := cfg.DKIM.KeyBits
	if keyBits == 0 {
		keyBits = 2048
	}
	selector := cfg.DKIM.Selector
	if selector == "" {
		selector = "mailit"
	}

	fmt.Printf("Generating %d-bit DKIM key pair (selector: %s)...\n", keyBits, selector)

	privateKey, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating DKIM key: %v\n", err)
		os.Exit(1)
	}

	// Encode private key to PEM.
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	// Encode public key to DER for DNS record.
	pubDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding public key: %v\n", err)
		os.Exit(1)
	}

	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	// Build the base64 public key value (strip PEM headers/footers for DNS).
	pubLines := strings.Split(string(pubPEM), "\n")
	var pubBase64 string
	for _, line := range pubLines {
		if strings.HasPrefix(line, "-----") || line == "" {
			continue
		}
		pubBase64 += line
	}

	fmt.Println()
	fmt.Println("=== DKIM DNS Record ===")
	fmt.Printf("Add a TXT record for: %s._domainkey.<your-domain>\n", selector)
	fmt.Printf("Value: v=DKIM1; k=rsa; p=%s\n", pubBase64)
	fmt.Println()
	fmt.Println("=== DKIM Private Key (store securely) ===")
	fmt.Println(string(privPEM))
	fmt.Println()
	fmt.Println("Setup complete! You can now start the server with: mailit serve")
}

// setupLogger creates a slog.Logger based on the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// dsnToURL converts the DatabaseConfig into a postgres:// connection URL
// suitable for golang-migrate.
func dsnToURL(db config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.DBName, db.SSLMode,
	)
}
