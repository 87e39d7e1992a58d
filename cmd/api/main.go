package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/holainformatica/soporte-backend/internal/api/http"
	"github.com/holainformatica/soporte-backend/internal/api/http/handlers"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/config"
	"github.com/holainformatica/soporte-backend/internal/mail"
	"github.com/holainformatica/soporte-backend/internal/observability"
	"github.com/holainformatica/soporte-backend/internal/persistence"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	asignacionRepo := repository.NewAsignacionRepository(pool)
	historialRepo := repository.NewHistorialRepository(pool)
	horasRepo := repository.NewHorasRepository(pool)
	archivoRepo := repository.NewArchivoRepository(pool)
	comentarioRepo := repository.NewComentarioRepository(pool)
	empresaRepo := repository.NewEmpresaRepository(pool)
	dispositivoRepo := repository.NewDispositivoRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	canalRepo := repository.NewCanalRepository(pool)
	mensajeRepo := repository.NewMensajeRepository(pool)

	store := storage.NewClient(cfg.Storage, logger)
	mailer := mail.NewSMTPMailer(cfg.SMTP, cfg.App.FrontendURL)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	signedTTL := time.Duration(cfg.Storage.SignedURLSecs) * time.Second

	historialService := service.NewHistorialService(historialRepo, profileRepo, logger)
	asignacionService := service.NewAsignacionService(ticketRepo, asignacionRepo, profileRepo, historialService, mailer, logger)
	ticketService := service.NewTicketService(
		ticketRepo, asignacionRepo, horasRepo, archivoRepo, comentarioRepo,
		empresaRepo, profileRepo, historialService, asignacionService,
		store, cfg.Storage.TicketBucket, logger,
	)
	horasService := service.NewHorasService(horasRepo, ticketRepo, historialService)
	archivoService := service.NewArchivoService(archivoRepo, ticketRepo, historialService, store, cfg.Storage.TicketBucket, signedTTL, logger)
	comentarioService := service.NewComentarioService(comentarioRepo, ticketRepo, historialService, store, cfg.Storage.TicketBucket, signedTTL, logger)
	empresaService := service.NewEmpresaService(empresaRepo, ticketRepo)
	dispositivoService := service.NewDispositivoService(dispositivoRepo, empresaRepo)
	usuarioService := service.NewUsuarioService(profileRepo, cfg.Auth.BcryptCost)
	authService := service.NewAuthService(profileRepo, tokens)
	chatService := service.NewChatService(canalRepo, mensajeRepo, profileRepo, store, cfg.Storage.ChatBucket, signedTTL, logger)
	estadisticasService := service.NewEstadisticasService(ticketRepo, asignacionRepo, horasRepo, empresaRepo, profileRepo, redis.Client, logger)

	authMiddleware := auth.NewAuthMiddleware(tokens, profileRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		// headroom over the 50MB per-file cap for multipart overhead
		BodyLimit: 64 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, historialService),
		TicketRecursos: handlers.NewTicketRecursosHandler(asignacionService, horasService, archivoService, comentarioService),
		Empresas:       handlers.NewEmpresasHandler(empresaService),
		Dispositivos:   handlers.NewDispositivosHandler(dispositivoService),
		Usuarios:       handlers.NewUsuariosHandler(usuarioService),
		Estadisticas:   handlers.NewEstadisticasHandler(estadisticasService),
		Chat:           handlers.NewChatHandler(chatService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
