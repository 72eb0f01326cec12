package main

import (
	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/broker"
	"chat-hub/infrastructure/gateway"
	"chat-hub/infrastructure/grpc/server"
	"chat-hub/infrastructure/websocket"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/projection"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred closes flush badger and bluge.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	logger = logger.With("instance", config.InstanceID)

	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.DebugInspectorPort > 0 {
		endpoint := "/inspect"
		url := fmt.Sprintf("http://localhost:%d%s", config.DebugInspectorPort, endpoint)
		logger.Info("Debug Badger inspector available", "url", url)
		database.StartDebugServer(db, config.DebugInspectorPort, endpoint, repositories.InspectRow)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation
	moderator, err := buildModerator(config, charReplacement, logger)
	if err != nil {
		return exitConfig, err
	}

	// 4. Presence & broadcast
	bus, closeBus := buildBroker(config, logger)
	defer closeBus()

	monitoring := observability.NewMonitoringManager(logger)
	telemetryChan := make(chan event.DomainEvent, config.BufferSize)
	coordinator := runtime.NewCoordinator(
		logger, config.InstanceID, runtime.NewRegistry(), bus,
		telemetryChan, monitoring, config.TypingTimeout,
	)
	defer coordinator.Close()

	// 5. Repositories & Services
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	userRepository := repositories.NewUserRepository(db)
	chatRepository := repositories.NewChatRepository(db, logger)
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	messageIndex := repositories.NewMessageIndex(blugeWriter, logger)

	authService := services.NewAuthService(logger, userRepository, tokens)
	chatService := services.NewChatService(logger, chatRepository, userRepository, messageRepository)
	messageService := services.NewMessageService(
		logger, chatService, userRepository, messageRepository, chatRepository,
		messageIndex, moderator, config.SearchLimit,
	)

	// 6. Background workers
	activity := projection.NewActivity()
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewEventFanout(logger, telemetryChan, config.SinkTimeout, activity),
		workers.NewRelayWorker(logger, bus, coordinator.Deliver),
		workers.NewHeartbeatWorker(logger, monitoring, config.MetricInterval),
		workers.NewChannelCapacityWorker(logger, []workers.NamedChannel{
			{Name: "telemetry", Channel: telemetryChan},
		}, monitoring, config.MetricInterval),
	)

	// 7. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		logger.Info("Starting workers...")
		sup.Run(ctx)
	}()

	// 8. HTTP + WebSocket
	socket := websocket.NewHandler(logger, websocket.Config{
		AllowedOrigins: config.Origins(),
		AuthRequired:   config.SocketAuthRequired,
		MaxMessageSize: config.MaxMessageSize,
		PingTimeout:    config.PingTimeout,
		WriteTimeout:   config.WriteTimeout,
		SendBuffer:     config.ConnectionBufferSize,
		RateLimit:      config.RateLimit,
		RateBurst:      config.RateBurst,
	}, coordinator, tokens, monitoring)

	api := gateway.NewGateway(logger, tokens, authService, chatService, messageService, config.MaxBodySize)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           api.Routes(socket),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 9. gRPC admin server
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	grpcServer, healthServer := server.NewGRPCServer(logger, tokens,
		server.NewAdminServer(config.InstanceID, coordinator, activity, monitoring))

	go func() {
		logger.Info("Starting gRPC server", "address", grpcAddress)
		for serviceName := range grpcServer.GetServiceInfo() {
			logger.Debug("gRPC exposed service", "name", serviceName)
		}
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 11. Graceful shutdown
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := socket.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()
	sup.Stop()
	<-supDone

	logger.Info("Program stopped cleanly")
	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// buildBroker relays through redis when REDIS_ADDR is set, in process otherwise.
func buildBroker(config internal.Config, logger *slog.Logger) (contract.Broker, func()) {
	if config.RedisAddr == "" {
		logger.Info("Using in-process broker")
		return broker.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	logger.Info("Using redis broker", "addr", config.RedisAddr, "channel", config.RedisChannel)
	return broker.NewRedis(client, config.RedisChannel, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn("Unable to close redis client", "error", err)
		}
	}
}

// buildModerator returns nil when moderation is disabled.
func buildModerator(config internal.Config, replacement rune, logger *slog.Logger) (*moderation.Moderator, error) {
	if !config.ModerationEnabled {
		logger.Info("Moderation disabled")
		return nil, nil
	}

	var (
		source fs.FS
		dir    = moderation.DefaultDirectory
	)
	if config.CensoredDir != "" {
		source, dir = os.DirFS(config.CensoredDir), "."
	}

	data, err := moderation.NewCensoredLoader(source).LoadAll(dir)
	if err != nil {
		return nil, fmt.Errorf("loading censored words: %w", err)
	}
	logger.Info("Censored dictionaries loaded", "languages", data.Languages, "words", len(data.Words))

	return moderation.NewModerator(data.Words, replacement, logger)
}
