package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"github.com/rl1809/po-watcher/internal/adapter/books"
	"github.com/rl1809/po-watcher/internal/adapter/handler"
	"github.com/rl1809/po-watcher/internal/adapter/inbox"
	"github.com/rl1809/po-watcher/internal/adapter/notify"
	"github.com/rl1809/po-watcher/internal/adapter/storage"
	"github.com/rl1809/po-watcher/internal/config"
	"github.com/rl1809/po-watcher/internal/core/service"
	"github.com/rl1809/po-watcher/internal/port"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	once := pflag.Bool("once", false, "run a single poll cycle and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config:\n%v", err)
	}

	logger := cfg.NewLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// Cursor
	var cursor port.CursorRepository = storage.NewMemoryCursor()
	var rdb *redis.Client
	if cfg.CursorBackend == config.CursorRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
		cursor = storage.NewRedisCursor(rdb, cfg.InboxLabel)
	}

	// Ledger
	var ledger port.LedgerRepository
	var closeLedger func() error
	switch cfg.LedgerDriver {
	case config.LedgerSQLite:
		l, err := storage.OpenSQLiteLedger(ctx, cfg.LedgerDSN)
		if err != nil {
			log.Fatalf("failed to open sqlite ledger: %v", err)
		}
		ledger, closeLedger = l, l.Close
	case config.LedgerMySQL:
		dsn, err := mysql.ParseDSN(cfg.LedgerDSN)
		if err != nil {
			log.Fatalf("invalid LEDGER_DSN: %v", err)
		}
		// Outcomes scan processed_at into time.Time.
		dsn.ParseTime = true
		db, err := sql.Open("mysql", dsn.FormatDSN())
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("failed to ping mysql: %v", err)
		}
		l := storage.NewMySQLLedger(db)
		if err := l.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate ledger: %v", err)
		}
		ledger, closeLedger = l, db.Close
	}
	if ledger != nil {
		logger.Info("ledger enabled", "driver", cfg.LedgerDriver)
	}

	// Adapters
	booksAdapter := books.NewBooksAdapter(httpClient, books.Config{
		BaseURL:           cfg.BooksBaseURL,
		OrganizationID:    cfg.OrganizationID,
		AuthScheme:        cfg.AuthScheme,
		AccessToken:       cfg.AccessToken,
		ItemAccountID:     cfg.ItemAccountID,
		PurchaseAccountID: cfg.PurchaseAccountID,
	})
	gmail := inbox.NewGmailAdapter(httpClient, cfg.GmailBaseURL, cfg.GmailUser, cfg.GmailAccessToken)
	sink := notify.NewWebhookAdapter(httpClient, cfg.SinkURL, logger)

	// Services
	watcher := service.NewInboxWatcher(service.WatcherDeps{
		Inbox:    gmail,
		Cursor:   cursor,
		Resolver: service.NewCatalogResolver(booksAdapter, logger),
		Builder:  service.NewOrderBuilder(booksAdapter, cfg.VendorID, cfg.PartialPolicy),
		Sink:     sink,
		Ledger:   ledger,
		Logger:   logger,
	}, service.WatcherConfig{
		Folder:       cfg.InboxLabel,
		PollInterval: cfg.PollInterval,
	})

	if *once {
		err := watcher.PollOnce(ctx)
		closeAll(rdb, closeLedger)
		if err != nil {
			log.Fatalf("poll failed: %v", err)
		}
		return
	}

	// gRPC health server
	var grpcServer *grpc.Server
	grpcHandler := handler.NewGRPCHandler()
	if cfg.GRPCAddr != "" {
		grpcServer = grpc.NewServer()
		grpcHandler.Register(grpcServer)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}
		go func() {
			logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	// HTTP status server
	httpHandler := handler.NewHTTPHandler(watcher, ledger)
	httpServer := &http.Server{
		Addr:    cfg.StatusAddr,
		Handler: httpHandler.Router(os.Stdout),
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.StatusAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Watcher
	runErr := make(chan error, 1)
	go func() {
		grpcHandler.SetServing(true)
		runErr <- watcher.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil {
			logger.Error("watcher stopped", "error", err)
			exitCode = 1
		}
	}
	grpcHandler.Shutdown()
	logger.Info("watcher stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	if grpcServer != nil {
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
	}

	closeAll(rdb, closeLedger)
	logger.Info("connections closed")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func closeAll(rdb *redis.Client, closeLedger func() error) {
	if rdb != nil {
		rdb.Close()
	}
	if closeLedger != nil {
		closeLedger()
	}
}
