package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/results"
	"github.com/spigell/resume-matcher/internal/server"
	"github.com/spigell/resume-matcher/internal/uploads"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logger.WithService(app))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-matcher api", zap.String("version", version))

	pipeline, err := newPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the match pipeline", zap.Error(err))
	}

	store, err := results.Open(ctx, config.Store.Driver, config.Store.DSN)
	if err != nil {
		logger.Fatal("opening the result store", zap.Error(err), zap.String("driver", config.Store.Driver))
	}
	defer store.Close()

	storage, err := uploads.NewStorage(config.Server.UploadDir)
	if err != nil {
		logger.Fatal("preparing the upload directory", zap.Error(err))
	}

	secret, err := sessionSecret(config.Server, logger)
	if err != nil {
		logger.Fatal("loading the session secret", zap.Error(err))
	}
	sessions, err := server.NewSessions(secret, config.Server.SessionTTL)
	if err != nil {
		logger.Fatal("configuring sessions", zap.Error(err))
	}

	srv, err := server.New(server.Config{
		Addr:            config.Server.Addr,
		MaxUploadMB:     config.Server.MaxUploadMB,
		RateLimit:       config.Server.RateLimit,
		Burst:           config.Server.Burst,
		AllowedOrigins:  config.Server.AllowedOrigins,
		DefaultMethod:   config.Scoring.DefaultMethod,
		ShutdownTimeout: config.Server.ShutdownTimeout,
	}, server.Deps{
		Matcher:   pipeline,
		Extractor: extract.New(nil),
		Store:     store,
		Uploads:   storage,
		Sessions:  sessions,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("building the server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown complete"))
}
