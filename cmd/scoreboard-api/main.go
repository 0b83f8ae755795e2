package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/config"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/events"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/metrics"
	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile      string
	tokenSubject string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scoreboard-api",
		Short: "Scoreboard leaderboard backend service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	issueTokenCmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print an admin bearer token for mutating routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueToken(cmd.Context(), cmd.OutOrStdout())
		},
	}
	issueTokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "Subject claim of the issued token")
	rootCmd.AddCommand(issueTokenCmd)

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("storage-driver", defaults.GetString("storage.driver"), "Storage driver (sqlite, postgres, file, redis)")
	flags.String("database-path", defaults.GetString("database.path"), "SQLite database path")
	flags.String("database-dsn", defaults.GetString("database.dsn"), "Postgres DSN")
	flags.String("file-path", defaults.GetString("storage.file_path"), "JSON document path for the file driver")
	flags.String("redis-address", defaults.GetString("redis.address"), "Redis address for the redis driver")
	flags.String("nats-url", defaults.GetString("nats.url"), "NATS URL for activity events (empty disables)")
	flags.Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Admin token TTL in minutes")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	flags.String("signing-secret", "", "Admin token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "storage.driver", "storage-driver")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "storage.file_path", "file-path")
	bindFlag(cmd, "redis.address", "redis-address")
	bindFlag(cmd, "nats.url", "nats-url")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func issueToken(ctx context.Context, out io.Writer) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	issuer, err := newTokenIssuer(appConfig)
	if err != nil {
		return err
	}
	token, expiresIn, err := issuer.IssueAdminToken(ctx, tokenSubject)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}{AccessToken: token, ExpiresIn: expiresIn, TokenType: "Bearer"})
}

func newTokenIssuer(appConfig config.AppConfig) (*auth.TokenIssuer, error) {
	return auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
		TokenTTL:      appConfig.TokenTTL,
	})
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, closeStore, err := openStore(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.Warn("failed to close storage", zap.Error(closeErr))
		}
	}()

	recorder := metrics.NewRecorder()
	dispatcher := server.NewActivityDispatcher()
	publishers := []leaderboard.ActivityPublisher{dispatcher}

	if appConfig.NATSURL != "" {
		conn, err := events.Connect(events.ConnectionConfig{URL: appConfig.NATSURL, Token: appConfig.NATSToken})
		if err != nil {
			return err
		}
		defer conn.Drain() //nolint:errcheck
		natsPublisher, err := events.NewNATSPublisher(conn, appConfig.NATSSubjectPrefix, logger)
		if err != nil {
			return err
		}
		publishers = append(publishers, natsPublisher)
		logger.Info("publishing activities to nats", zap.String("subject_prefix", appConfig.NATSSubjectPrefix))
	}

	service, err := leaderboard.NewService(leaderboard.ServiceConfig{
		Store:      store,
		Clock:      time.Now,
		IDProvider: leaderboard.NewUUIDProvider(),
		Logger:     logger,
		Publishers: publishers,
		Observer:   recorder,
	})
	if err != nil {
		return err
	}
	if _, err := service.Initialize(ctx); err != nil {
		return err
	}

	deps := server.Dependencies{
		Service:    service,
		Dispatcher: dispatcher,
		Metrics:    recorder,
		Logger:     logger,
	}
	if appConfig.AuthEnabled() {
		issuer, err := newTokenIssuer(appConfig)
		if err != nil {
			return err
		}
		deps.Tokens = issuer
	} else {
		logger.Warn("auth.signing_secret not set, mutating routes are open")
	}

	handler, err := server.NewHTTPHandler(deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("storage_driver", appConfig.StorageDriver))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
