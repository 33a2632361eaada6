package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stevemurr/kvtable/handler"
	"github.com/stevemurr/kvtable/store"
)

// serveConfig is read from flags, falling back to environment variables.
type serveConfig struct {
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	DataDir        string `mapstructure:"data_dir"`
	Backend        string `mapstructure:"backend"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	LogLevel       string `mapstructure:"log_level"`
}

var serveEnv = map[string]string{
	"host":            "HOST",
	"port":            "PORT",
	"data_dir":        "DATA_DIR",
	"backend":         "STORE_BACKEND",
	"allowed_origins": "ALLOWED_ORIGINS",
	"log_level":       "LOG_LEVEL",
}

func newServeCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a key/value store server",
		Long: `Run an HTTP server speaking the key/value store protocol.

Each flag can also be set through an environment variable: HOST, PORT,
DATA_DIR, STORE_BACKEND, ALLOWED_ORIGINS and LOG_LEVEL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg serveConfig
			if err := v.Unmarshal(&cfg); err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}
	flags := cmd.Flags()
	flags.String("host", "0.0.0.0", "address to listen on")
	flags.String("port", "8080", "port to listen on")
	flags.String("data-dir", "./data", "directory holding the store files")
	flags.String("backend", "json", "store backend: json, sqlite, badger or memory")
	flags.String("allowed-origins", "*", "comma separated CORS origins")
	flags.String("log-level", "info", `access log level, "info" or "debug"`)
	for key, env := range serveEnv {
		v.BindEnv(key, env)
		v.BindPFlag(key, flags.Lookup(strings.ReplaceAll(key, "_", "-")))
	}
	return cmd
}

func serve(cmd *cobra.Command, cfg serveConfig) error {
	logger := handler.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	s, err := store.New(cfg.Backend, cfg.DataDir)
	if err != nil {
		return err
	}
	defer s.Close()

	h := handler.New(s, logger)
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           handler.CORS(handler.AccessLog(h, logger), strings.Split(cfg.AllowedOrigins, ",")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.Backend).Str("data", cfg.DataDir).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
