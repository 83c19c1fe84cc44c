package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/merlai/internal/api"
	"github.com/Conceptual-Machines/merlai/internal/logger"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveHost        string
	servePort        int
	serveCORSOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Port to bind to")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "Allowed browser origins (default: all)")
}

// listenAddr resolves host and port: flags win, then HOST/PORT from the
// environment, then the server section of the app config.
func listenAddr(cmd *cobra.Command) string {
	host, port := serveHost, strconv.Itoa(servePort)
	if appConfig != nil {
		if appConfig.Server.Host != "" {
			host = appConfig.Server.Host
		}
		if appConfig.Server.Port > 0 {
			port = strconv.Itoa(appConfig.Server.Port)
		}
	}
	if envConfig != nil {
		if os.Getenv("HOST") != "" {
			host = envConfig.Host
		}
		if os.Getenv("PORT") != "" {
			port = envConfig.Port
		}
	}
	if cmd.Flags().Changed("host") {
		host = serveHost
	}
	if cmd.Flags().Changed("port") {
		port = strconv.Itoa(servePort)
	}
	return net.JoinHostPort(host, port)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envConfig != nil && envConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rt := newRuntime(ctx, false)
	rt.plugins.Scan()

	router := api.SetupRouter(api.Dependencies{
		Registry:    rt.registry,
		Generator:   rt.generator,
		Plugins:     rt.plugins,
		Settings:    rt.settings,
		Version:     version,
		CORSOrigins: serveCORSOrigins,
	})

	srv := &http.Server{
		Addr:              listenAddr(cmd),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", logger.Fields{
			"addr":    srv.Addr,
			"models":  len(rt.registry.List()),
			"ai_mode": rt.generator.UseAI(),
		})
		printSuccess(cmd.OutOrStdout(), "Merlai API listening on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			sentry.CaptureException(err)
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
