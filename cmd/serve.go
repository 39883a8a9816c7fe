package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/careerpulse/cohortsim/sim/cohort"
	"github.com/careerpulse/cohortsim/sim/dashboard"
)

var addr string // Listen address for the read API

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Generate a cohort once and serve it over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(cmd)
		if err != nil {
			return err
		}
		c, err := cohort.Generate(spec)
		if err != nil {
			return err
		}

		if logrus.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		ln, err := net.Listen("tcp", listenAddr(cmd))
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return runServer(newServer(c, spec.Parameters.Invites), ln, c)
	},
}

// listenAddr returns --addr when set, else COHORTSIM_ADDR, else the flag default.
func listenAddr(cmd *cobra.Command) string {
	if cmd.Flags().Changed("addr") {
		return addr
	}
	return getenv("COHORTSIM_ADDR", addr)
}

func newServer(c *cohort.Cohort, weights cohort.InviteWeights) *http.Server {
	return &http.Server{
		Handler:           dashboard.NewRouter(dashboard.NewHandler(c, weights)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// runServer serves on ln until the server fails or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func runServer(srv *http.Server, ln net.Listener, c *cohort.Cohort) error {
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	serverErrors := make(chan error, 1)
	go func() {
		logrus.Infof("Serving %d records (run %s) on %s", c.Len(), c.RunID, ln.Addr())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case sig := <-osSignals:
		logrus.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logrus.Info("Server stopped")
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (falls back to COHORTSIM_ADDR)")
}
