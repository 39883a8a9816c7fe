package cmd

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerpulse/cohortsim/sim/cohort"
)

// parseServeFlags resets every command and parses args into the serve flags.
func parseServeFlags(t *testing.T, args ...string) {
	t.Helper()
	resetFlags(rootCmd)
	require.NoError(t, serveCmd.ParseFlags(args))
}

func TestListenAddr_FlagBeatsEnv(t *testing.T) {
	t.Setenv("COHORTSIM_ADDR", "127.0.0.1:9999")
	parseServeFlags(t, "--addr", "127.0.0.1:7000")
	assert.Equal(t, "127.0.0.1:7000", listenAddr(serveCmd))
}

func TestListenAddr_EnvFallback(t *testing.T) {
	t.Setenv("COHORTSIM_ADDR", "127.0.0.1:9999")
	parseServeFlags(t)
	assert.Equal(t, "127.0.0.1:9999", listenAddr(serveCmd))
}

func TestListenAddr_Default(t *testing.T) {
	t.Setenv("COHORTSIM_ADDR", "")
	parseServeFlags(t)
	assert.Equal(t, ":8080", listenAddr(serveCmd))
}

func TestRunServer_SIGINTShutsDownCleanly(t *testing.T) {
	// GIVEN a server running on an ephemeral port
	gin.SetMode(gin.TestMode)
	spec := cohort.DefaultCohortSpec()
	spec.Population = 20
	c, err := cohort.Generate(spec)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- runServer(newServer(c, spec.Parameters.Invites), ln, c) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	// WHEN the process receives SIGINT
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	// THEN runServer returns nil after a graceful shutdown
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runServer did not return after SIGINT")
	}
}
