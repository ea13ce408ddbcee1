package responder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/where/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

// Admin exposes health and metrics for a running responder.
type Admin struct {
	router  *gin.Engine
	started time.Time
	listen  string
}

// NewAdmin builds the admin router. listen is the UDP address reported
// by /health.
func NewAdmin(node, listen string) *Admin {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(node, log.Logger))

	a := &Admin{router: r, started: time.Now(), listen: listen}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.started).String(),
			"service": node,
			"listen":  a.listen,
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return a
}

func (a *Admin) Handler() http.Handler {
	return a.router
}

// Serve runs the admin HTTP server on addr until ctx is cancelled.
func (a *Admin) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
