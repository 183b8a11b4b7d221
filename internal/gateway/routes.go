package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Handler serves the participant websocket endpoint in front of the gin
// router. The upgrade hijacks the connection after writing the status
// line, which gin's response writer refuses.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.Handle("/", s.NewRouter())
	return mux
}

// NewRouter returns a gin engine with the HTTP routes registered.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts health, metrics and the read-only session API.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": s.Hub.Len()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.coord.Info())
	})
	api.GET("/feed", s.streamFeed)
}

// streamFeed relays the live action feed as server-sent events.
func (s *Server) streamFeed(c *gin.Context) {
	if s.opts.Feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "action feed not configured"})
		return
	}
	ctx := c.Request.Context()
	ps := s.opts.Feed.Subscribe(ctx)
	defer ps.Close()
	ch := ps.Channel()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case m, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("action", m.Payload)
			return true
		}
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}
