package server

import (
	"context"
	"net/http"
	"time"

	"ctchen222/Bookshelf/internal/api/controller"
	"ctchen222/Bookshelf/internal/api/middleware"
	"ctchen222/Bookshelf/internal/api/response"
	"ctchen222/Bookshelf/internal/config"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	engine *gin.Engine
	db     Pinger
}

// NewServer builds the gin engine with every route mounted under /api/v1.
func NewServer(
	cfg *config.Config,
	db Pinger,
	resolver middleware.IdentityResolver,
	userController *controller.UserController,
	bookController *controller.BookController,
) *Server {
	engine := gin.New()
	s := &Server{engine: engine, db: db}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		s.traceRequests(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	engine.GET("/healthz", s.healthz)

	api := engine.Group("/api/v1")
	api.POST("/signup", userController.Signup)
	api.POST("/login", userController.Login)
	api.POST("/refresh-token", userController.RefreshToken)

	protected := api.Group("", middleware.RequireAuth(resolver))
	protected.GET("/users/me", userController.Me)
	protected.PUT("/users/me/password", userController.ChangePassword)
	protected.PUT("/users/me/username", userController.ChangeUsername)

	protected.POST("/books", bookController.Create)
	protected.GET("/books", bookController.List)
	protected.GET("/books/search", bookController.Search)
	protected.GET("/books/:id", bookController.Get)
	protected.PUT("/books/:id", bookController.Update)
	protected.DELETE("/books/:id", bookController.Delete)
	protected.GET("/library-summary", bookController.Summary)

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// traceRequests opens a server span per request.
func (s *Server) traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		response.ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	response.SuccessResponse(c, gin.H{"status": "ok"})
}
