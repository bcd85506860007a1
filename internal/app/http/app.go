package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	appmw "quill/internal/middleware"
	httprouters "quill/internal/transport/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	JWTSecret       string
	SessionSecret   string
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	opts    Options
}

func New(log *slog.Logger, opts Options, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httprouters.NewValidator()

	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogMethod:   true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			)

			return nil
		},
	}))

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(opts.SessionSecret))))
	e.Use(appmw.Identity(log, opts.JWTSecret))

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		opts:    opts,
	}
}

func (s *Server) BuildRouters() {
	s.e.GET("/health", s.routers.Health)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := appmw.RequireIdentity

	api := s.e.Group("/api/v1")
	{
		api.GET("/posts", s.routers.ListPosts)
		api.GET("/posts/:slug", s.routers.GetPost)
		api.GET("/posts/:id/comments", s.routers.ListComments)
		api.GET("/categories", s.routers.Categories)
		api.GET("/tags", s.routers.Tags)

		api.POST("/posts", s.routers.CreatePost, auth)
		api.PUT("/posts/:id", s.routers.UpdatePost, auth)
		api.PATCH("/posts/:id/publish", s.routers.PublishPost, auth)
		api.PATCH("/posts/:id/unpublish", s.routers.UnpublishPost, auth)
		api.DELETE("/posts/:id", s.routers.DeletePost, auth)
		api.POST("/posts/:id/like", s.routers.LikePost, auth)
		api.POST("/posts/:id/save", s.routers.SavePost, auth)
		api.POST("/posts/:id/comments", s.routers.CreateComment, auth)
		api.POST("/comments/:id/like", s.routers.LikeComment, auth)
		api.DELETE("/comments/:id", s.routers.DeleteComment, auth)
		api.GET("/me/saved", s.routers.SavedPosts, auth)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	optCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("stopping http server", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.opts.Host, s.opts.Port)
}
