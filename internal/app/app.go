package app

import (
	"context"
	"log/slog"

	httpapp "quill/internal/app/http"
	"quill/internal/config"
	"quill/internal/lib/logger/sl"
	"quill/internal/query"
	"quill/internal/repository"
	"quill/internal/repository/memory"
	blog "quill/internal/services/blog_service"
	comment "quill/internal/services/comment_service"
	engagement "quill/internal/services/engagement_service"
	"quill/internal/storage/postgresql"
	redisapp "quill/internal/storage/redis"
	httprouters "quill/internal/transport/http"
)

// Stores is the set of repositories the services run on.
type Stores struct {
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Saved    repository.SavedRepository
	Checks   []httprouters.HealthCheck
	Close    func()
}

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	views      *engagement.ViewRecorder
	stores     Stores
}

// New connects the configured storage and wires the application. It panics
// when storage is unreachable, like the other Must* startup helpers.
func New(log *slog.Logger, cfg *config.Config) *App {
	stores, err := OpenStores(context.Background(), log, cfg)
	if err != nil {
		panic(err)
	}

	return NewWithStores(log, cfg, stores)
}

func OpenStores(ctx context.Context, log *slog.Logger, cfg *config.Config) (Stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")

		db := memory.New()
		return Stores{
			Posts:    db.Posts(),
			Comments: db.Comments(),
			Saved:    db.Saved(),
			Close:    func() {},
		}, nil
	}

	pool, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return Stores{}, err
	}
	if err := postgresql.Migrate(ctx, pool); err != nil {
		pool.Close()
		return Stores{}, err
	}

	client := redisapp.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := client.HealthCheck(ctx); err != nil {
		log.Warn("redis is not reachable yet", sl.Err(err))
	}

	repo := repository.NewRepository(pool, client)

	return Stores{
		Posts:    repo.Posts,
		Comments: repo.Comments,
		Saved:    repo.Saved,
		Checks: []httprouters.HealthCheck{
			{Name: "postgres", Ping: pool.Ping},
			{Name: "redis", Ping: client.HealthCheck},
		},
		Close: func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis", sl.Err(err))
			}
			repo.Close()
		},
	}, nil
}

func NewWithStores(log *slog.Logger, cfg *config.Config, stores Stores) *App {
	builder := query.NewBuilder(nil)
	paginator := query.NewPaginator(cfg.Listing.DefaultLimit, cfg.Listing.MaxLimit)

	views := engagement.NewViewRecorder(log, stores.Posts, cfg.Views.Workers, cfg.Views.QueueSize, cfg.Views.Timeout)

	engagementService := engagement.NewEngagementService(log, stores.Posts, stores.Saved)
	commentService := comment.NewCommentService(log, stores.Posts, stores.Comments)
	blogService := blog.NewBlogService(
		log,
		stores.Posts,
		stores.Saved,
		commentService,
		engagementService,
		views,
		builder,
		paginator,
		cfg.Listing.RelatedLimit,
	)

	routers := httprouters.NewRouter(log, blogService, engagementService, commentService, stores.Checks...)

	server := httpapp.New(log, httpapp.Options{
		Host:            cfg.HTTP.Host,
		Port:            cfg.HTTP.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		JWTSecret:       cfg.Auth.JWTSecret,
		SessionSecret:   cfg.Auth.SessionSecret,
	}, routers)
	server.BuildRouters()

	return &App{
		log:        log,
		HTTPServer: server,
		views:      views,
		stores:     stores,
	}
}

// Stop shuts the HTTP server down, then drains pending view increments
// before the stores are closed.
func (a *App) Stop() {
	const op = "app.Stop"

	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("failed to stop http server", slog.String("op", op), sl.Err(err))
	}

	a.views.Close()

	if a.stores.Close != nil {
		a.stores.Close()
	}
}
