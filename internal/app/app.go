package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/internal/ai"
	"github.com/khrees2412/coldreach/internal/cache"
	"github.com/khrees2412/coldreach/internal/config"
	"github.com/khrees2412/coldreach/internal/database"
	"github.com/khrees2412/coldreach/internal/embedding"
	"github.com/khrees2412/coldreach/internal/index"
	"github.com/khrees2412/coldreach/internal/logger"
	"github.com/khrees2412/coldreach/internal/outreach"
	"github.com/khrees2412/coldreach/internal/portfolio"
	"github.com/khrees2412/coldreach/internal/scraper"
	"github.com/khrees2412/coldreach/internal/tracker"
	"github.com/khrees2412/coldreach/pkg/models"
)

// Options control how NewApp builds the container
type Options struct {
	// ConfigDir overrides ~/.coldreach
	ConfigDir string
	JSONLogs  bool
	Debug     bool
	// Logger replaces the logger built from JSONLogs/Debug
	Logger *zap.Logger
}

// App is the dependency container for the CLI application
type App struct {
	DB         *sql.DB
	Config     *config.Config
	Logger     *zap.Logger
	HTTPClient *http.Client

	Users     *database.UserRepository
	Drafts    *database.DraftRepository
	Index     *index.SQLite
	Portfolio *portfolio.Store
	Tracker   *tracker.Service
	Cache     cache.Store

	validate *validator.Validate
	closers  []func() error

	orchOnce     sync.Once
	orchestrator *outreach.Orchestrator
	orchErr      error
}

// NewApp initializes and returns a new App instance. Language model clients
// are built on first use so commands that never call a model work without keys.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	cfg, err := loadConfig(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log, err = logger.New(opts.JSONLogs, opts.Debug)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	db, err := database.Open(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{
		DB:         db,
		Config:     cfg,
		Logger:     log,
		HTTPClient: &http.Client{Timeout: cfg.FetchTimeout},
		Users:      database.NewUserRepository(db),
		Drafts:     database.NewDraftRepository(db),
		validate:   validator.New(),
		closers:    []func() error{db.Close},
	}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Index = index.NewSQLite(db, embedder)
	a.Portfolio = portfolio.NewStore(a.Index, log, portfolio.WithCandidatePool(cfg.CandidatePool))
	a.Tracker = tracker.NewService(a.Drafts, log)
	a.Cache = cache.NewTiered(a.newCacheStore(ctx), cfg.CacheTTL)

	return a, nil
}

func loadConfig(dir string) (*config.Config, error) {
	if dir == "" {
		return config.Initialize()
	}
	return config.Load(dir)
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "", "local":
		return embedding.NewLocal(0), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, errors.New("gemini embeddings need an API key. Run: coldreach config set --key gemini_key --value YOUR_KEY")
		}
		return embedding.NewGemini(ctx, cfg.GeminiKey, cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", ErrInvalidArgument, cfg.EmbeddingProvider)
	}
}

// newCacheStore returns the configured shared cache, falling back to sqlite
// when redis is unreachable.
func (a *App) newCacheStore(ctx context.Context) cache.Store {
	if a.Config.CacheBackend == "redis" {
		rdb, err := cache.NewRedis(ctx, a.Config.RedisURL)
		if err == nil {
			a.closers = append(a.closers, rdb.Close)
			return rdb
		}
		a.Logger.Warn("redis cache unavailable, using sqlite", zap.Error(err))
	}

	store := cache.NewSQLite(a.DB)
	if n, err := store.Purge(ctx); err != nil {
		a.Logger.Warn("failed to purge expired cache entries", zap.Error(err))
	} else if n > 0 {
		a.Logger.Debug("purged expired cache entries", zap.Int64("count", n))
	}
	return store
}

// Orchestrator returns the outreach pipeline, building the language model
// client on first call.
func (a *App) Orchestrator(ctx context.Context) (*outreach.Orchestrator, error) {
	a.orchOnce.Do(func() {
		gen, err := ai.NewGenerator(ctx, a.Config)
		if err != nil {
			a.orchErr = err
			return
		}

		var opts []scraper.Option
		if a.Config.RenderPages {
			opts = append(opts, scraper.WithBrowserFallback(a.Config.FetchTimeout))
		}

		a.orchestrator = outreach.NewOrchestrator(
			scraper.NewFetcher(a.HTTPClient, a.Logger, opts...),
			ai.NewExtractor(gen, a.Config.AIProvider, a.Logger),
			a.Portfolio,
			ai.NewComposer(gen, a.Config.AIProvider, a.Logger),
			a.Logger,
			outreach.WithCache(a.Cache, a.Config.CacheTTL),
			outreach.WithTopK(a.Config.TopK),
		)
	})
	return a.orchestrator, a.orchErr
}

// ResolveUser picks the sender profile: the email given on the command line,
// then the configured active user, then the only profile if exactly one exists.
func (a *App) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		email = a.Config.ActiveUser
	}
	if email != "" {
		user, err := a.Users.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("%w for %s", ErrNoProfile, email)
		}
		return user, nil
	}

	users, err := a.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, ErrNoProfile
	case 1:
		return users[0], nil
	default:
		return nil, fmt.Errorf("%w: %d profiles exist, pick one with --user or 'coldreach profile use'", ErrInvalidArgument, len(users))
	}
}

// ProfileSync summarises the index changes made when a profile was saved.
type ProfileSync struct {
	portfolio.SyncReport
	Pruned int
}

// SaveProfile validates and stores user, then brings the portfolio index in
// line with the declared portfolio.
func (a *App) SaveProfile(ctx context.Context, user *models.User) (ProfileSync, error) {
	if err := a.validate.Struct(user); err != nil {
		return ProfileSync{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if user.ID == "" {
		if err := a.Users.CreateUser(ctx, user); err != nil {
			return ProfileSync{}, fmt.Errorf("failed to create profile: %w", err)
		}
	} else if err := a.Users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ProfileSync{}, ErrNotFound
		}
		return ProfileSync{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return a.SyncProfile(ctx, user)
}

// SyncProfile indexes user's declared portfolio and removes entries no
// longer declared.
func (a *App) SyncProfile(ctx context.Context, user *models.User) (ProfileSync, error) {
	report, err := a.Portfolio.SyncPortfolio(ctx, user.ID, user.Portfolio)
	if err != nil {
		return ProfileSync{}, err
	}

	pruned, err := a.Portfolio.Prune(ctx, user.ID, user.Portfolio)
	if err != nil {
		return ProfileSync{SyncReport: report}, err
	}

	a.Logger.Debug("profile synced",
		zap.String(logger.FieldOwner, user.ID),
		zap.Int("inserted", report.Inserted),
		zap.Int("existing", report.Existing),
		zap.Int("failed", report.Failed),
		zap.Int("pruned", pruned))

	return ProfileSync{SyncReport: report, Pruned: pruned}, nil
}

// Close closes all resources
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
