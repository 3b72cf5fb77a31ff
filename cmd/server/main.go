package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinelog/internal/catalog"
	"github.com/iliyamo/cinelog/internal/config"
	"github.com/iliyamo/cinelog/internal/database"
	"github.com/iliyamo/cinelog/internal/handler"
	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/middleware"
	"github.com/iliyamo/cinelog/internal/repository"
	"github.com/iliyamo/cinelog/internal/router"
	"github.com/iliyamo/cinelog/internal/service"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logging.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if cfg.DBMigrate {
		if _, err := database.Migrate(db, cfg.DBSeed); err != nil {
			logging.Fatal().Err(err).Msg("migrations failed")
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logging.Warn().Msg("redis unavailable, cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		pub := service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue)
		defer pub.Close()
		events = pub
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	reviews := repository.NewReviewRepo(db)
	watchlist := repository.NewWatchlistRepo(db)
	external := catalog.New(cfg.Catalog)

	accounts := service.NewAccountService(users, tokens, service.AccountConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})
	movieCatalog := service.NewMovieCatalog(movies, external, events)
	importer := service.NewImportResolver(movies, external, events)
	ledger := service.NewReviewLedger(reviews, movies, events)
	tracker := service.NewWatchlistTracker(watchlist, movies, events)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: middleware.RequestIDGenerator}))
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLog())

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	reviewH := handler.NewReviewHandler(ledger)
	watchH := handler.NewWatchlistHandler(tracker)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts), cfg.JWTSecret)
	router.RegisterMovies(e, handler.NewMovieHandler(movieCatalog, importer), reviewH, watchH, cfg.JWTSecret, cache, limit)
	router.RegisterMember(e, reviewH, watchH, cfg.JWTSecret, limit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown")
	}
	logging.Info().Msg("server stopped")
}
