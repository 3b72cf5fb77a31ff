package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/handler"
	"github.com/iliyamo/cinelog/internal/middleware"
)

// RegisterMovies registers the catalog, import, review and external search
// endpoints.  Reads are public.  Writes require a JWT and pass the rate
// limiter.  Only external search is cached; anything carrying rating
// aggregates must always be read fresh.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler, r *handler.ReviewHandler, w *handler.WatchlistHandler,
	jwtSecret string, cache, limit echo.MiddlewareFunc) {
	e.GET("/v1/movies", m.List)
	e.GET("/v1/movies/:id", m.Get)
	e.GET("/v1/movies/:id/reviews", r.ListForMovie)
	e.GET("/v1/external/movies/search", m.SearchExternal, cache)

	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	g.POST("/movies", m.Create, limit)
	g.POST("/movies/import", m.Import, limit)
	g.POST("/movies/:id/reviews", r.Submit, limit)
	g.DELETE("/reviews/:id", r.Delete, limit)
	g.POST("/movies/:id/watchlist", w.Set, limit)
}
