package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/handler"
	"github.com/iliyamo/cinelog/internal/middleware"
)

// RegisterMember registers the caller-scoped collections under /v1/me.  All
// routes require a valid JWT.
func RegisterMember(e *echo.Echo, r *handler.ReviewHandler, w *handler.WatchlistHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/me", middleware.JWTAuth(jwtSecret))
	g.GET("/watchlist", w.List)
	g.DELETE("/watchlist/:movieId", w.Remove, limit)
	g.GET("/reviews", r.ListMine)
}
