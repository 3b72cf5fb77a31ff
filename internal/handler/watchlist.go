package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/model"
)

// WatchlistService is implemented by *service.WatchlistTracker.
type WatchlistService interface {
	SetStatus(ctx context.Context, userID, movieID uint64, status model.WatchStatus) (model.WatchlistStatus, error)
	Remove(ctx context.Context, userID, movieID uint64) error
	List(ctx context.Context, userID uint64) ([]model.WatchlistItem, error)
}

// WatchlistHandler serves the caller's watchlist.
type WatchlistHandler struct {
	Watchlist WatchlistService
}

func NewWatchlistHandler(w WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{Watchlist: w}
}

type watchlistReq struct {
	Status string `json:"status" validate:"omitempty,oneof=plan_to_watch watching completed"`
}

// Set: POST /v1/movies/:id/watchlist.  Status defaults to plan_to_watch.
func (h *WatchlistHandler) Set(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	movieID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req watchlistReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	status := model.WatchStatus(req.Status)
	if status == "" {
		status = model.StatusPlanToWatch
	}

	res, err := h.Watchlist.SetStatus(c.Request().Context(), uid, movieID, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "movieId": res.MovieID, "status": res.Status})
}

// List: GET /v1/me/watchlist
func (h *WatchlistHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	items, err := h.Watchlist.List(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Remove: DELETE /v1/me/watchlist/:movieId
func (h *WatchlistHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	movieID, ok := parseID(c, "movieId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	if err := h.Watchlist.Remove(c.Request().Context(), uid, movieID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
