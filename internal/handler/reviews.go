package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/model"
)

// ReviewService is implemented by *service.ReviewLedger.
type ReviewService interface {
	Submit(ctx context.Context, in model.ReviewInput) (model.Review, error)
	Delete(ctx context.Context, reviewID, userID uint64) error
	ListForMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Review, error)
}

// ReviewHandler serves the review ledger.
type ReviewHandler struct {
	Reviews ReviewService
}

func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

type reviewReq struct {
	Rating     *int   `json:"rating" validate:"required"`
	ReviewText string `json:"reviewText" validate:"max=5000"`
	WatchedOn  string `json:"watchedOn"`
}

// ListForMovie: GET /v1/movies/:id/reviews
func (h *ReviewHandler) ListForMovie(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	reviews, err := h.Reviews.ListForMovie(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// Submit: POST /v1/movies/:id/reviews.  Resubmitting replaces the caller's
// earlier review of the movie.
func (h *ReviewHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	movieID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req reviewReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := model.ReviewInput{UserID: uid, MovieID: movieID, Rating: *req.Rating, ReviewText: strings.TrimSpace(req.ReviewText)}
	if watched := strings.TrimSpace(req.WatchedOn); watched != "" {
		d, err := time.Parse(model.DateLayout, watched)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "watchedOn must match 2006-01-02"})
		}
		in.WatchedOn = &d
	}

	rv, err := h.Reviews.Submit(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

// Delete: DELETE /v1/reviews/:id
func (h *ReviewHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	if err := h.Reviews.Delete(c.Request().Context(), id, uid); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ListMine: GET /v1/me/reviews
func (h *ReviewHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reviews, err := h.Reviews.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}
