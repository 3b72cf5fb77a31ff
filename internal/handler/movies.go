package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/service"
)

// MovieService is implemented by *service.MovieCatalog.
type MovieService interface {
	List(ctx context.Context, search string) ([]model.Movie, error)
	Get(ctx context.Context, id uint64) (model.Movie, error)
	Add(ctx context.Context, userID uint64, in service.AddMovieInput) (model.Movie, error)
	SearchExternal(ctx context.Context, query string) (service.SearchResult, error)
}

// Importer is implemented by *service.ImportResolver.
type Importer interface {
	Import(ctx context.Context, userID uint64, externalID string) (model.Movie, bool, error)
}

// MovieHandler serves the local catalog, imports and external search.
type MovieHandler struct {
	Movies   MovieService
	Importer Importer
}

func NewMovieHandler(movies MovieService, importer Importer) *MovieHandler {
	return &MovieHandler{Movies: movies, Importer: importer}
}

type addMovieReq struct {
	Title       string `json:"title" validate:"required,max=255"`
	Year        *int   `json:"year"`
	Genre       string `json:"genre" validate:"max=255"`
	Description string `json:"description"`
	PosterURL   string `json:"posterUrl" validate:"omitempty,url,max=1024"`
}

// flexibleID accepts an id sent either as a JSON string or as a number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("externalId must be a string or a number")
	}
	*f = flexibleID(n.String())
	return nil
}

type importReq struct {
	ExternalID flexibleID `json:"externalId" validate:"required"`
}

// List: GET /v1/movies?search=
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// Get: GET /v1/movies/:id
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	m, err := h.Movies.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create: POST /v1/movies
func (h *MovieHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req addMovieReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	m, err := h.Movies.Add(c.Request().Context(), uid, service.AddMovieInput{
		Title:       req.Title,
		Year:        req.Year,
		Genre:       req.Genre,
		Description: req.Description,
		PosterURL:   req.PosterURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Import: POST /v1/movies/import.  201 when the movie was created, 200 when
// it already existed.
func (h *MovieHandler) Import(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req importReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	m, created, err := h.Importer.Import(c.Request().Context(), uid, string(req.ExternalID))
	if err != nil {
		return respondError(c, err)
	}
	if created {
		return c.JSON(http.StatusCreated, m)
	}
	return c.JSON(http.StatusOK, m)
}

// SearchExternal: GET /v1/external/movies/search?q=
func (h *MovieHandler) SearchExternal(c echo.Context) error {
	res, err := h.Movies.SearchExternal(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
