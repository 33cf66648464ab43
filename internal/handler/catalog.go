package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/service"
)

// GenreHandler serves the genre endpoints.
type GenreHandler struct {
	Svc *service.GenreService
	Log *zap.Logger
}

func NewGenreHandler(svc *service.GenreService, log *zap.Logger) *GenreHandler {
	return &GenreHandler{Svc: svc, Log: log}
}

// List: GET /genres/
func (h *GenreHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	gs, err := h.Svc.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toGenresJSON(gs))
}

// Movies: GET /genre/:id/ lists the movies tagged with the genre.
func (h *GenreHandler) Movies(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	ms, err := h.Svc.Movies(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toMoviesJSON(ms))
}

// Create: POST /create-genre/
func (h *GenreHandler) Create(c echo.Context) error {
	var in service.GenreInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	g, err := h.Svc.Create(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toGenreJSON(g))
}

// Update: PUT /update-genre/:id/
func (h *GenreHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	var in service.GenreInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	g, err := h.Svc.Update(ctx, id, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toGenreJSON(g))
}

// Delete: DELETE /delete-genre/:id/
func (h *GenreHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Svc.Delete(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"genre": "deleted"})
}

// MovieHandler serves the movie endpoints.
type MovieHandler struct {
	Svc *service.MovieService
	Log *zap.Logger
}

func NewMovieHandler(svc *service.MovieService, log *zap.Logger) *MovieHandler {
	return &MovieHandler{Svc: svc, Log: log}
}

// List: GET /
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	ms, err := h.Svc.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toMoviesJSON(ms))
}

// Get: GET /:id/
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Svc.Get(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toMovieJSON(m))
}

// Create: POST /create-movie/
func (h *MovieHandler) Create(c echo.Context) error {
	var in service.MovieInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Svc.Create(ctx, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toMovieJSON(m))
}

// Update: PUT|PATCH /update-movie/:id/.  Both verbs are partial.
func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	var in service.MoviePatchInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	m, err := h.Svc.Update(ctx, id, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toMovieJSON(m))
}

// Delete: DELETE /delete-movie/:id/
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Svc.Delete(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReviewHandler serves the review endpoints.  All of them need a bearer
// token; ownership is checked by the service.
type ReviewHandler struct {
	Svc *service.ReviewService
	Log *zap.Logger
}

func NewReviewHandler(svc *service.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{Svc: svc, Log: log}
}

// Create: POST /create-review/:movie_id/
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	movieID, ok := parseID(c, "movie_id")
	if !ok {
		return notFound(c)
	}
	var in service.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rv, err := h.Svc.Create(ctx, uid, movieID, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toReviewJSON(rv))
}

// Update: PUT|PATCH /update-review/:id/
func (h *ReviewHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	var in service.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rv, err := h.Svc.Update(ctx, uid, id, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toReviewJSON(rv))
}

// Delete: DELETE /delete-review/:id/
func (h *ReviewHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c, "id")
	if !ok {
		return notFound(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Svc.Delete(ctx, uid, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
