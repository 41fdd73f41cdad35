package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/news-api/internal/core/ports"
)

// NewsHandler handles HTTP requests for news articles.
type NewsHandler struct {
	service ports.NewsService
	images  imageURLer
}

func NewNewsHandler(service ports.NewsService, images imageURLer) *NewsHandler {
	return &NewsHandler{service: service, images: images}
}

// List handles GET /api/news.
//
// @Summary      List news
// @Tags         news
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 10, max 100)"
// @Success      200    {object}  listNewsResponse
// @Failure      500    {object}  errorResponse
// @Router       /api/news [get]
func (h *NewsHandler) List(c echo.Context) error {
	// Unparsable values fall back to the defaults.
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.List(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toListResponse(result, h.images))
}

// Create handles POST /api/news.
//
// @Summary      Publish a news article
// @Tags         news
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title    formData  string  true  "Title"
// @Param        content  formData  string  true  "Content"
// @Param        image    formData  file    true  "Cover image"
// @Success      200      {object}  createNewsResponse
// @Failure      400      {object}  map[string]any
// @Failure      401      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /api/news [post]
func (h *NewsHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req ports.NewsInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	img, err := formImage(c, "image")
	if err != nil {
		return err
	}

	news, err := h.service.Create(c.Request().Context(), claims.ID, req, img)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createNewsResponse{Message: "News created successfully!", News: news})
}

// Show handles GET /api/news/:id. A missing article renders {"news": null}.
//
// @Summary      Get a news article
// @Tags         news
// @Produce      json
// @Param        id   path      int  true  "News id"
// @Success      200  {object}  showNewsResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/news/{id} [get]
func (h *NewsHandler) Show(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	news, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	var resp showNewsResponse
	if news != nil {
		n := toNewsResponse(*news, h.images)
		resp.News = &n
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PUT /api/news/:id.
//
// @Summary      Update a news article
// @Tags         news
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int     true   "News id"
// @Param        title    formData  string  true   "Title"
// @Param        content  formData  string  true   "Content"
// @Param        image    formData  file    false  "Replacement image"
// @Success      200      {object}  messageResponse
// @Failure      400      {object}  map[string]any
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /api/news/{id} [put]
func (h *NewsHandler) Update(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req ports.NewsInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	img, err := formImage(c, "image")
	if err != nil {
		return err
	}

	if err := h.service.Update(c.Request().Context(), claims.ID, id, req, img); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "News updated successfully!"})
}

// Destroy handles DELETE /api/news/:id.
//
// @Summary      Delete a news article
// @Tags         news
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "News id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/news/{id} [delete]
func (h *NewsHandler) Destroy(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), claims.ID, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "News deleted successfully!"})
}
