package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-gateway/internal/core/ports"
)

// NoteHandler serves the owner-scoped notes API. Every route requires the
// Authenticate middleware.
type NoteHandler struct {
	service ports.NoteService
}

func NewNoteHandler(service ports.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

// Create handles POST /notes.
//
// @Summary      Create a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createNoteRequest  true  "Note"
// @Success      201   {object}  noteResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /notes [post]
func (h *NoteHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	note, err := h.service.Create(c.Request().Context(), user.ID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toNoteResponse(note))
}

// List handles GET /notes?search=&skip=&limit=.
//
// @Summary      List notes
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Case-insensitive text filter"
// @Param        skip    query     int     false  "Offset"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {array}   noteResponse
// @Failure      401     {object}  errorResponse
// @Router       /notes [get]
func (h *NoteHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var q listNotesQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notes, err := h.service.List(c.Request().Context(), toNoteFilter(user.ID, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNoteResponses(notes))
}

// Get handles GET /notes/:id.
//
// @Summary      Get a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Note ID"
// @Success      200  {object}  noteResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /notes/{id} [get]
func (h *NoteHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	note, err := h.service.Get(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNoteResponse(note))
}

// Update handles PUT /notes/:id.
//
// @Summary      Update a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Note ID"
// @Param        body  body      updateNoteRequest  true  "Fields to change"
// @Success      200   {object}  noteResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /notes/{id} [put]
func (h *NoteHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	note, err := h.service.Update(c.Request().Context(), user.ID, c.Param("id"), toUpdateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNoteResponse(note))
}

// Delete handles DELETE /notes/:id.
//
// @Summary      Delete a note
// @Tags         notes
// @Security     BearerAuth
// @Param        id   path  string  true  "Note ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /notes/{id} [delete]
func (h *NoteHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
