package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type NoteService interface {
	ListNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(ctx context.Context, actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(ctx context.Context, actor *entity.User, id string) apierror.ErrorResponse
	ResolveImageURL(ctx context.Context, actor *entity.User, id string) (*contract.ImageURLResponse, apierror.ErrorResponse)
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

func (n *DefaultNoteRoute) GetNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.ListNotes(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

// CreateNote accepts either a JSON body (no file) or a multipart form with an
// optional "image" file.
func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) && !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return c.JSON(apierror.InvalidMediaTypeError.Code(), apierror.InvalidMediaTypeError)
	}

	req, apierr := bindCreateNote(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	note, apierr := n.NoteService.CreateNote(c.Request().Context(), user, req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, note)
}

func (n *DefaultNoteRoute) DeleteNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	if apierr := n.NoteService.DeleteNote(c.Request().Context(), user, c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (n *DefaultNoteRoute) GetImageURL(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	resp, apierr := n.NoteService.ResolveImageURL(c.Request().Context(), user, c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

// bindCreateNote reads name, description and the optional "image" file of a
// note form. A missing file is not an error.
func bindCreateNote(c echo.Context) (*contract.CreateNoteRequest, apierror.ErrorResponse) {
	var req contract.CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return nil, apierror.MalformedBodyError
	}

	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return &req, nil
	}

	file, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, apierror.MalformedBodyError
	default:
		req.File = file
	}
	return &req, nil
}
