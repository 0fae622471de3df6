package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

// NoteService accepts *entity.User instead of a raw ID. The middleware
// already fetched the actor, so services can check permissions without
// hitting the DB again.
type NoteService interface {
	GetOwnNotes(actor *entity.User, includeArchived bool) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetSharedNotes(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetNote(actor *entity.User, noteID int64) (*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	CreateNoteWithImages(actor *entity.User, req *contract.CreateNoteRequest, files []*multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse)
	UpdateNote(actor *entity.User, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	AddImage(actor *entity.User, noteID int64, fileHeader *multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse)
	RemoveImage(actor *entity.User, noteID, imageID int64) (*contract.NoteResponse, apierror.ErrorResponse)
	TrashNote(actor *entity.User, noteID int64) apierror.ErrorResponse
	GetTrash(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	RestoreNote(actor *entity.User, noteID int64) (*contract.NoteResponse, apierror.ErrorResponse)
	PurgeNote(actor *entity.User, noteID int64) apierror.ErrorResponse
	ToggleLike(actor *entity.User, noteID int64) (*contract.LikeResponse, apierror.ErrorResponse)
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

	includeArchived := c.QueryParam("archived") == "true"
	notes, apierr := n.NoteService.GetOwnNotes(user, includeArchived)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNoteRoute) GetSharedNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.GetSharedNotes(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNoteRoute) GetNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	note, apierr := n.NoteService.GetNote(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) GetTrash(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.GetTrash(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return n.createFromJSON(c)
	}

	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return n.createFromForm(c)
	}

	mediaTypeError := apierror.InvalidMediaTypeError
	return c.JSON(http.StatusUnsupportedMediaType, &mediaTypeError)
}

func (n *DefaultNoteRoute) UpdateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	newNote, apierr := n.NoteService.UpdateNote(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, &newNote)
}

func (n *DefaultNoteRoute) AddImage(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MissingImageFileError)
	}

	note, apierr := n.NoteService.AddImage(user, id, fileHeader)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) RemoveImage(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	imageID, perr := parseIDParam(c, "imageId")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	note, apierr := n.NoteService.RemoveImage(user, id, imageID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) TrashNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	serr := n.NoteService.TrashNote(user, id)
	if serr != nil {
		return c.JSON(serr.Code(), serr)
	}
	return c.NoContent(http.StatusOK)
}

func (n *DefaultNoteRoute) RestoreNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	note, apierr := n.NoteService.RestoreNote(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) PurgeNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	serr := n.NoteService.PurgeNote(user, id)
	if serr != nil {
		return c.JSON(serr.Code(), serr)
	}
	return c.NoContent(http.StatusOK)
}

func (n *DefaultNoteRoute) ToggleLike(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	resp, apierr := n.NoteService.ToggleLike(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (n *DefaultNoteRoute) createFromJSON(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.CreateNote(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, &note)
}

func (n *DefaultNoteRoute) createFromForm(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	jsonPayload := strings.TrimSpace(c.FormValue("json_payload"))
	if jsonPayload == "" {
		return c.JSON(http.StatusBadRequest, apierror.FormJSONRequiredError)
	}

	var req contract.CreateNoteRequest
	if err := json.Unmarshal([]byte(jsonPayload), &req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.CreateNoteWithImages(user, &req, form.File["images"])
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, &note)
}

func parseIDParam(c echo.Context, name string) (int64, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, apierror.NewMissingParamError(name)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError(name, "int64")
	}
	return id, nil
}
