package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type UserService interface {
	GetProfile(actor *entity.User, rawID string) (*contract.UserResponse, apierror.ErrorResponse)
	UpdateProfile(actor *entity.User, req *contract.UpdateProfileRequest) (*contract.UserResponse, apierror.ErrorResponse)
	UploadAvatar(actor *entity.User, fileHeader *multipart.FileHeader) (*contract.UserResponse, apierror.ErrorResponse)
	DeleteAccount(actor *entity.User) apierror.ErrorResponse
	SearchUsers(actor *entity.User, query string) ([]*contract.UserResponse, apierror.ErrorResponse)
}

type DefaultUserRoute struct {
	UserService UserService
}

func NewUserDefault(userService UserService) *DefaultUserRoute {
	return &DefaultUserRoute{UserService: userService}
}

func (u *DefaultUserRoute) GetUser(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	targetID := strings.TrimSpace(c.Param("id"))
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	resp, apierr := u.UserService.GetProfile(user, targetID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUserRoute) UpdateSelf(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := u.UserService.UpdateProfile(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUserRoute) UploadAvatar(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MissingImageFileError)
	}

	resp, apierr := u.UserService.UploadAvatar(user, fileHeader)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUserRoute) DeleteSelf(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	apierr := u.UserService.DeleteAccount(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (u *DefaultUserRoute) SearchUsers(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	users, apierr := u.UserService.SearchUsers(user, c.QueryParam("q"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"users": users}
	return c.JSON(http.StatusOK, &resp)
}
