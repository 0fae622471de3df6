package handler

import (
	"net/http"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Register(req *contract.RegisterRequest) (*contract.TokenPairResponse, apierror.ErrorResponse)
	Login(req *contract.LoginRequest) (*contract.TokenPairResponse, apierror.ErrorResponse)
	Refresh(req *contract.RefreshRequest) (*contract.TokenPairResponse, apierror.ErrorResponse)
	Logout(actor *entity.User) apierror.ErrorResponse
	GoogleLogin(req *contract.GoogleLoginRequest) (*contract.TokenPairResponse, apierror.ErrorResponse)
}

type DefaultAuthRoute struct {
	AuthService AuthService
}

func NewAuthDefault(authService AuthService) *DefaultAuthRoute {
	return &DefaultAuthRoute{AuthService: authService}
}

func (a *DefaultAuthRoute) Register(c echo.Context) error {
	var req contract.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.Register(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (a *DefaultAuthRoute) Login(c echo.Context) error {
	var req contract.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.Login(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAuthRoute) Refresh(c echo.Context) error {
	var req contract.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.Refresh(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAuthRoute) Logout(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	apierr := a.AuthService.Logout(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (a *DefaultAuthRoute) GoogleLogin(c echo.Context) error {
	var req contract.GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.GoogleLogin(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
