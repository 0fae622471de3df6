package handler

import (
	"net/http"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type FriendService interface {
	GetFriends(actor *entity.User) ([]*contract.UserResponse, apierror.ErrorResponse)
	GetRequests(actor *entity.User) (*contract.FriendRequestsResponse, apierror.ErrorResponse)
	SendRequest(actor *entity.User, targetID int64) apierror.ErrorResponse
	AcceptRequest(actor *entity.User, requesterID int64) apierror.ErrorResponse
	RejectRequest(actor *entity.User, requesterID int64) apierror.ErrorResponse
	CancelRequest(actor *entity.User, targetID int64) apierror.ErrorResponse
	RemoveFriend(actor *entity.User, targetID int64) apierror.ErrorResponse
}

type DefaultFriendRoute struct {
	FriendService FriendService
}

func NewFriendDefault(friendService FriendService) *DefaultFriendRoute {
	return &DefaultFriendRoute{FriendService: friendService}
}

func (f *DefaultFriendRoute) GetFriends(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	friends, apierr := f.FriendService.GetFriends(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"friends": friends}
	return c.JSON(http.StatusOK, &resp)
}

func (f *DefaultFriendRoute) GetRequests(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	resp, apierr := f.FriendService.GetRequests(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (f *DefaultFriendRoute) SendRequest(c echo.Context) error {
	return f.relationAction(c, f.FriendService.SendRequest)
}

func (f *DefaultFriendRoute) AcceptRequest(c echo.Context) error {
	return f.relationAction(c, f.FriendService.AcceptRequest)
}

func (f *DefaultFriendRoute) RejectRequest(c echo.Context) error {
	return f.relationAction(c, f.FriendService.RejectRequest)
}

func (f *DefaultFriendRoute) CancelRequest(c echo.Context) error {
	return f.relationAction(c, f.FriendService.CancelRequest)
}

func (f *DefaultFriendRoute) RemoveFriend(c echo.Context) error {
	return f.relationAction(c, f.FriendService.RemoveFriend)
}

// relationAction is the shared shape of every friendship mutation: resolve
// the actor, parse the target ID, run the operation, answer with no body.
func (f *DefaultFriendRoute) relationAction(c echo.Context, action func(*entity.User, int64) apierror.ErrorResponse) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := parseIDParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := action(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
