package service

import (
	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/domain/policy"
	"socialnotes/internal/infrastructure/aws/storage"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

// FriendService manages the relationship lists stored on the user rows.
// Every mutation writes both sides in one transaction, otherwise the
// symmetry of the friends lists could not be trusted.
type FriendService struct {
	UserRepo UserRepository
	S3       storage.S3Client
	Policy   *policy.UserPolicy
}

func NewFriendService(userRepo UserRepository, s3 storage.S3Client, userPolicy *policy.UserPolicy) *FriendService {
	return &FriendService{
		UserRepo: userRepo,
		S3:       s3,
		Policy:   userPolicy,
	}
}

func (f *FriendService) GetFriends(actor *entity.User) ([]*contract.UserResponse, apierror.ErrorResponse) {
	return f.hydrate(actor, actor.Friends)
}

func (f *FriendService) GetRequests(actor *entity.User) (*contract.FriendRequestsResponse, apierror.ErrorResponse) {
	incoming, apierr := f.hydrate(actor, actor.Incoming)
	if apierr != nil {
		return nil, apierr
	}

	outgoing, apierr := f.hydrate(actor, actor.Outgoing)
	if apierr != nil {
		return nil, apierr
	}

	return &contract.FriendRequestsResponse{
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

func (f *FriendService) SendRequest(actor *entity.User, targetID int64) apierror.ErrorResponse {
	if targetID == actor.ID {
		return apierror.SelfFriendTargetError
	}

	target, err := f.UserRepo.FindActiveByID(targetID)
	if err != nil {
		log.Errorf("failed to fetch user %d: %v", targetID, err)
		return apierror.InternalServerError
	}

	if target == nil {
		return apierror.NotFoundError
	}

	if actor.IsFriendsWith(targetID) {
		return apierror.AlreadyFriendsError
	}

	if actor.Outgoing.Contains(targetID) {
		return apierror.RequestAlreadySentError
	}

	if actor.Incoming.Contains(targetID) {
		return apierror.CounterRequestError
	}

	actor.Outgoing = append(actor.Outgoing, targetID)
	target.Incoming = append(target.Incoming, actor.ID)
	return f.saveBoth(actor, target)
}

func (f *FriendService) AcceptRequest(actor *entity.User, requesterID int64) apierror.ErrorResponse {
	requester, apierr := f.fetchAny(requesterID)
	if apierr != nil {
		return apierr
	}

	if !actor.Incoming.Contains(requesterID) {
		return apierror.RequestNotFoundError
	}

	// The sender deleted their account after asking. Nothing to befriend,
	// just drop the dangling entry.
	if !requester.Active {
		actor.Incoming = actor.Incoming.Without(requesterID)
		requester.Outgoing = requester.Outgoing.Without(actor.ID)
		if serr := f.saveBoth(actor, requester); serr != nil {
			return serr
		}
		return apierror.NotFoundError
	}

	actor.Incoming = actor.Incoming.Without(requesterID)
	requester.Outgoing = requester.Outgoing.Without(actor.ID)
	actor.Friends = append(actor.Friends, requesterID)
	requester.Friends = append(requester.Friends, actor.ID)
	return f.saveBoth(actor, requester)
}

func (f *FriendService) RejectRequest(actor *entity.User, requesterID int64) apierror.ErrorResponse {
	requester, apierr := f.fetchAny(requesterID)
	if apierr != nil {
		return apierr
	}

	if !actor.Incoming.Contains(requesterID) {
		return apierror.RequestNotFoundError
	}

	actor.Incoming = actor.Incoming.Without(requesterID)
	requester.Outgoing = requester.Outgoing.Without(actor.ID)
	return f.saveBoth(actor, requester)
}

func (f *FriendService) CancelRequest(actor *entity.User, targetID int64) apierror.ErrorResponse {
	target, apierr := f.fetchAny(targetID)
	if apierr != nil {
		return apierr
	}

	if !actor.Outgoing.Contains(targetID) {
		return apierror.RequestNotFoundError
	}

	actor.Outgoing = actor.Outgoing.Without(targetID)
	target.Incoming = target.Incoming.Without(actor.ID)
	return f.saveBoth(actor, target)
}

func (f *FriendService) RemoveFriend(actor *entity.User, targetID int64) apierror.ErrorResponse {
	target, apierr := f.fetchAny(targetID)
	if apierr != nil {
		return apierr
	}

	if !actor.IsFriendsWith(targetID) {
		return apierror.NotFriendsError
	}

	actor.Friends = actor.Friends.Without(targetID)
	target.Friends = target.Friends.Without(actor.ID)
	return f.saveBoth(actor, target)
}

// fetchAny also resolves inactive users. Relationship cleanup must keep
// working after the other side deleted their account.
func (f *FriendService) fetchAny(userID int64) (*entity.User, apierror.ErrorResponse) {
	user, err := f.UserRepo.FindByID(userID)
	if err != nil {
		log.Errorf("failed to fetch user %d: %v", userID, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}
	return user, nil
}

func (f *FriendService) saveBoth(a, b *entity.User) apierror.ErrorResponse {
	now := utils.NowUTC()
	a.UpdatedAt = now
	b.UpdatedAt = now
	if err := f.UserRepo.SaveBoth(a, b); err != nil {
		log.Errorf("failed to save users %d and %d: %v", a.ID, b.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (f *FriendService) hydrate(actor *entity.User, ids entity.IDList) ([]*contract.UserResponse, apierror.ErrorResponse) {
	users, err := f.UserRepo.FindAllInIDs(ids)
	if err != nil {
		log.Errorf("failed to fetch users for %d: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.UserResponse, len(users))
	for i, user := range users {
		resp[i] = toUserResponse(user, actor, f.Policy, f.S3)
	}
	return resp, nil
}
