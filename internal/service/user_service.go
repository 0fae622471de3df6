package service

import (
	"mime/multipart"
	"strconv"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/domain/policy"
	"socialnotes/internal/infrastructure/aws/storage"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

// searchResultLimit caps how many rows a username search can return.
const searchResultLimit = 25

type UserRepository interface {
	FindAllInIDs(ids []int64) ([]*entity.User, error)
	FindActiveByID(id int64) (*entity.User, error)
	FindByID(id int64) (*entity.User, error)
	FindActiveByEmail(email string) (*entity.User, error)
	SearchActiveByName(query string, excludeID int64, limit int) ([]*entity.User, error)
	ExistsActiveByEmail(email string) (bool, error)
	Save(user *entity.User) error
	SaveBoth(a, b *entity.User) error
	SoftDelete(user *entity.User) error
}

type UserService struct {
	UserRepo UserRepository
	S3       storage.S3Client
	Validate *validator.Validate
	Policy   *policy.UserPolicy
}

func NewUserService(userRepo UserRepository, s3 storage.S3Client, validate *validator.Validate, userPolicy *policy.UserPolicy) *UserService {
	return &UserService{
		UserRepo: userRepo,
		S3:       s3,
		Validate: validate,
		Policy:   userPolicy,
	}
}

func (u *UserService) GetProfile(actor *entity.User, rawID string) (*contract.UserResponse, apierror.ErrorResponse) {
	user, apierr := u.fetchUser(actor, rawID)
	if apierr != nil {
		return nil, apierr
	}

	if user == nil {
		return nil, apierror.NotFoundError
	}
	return toUserResponse(user, actor, u.Policy, u.S3), nil
}

func (u *UserService) UpdateProfile(actor *entity.User, req *contract.UpdateProfileRequest) (*contract.UserResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	dirty := false
	if req.Username != nil {
		actor.Username = *req.Username
		dirty = true
	}
	if req.Bio != nil {
		actor.Bio = *req.Bio
		dirty = true
	}
	if req.Private != nil {
		actor.Private = *req.Private
		dirty = true
	}

	if dirty {
		actor.UpdatedAt = utils.NowUTC()
		if err := u.UserRepo.Save(actor); err != nil {
			log.Errorf("failed to update user %d: %v", actor.ID, err)
			return nil, apierror.InternalServerError
		}
	}
	return toUserResponse(actor, actor, u.Policy, u.S3), nil
}

// UploadAvatar stores the new image before touching the user row and only
// removes the previous object once the row change is persisted, so a failed
// save never leaves the profile pointing at a missing file.
func (u *UserService) UploadAvatar(actor *entity.User, fileHeader *multipart.FileHeader) (*contract.UserResponse, apierror.ErrorResponse) {
	if fileHeader == nil {
		return nil, apierror.MissingImageFileError
	}

	if apierr := checkImageFile(fileHeader, contract.MaxAvatarSizeBytes, contract.ValidAvatarFileTypes); apierr != nil {
		return nil, apierr
	}

	key, apierr := uploadAvatar(u.S3, fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	oldKey := actor.AvatarKey
	actor.AvatarKey = key
	actor.UpdatedAt = utils.NowUTC()
	if err := u.UserRepo.Save(actor); err != nil {
		if derr := u.S3.DeleteFile(key); derr != nil {
			log.Warnf("failed to discard object %s: %v", key, derr)
		}
		log.Errorf("failed to update avatar of user %d: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	if oldKey != "" {
		if err := u.S3.DeleteFile(oldKey); err != nil {
			log.Warnf("failed to delete old avatar %s: %v", oldKey, err)
		}
	}
	return toUserResponse(actor, actor, u.Policy, u.S3), nil
}

// DeleteAccount soft-deletes the actor. The row stays so friends' lists and
// note likers keep resolving, but the account can no longer sign in.
func (u *UserService) DeleteAccount(actor *entity.User) apierror.ErrorResponse {
	actor.RefreshHash = ""
	actor.UpdatedAt = utils.NowUTC()
	if err := u.UserRepo.SoftDelete(actor); err != nil {
		log.Errorf("failed to delete user %d: %v", actor.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (u *UserService) SearchUsers(actor *entity.User, query string) ([]*contract.UserResponse, apierror.ErrorResponse) {
	req := &contract.SearchUsersRequest{Query: query}
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	users, err := u.UserRepo.SearchActiveByName(req.Query, actor.ID, searchResultLimit)
	if err != nil {
		log.Errorf("failed to search users by %q: %v", req.Query, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.UserResponse, 0, len(users))
	for _, user := range users {
		if !u.Policy.CanAppearInSearch(actor, user) {
			continue
		}
		resp = append(resp, toUserResponse(user, actor, u.Policy, u.S3))
	}
	return resp, nil
}

// fetchUser resolves the path param into a real user, honoring the '@me'
// shorthand. Inactive users are still returned; the response builder masks
// them as deleted.
func (u *UserService) fetchUser(requester *entity.User, rawID string) (*entity.User, apierror.ErrorResponse) {
	if rawID == "@me" {
		return requester, nil
	}

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("id", "int64")
	}

	user, err := u.UserRepo.FindByID(userID)
	if err != nil {
		log.Errorf("failed to find user (%s) by id: %v", rawID, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func toUserResponse(user, requester *entity.User, pol *policy.UserPolicy, s3 storage.S3Client) *contract.UserResponse {
	if !user.Active {
		return toDeletedUserResponse(user)
	}

	resp := &contract.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Private:   user.Private,
		CreatedAt: utils.FormatEpoch(user.CreatedAt),
		UpdatedAt: utils.FormatEpoch(user.UpdatedAt),
	}

	if pol.CanSeeFullProfile(requester, user) {
		resp.Bio = user.Bio
		if user.AvatarKey != "" {
			resp.AvatarURL = s3.PublicURL(user.AvatarKey)
		}
	}

	if user.ID == requester.ID {
		resp.Email = user.Email
		resp.Provider = string(user.Provider)
	}
	return resp
}

func toDeletedUserResponse(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:        user.ID,
		Username:  "Deleted User",
		CreatedAt: utils.FormatEpoch(0),
		UpdatedAt: utils.FormatEpoch(0),
	}
}
