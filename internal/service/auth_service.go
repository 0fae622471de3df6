package service

import (
	"strings"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	googleclient "socialnotes/internal/infrastructure/google"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"
	"socialnotes/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	UserRepo UserRepository
	Google   googleclient.TokenVerifier
	Validate *validator.Validate
}

func NewAuthService(userRepo UserRepository, google googleclient.TokenVerifier, validate *validator.Validate) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Google:   google,
		Validate: validate,
	}
}

func (a *AuthService) Register(req *contract.RegisterRequest) (*contract.TokenPairResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	found, err := a.UserRepo.ExistsActiveByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return nil, apierror.InternalServerError
	}

	if found {
		return nil, apierror.UserAlreadyExistsError
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("failed to hash password: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	user := &entity.User{
		ID:           uid.Generate(),
		Email:        req.Email,
		PasswordHash: string(hashed),
		Username:     req.Username,
		Provider:     entity.ProviderLocal,
		Friends:      entity.IDList{},
		Incoming:     entity.IDList{},
		Outgoing:     entity.IDList{},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return a.issueTokens(user)
}

func (a *AuthService) Login(req *contract.LoginRequest) (*contract.TokenPairResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, apierr := a.fetchByEmail(req.Email)
	if apierr != nil {
		return nil, apierr
	}

	// Unknown email and wrong password answer the same, so the endpoint
	// cannot be used to probe which addresses have an account.
	if user == nil {
		return nil, apierror.CredentialsMismatchError
	}

	if user.Suspended {
		return nil, apierror.AccountSuspendedError
	}

	if user.Provider != entity.ProviderLocal {
		return nil, apierror.WrongProviderError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.CredentialsMismatchError
	}
	return a.issueTokens(user)
}

// Refresh rotates the pair: the presented token must hash to the value on
// the user row, and the new refresh token replaces it. A rotated-out token
// is dead even if its expiry is still in the future.
func (a *AuthService) Refresh(req *contract.RefreshRequest) (*contract.TokenPairResponse, apierror.ErrorResponse) {
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	data, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apierror.InvalidRefreshTokenError
	}

	user, err := a.UserRepo.FindActiveByID(data.UserID)
	if err != nil {
		log.Errorf("failed to fetch user %d: %v", data.UserID, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.InvalidRefreshTokenError
	}

	if user.Suspended {
		return nil, apierror.AccountSuspendedError
	}

	if user.RefreshHash == "" || user.RefreshHash != utils.HashToken(req.RefreshToken) {
		return nil, apierror.InvalidRefreshTokenError
	}
	return a.issueTokens(user)
}

// Logout drops the stored refresh hash. The access token stays valid until
// it expires, which is at most a few minutes.
func (a *AuthService) Logout(actor *entity.User) apierror.ErrorResponse {
	actor.RefreshHash = ""
	actor.UpdatedAt = utils.NowUTC()
	if err := a.UserRepo.Save(actor); err != nil {
		log.Errorf("failed to log out user %d: %v", actor.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

// GoogleLogin signs in with a Google ID token, creating the account on first
// contact. An existing account with the same email is signed into rather
// than duplicated.
func (a *AuthService) GoogleLogin(req *contract.GoogleLoginRequest) (*contract.TokenPairResponse, apierror.ErrorResponse) {
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	identity, err := a.Google.Verify(req.IDToken)
	if err != nil {
		log.Warnf("rejected google token: %v", err)
		return nil, apierror.ExternalTokenInvalidError
	}

	if !identity.Verified {
		return nil, apierror.ExternalTokenInvalidError
	}

	user, apierr := a.fetchByEmail(identity.Email)
	if apierr != nil {
		return nil, apierr
	}

	if user == nil {
		now := utils.NowUTC()
		user = &entity.User{
			ID:        uid.Generate(),
			Email:     identity.Email,
			Username:  usernameFromIdentity(identity),
			Provider:  entity.ProviderGoogle,
			Friends:   entity.IDList{},
			Incoming:  entity.IDList{},
			Outgoing:  entity.IDList{},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if user.Suspended {
		return nil, apierror.AccountSuspendedError
	}
	return a.issueTokens(user)
}

func (a *AuthService) fetchByEmail(email string) (*entity.User, apierror.ErrorResponse) {
	user, err := a.UserRepo.FindActiveByEmail(email)
	if err != nil {
		log.Errorf("failed to fetch user by email: %v", err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

// issueTokens mints a fresh pair and persists the refresh hash in the same
// save, which covers signup, login and rotation alike.
func (a *AuthService) issueTokens(user *entity.User) (*contract.TokenPairResponse, apierror.ErrorResponse) {
	pair, err := utils.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		log.Errorf("failed to mint tokens for user %d: %v", user.ID, err)
		return nil, apierror.InternalServerError
	}

	user.RefreshHash = utils.HashToken(pair.RefreshToken)
	user.UpdatedAt = utils.NowUTC()
	if err := a.UserRepo.Save(user); err != nil {
		log.Errorf("failed to save user %d: %v", user.ID, err)
		return nil, apierror.InternalServerError
	}

	return &contract.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func usernameFromIdentity(identity *googleclient.Identity) string {
	name := strings.TrimSpace(identity.Name)
	if name != "" {
		return name
	}

	// No display name on the token, fall back to the mailbox part.
	if at := strings.Index(identity.Email, "@"); at > 0 {
		return identity.Email[:at]
	}
	return identity.Email
}
