package contract

const MaxAvatarSizeBytes = 5 * 1024 * 1024

var ValidAvatarFileTypes = []string{"png", "jpg", "jpeg", "webp"}

// UserResponse is the profile view. Email and Provider are only filled for
// the profile owner; Bio and AvatarURL are withheld from strangers when the
// profile is private.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Private   bool   `json:"private"`
	Provider  string `json:"provider,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=2,max=80"`
	Bio      *string `json:"bio" validate:"omitempty,max=400"`
	Private  *bool   `json:"private"`
}

type SearchUsersRequest struct {
	Query string `json:"q" validate:"required,min=2,max=80"`
}
