package contract

const (
	MaxImageSizeBytes = 10 * 1024 * 1024
	MaxImagesPerNote  = 10
)

var ValidImageFileTypes = []string{"png", "jpg", "jpeg", "jfif", "webp", "gif"}

type NoteImageResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type NoteResponse struct {
	ID        int64                `json:"id"`
	Title     string               `json:"title"`
	Content   string               `json:"content"`
	Color     string               `json:"color,omitempty"`
	Images    []*NoteImageResponse `json:"images"`
	OwnerID   int64                `json:"owner_id"`
	Pinned    bool                 `json:"pinned"`
	Archived  bool                 `json:"archived"`
	Public    bool                 `json:"public"`
	Trashed   bool                 `json:"trashed"`
	TrashedAt string               `json:"trashed_at,omitempty"`
	Likes     int                  `json:"likes"`
	Liked     bool                 `json:"liked"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=120"`
	Content string `json:"content" validate:"max=100000"`
	Color   string `json:"color" validate:"omitempty,hexcolor"`
	Public  bool   `json:"public"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=120"`
	Content  *string `json:"content" validate:"omitempty,max=100000"`
	Color    *string `json:"color" validate:"omitempty,hexcolor"`
	Pinned   *bool   `json:"pinned"`
	Archived *bool   `json:"archived"`
	Public   *bool   `json:"public"`
}

// LikeResponse reports the state after a toggle.
type LikeResponse struct {
	NoteID int64 `json:"note_id"`
	Liked  bool  `json:"liked"`
	Likes  int   `json:"likes"`
}
