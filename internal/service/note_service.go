package service

import (
	"mime/multipart"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/domain/policy"
	"socialnotes/internal/infrastructure/aws/storage"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"
	"socialnotes/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type NoteRepository interface {
	FindByOwner(ownerID int64, includeArchived bool) ([]*entity.Note, error)
	FindSharedByOwners(ownerIDs []int64) ([]*entity.Note, error)
	FindTrashedByOwner(ownerID int64) ([]*entity.Note, error)
	FindByID(id int64) (*entity.Note, error)
	Save(note *entity.Note) error
	Delete(note *entity.Note) error
}

type DefaultNoteService struct {
	NoteRepo NoteRepository
	S3       storage.S3Client
	Validate *validator.Validate
	Policy   *policy.NotePolicy
}

func NewNoteService(noteRepo NoteRepository, s3 storage.S3Client, validate *validator.Validate, notePolicy *policy.NotePolicy) *DefaultNoteService {
	return &DefaultNoteService{
		NoteRepo: noteRepo,
		S3:       s3,
		Validate: validate,
		Policy:   notePolicy,
	}
}

func (n *DefaultNoteService) GetOwnNotes(actor *entity.User, includeArchived bool) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindByOwner(actor.ID, includeArchived)
	if err != nil {
		log.Errorf("failed to fetch notes for user %d: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponses(notes, actor), nil
}

// GetSharedNotes is the friends feed: every public, non-trashed note owned
// by one of the actor's friends. The friend list lives on the actor row, so
// this is a single query.
func (n *DefaultNoteService) GetSharedNotes(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindSharedByOwners(actor.Friends)
	if err != nil {
		log.Errorf("failed to fetch shared notes for user %d: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponses(notes, actor), nil
}

func (n *DefaultNoteService) GetNote(actor *entity.User, noteID int64) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := n.Policy.CanSee(actor, note); perr != nil {
		return nil, perr
	}
	return n.toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) CreateNote(actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	return n.createNote(actor, req, nil)
}

// CreateNoteWithImages handles the multipart variant: all images are
// uploaded before the row is written, so a half-created note never
// references missing objects.
func (n *DefaultNoteService) CreateNoteWithImages(actor *entity.User, req *contract.CreateNoteRequest, files []*multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse) {
	if len(files) > contract.MaxImagesPerNote {
		return nil, apierror.NewTooManyImagesError(contract.MaxImagesPerNote)
	}
	return n.createNote(actor, req, files)
}

func (n *DefaultNoteService) createNote(actor *entity.User, req *contract.CreateNoteRequest, files []*multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	for _, fh := range files {
		if apierr := checkImageFile(fh, contract.MaxImageSizeBytes, contract.ValidImageFileTypes); apierr != nil {
			return nil, apierr
		}
	}

	images := make(entity.NoteImages, 0, len(files))
	for _, fh := range files {
		img, apierr := uploadNoteImage(n.S3, fh)
		if apierr != nil {
			n.discardImages(images)
			return nil, apierr
		}
		images = append(images, img)
	}

	now := utils.NowUTC()
	note := &entity.Note{
		ID:        uid.Generate(),
		OwnerID:   actor.ID,
		Title:     req.Title,
		Content:   req.Content,
		Color:     req.Color,
		Images:    images,
		Likers:    entity.IDList{},
		Public:    req.Public,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := n.NoteRepo.Save(note); err != nil {
		n.discardImages(images)
		log.Errorf("failed to save note: %v", err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) UpdateNote(actor *entity.User, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := n.Policy.CanEdit(actor, note); perr != nil {
		return nil, perr
	}

	// Now, we can finally PATCH our data :D
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Color != nil {
		note.Color = *req.Color
	}
	if req.Pinned != nil {
		note.Pinned = *req.Pinned
	}
	if req.Archived != nil {
		note.Archived = *req.Archived
	}
	if req.Public != nil {
		note.Public = *req.Public
	}

	note.UpdatedAt = utils.NowUTC()
	if err := n.NoteRepo.Save(note); err != nil {
		log.Errorf("failed to update note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) AddImage(actor *entity.User, noteID int64, fileHeader *multipart.FileHeader) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := n.Policy.CanEdit(actor, note); perr != nil {
		return nil, perr
	}

	if len(note.Images) >= contract.MaxImagesPerNote {
		return nil, apierror.NewTooManyImagesError(contract.MaxImagesPerNote)
	}

	if apierr := checkImageFile(fileHeader, contract.MaxImageSizeBytes, contract.ValidImageFileTypes); apierr != nil {
		return nil, apierr
	}

	img, apierr := uploadNoteImage(n.S3, fileHeader)
	if apierr != nil {
		return nil, apierr
	}

	note.Images = append(note.Images, img)
	note.UpdatedAt = utils.NowUTC()
	if err := n.NoteRepo.Save(note); err != nil {
		n.discardImages(entity.NoteImages{img})
		log.Errorf("failed to attach image to note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) RemoveImage(actor *entity.User, noteID, imageID int64) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := n.Policy.CanEdit(actor, note); perr != nil {
		return nil, perr
	}

	img, found := note.Images.ByID(imageID)
	if !found {
		return nil, apierror.ImageNotFoundError
	}

	if err := n.S3.DeleteFile(img.StorageKey); err != nil {
		log.Errorf("failed to delete object %s: %v", img.StorageKey, err)
		return nil, apierror.InternalServerError
	}

	note.Images = note.Images.Without(imageID)
	note.UpdatedAt = utils.NowUTC()
	if err := n.NoteRepo.Save(note); err != nil {
		log.Errorf("failed to detach image from note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) TrashNote(actor *entity.User, noteID int64) apierror.ErrorResponse {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return apierr
	}

	if perr := n.Policy.CanTrash(actor, note); perr != nil {
		return perr
	}

	now := utils.NowUTC()
	note.Trashed = true
	note.TrashedAt = now
	note.UpdatedAt = now
	if err := n.NoteRepo.Save(note); err != nil {
		log.Errorf("failed to trash note %d: %v", noteID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (n *DefaultNoteService) GetTrash(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindTrashedByOwner(actor.ID)
	if err != nil {
		log.Errorf("failed to fetch trash for user %d: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponses(notes, actor), nil
}

func (n *DefaultNoteService) RestoreNote(actor *entity.User, noteID int64) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := n.Policy.CanRestore(actor, note); perr != nil {
		return nil, perr
	}

	note.Trashed = false
	note.TrashedAt = 0
	note.UpdatedAt = utils.NowUTC()
	if err := n.NoteRepo.Save(note); err != nil {
		log.Errorf("failed to restore note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}
	return n.toNoteResponse(note, actor), nil
}

// PurgeNote permanently deletes a trashed note. Stored images go first so an
// interrupted purge leaves the note restorable instead of orphaning objects.
func (n *DefaultNoteService) PurgeNote(actor *entity.User, noteID int64) apierror.ErrorResponse {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return apierr
	}

	if perr := n.Policy.CanPurge(actor, note); perr != nil {
		return perr
	}

	for _, img := range note.Images {
		if err := n.S3.DeleteFile(img.StorageKey); err != nil {
			log.Errorf("failed to delete object %s: %v", img.StorageKey, err)
			return apierror.InternalServerError
		}
	}

	if err := n.NoteRepo.Delete(note); err != nil {
		log.Errorf("failed to purge note %d: %v", noteID, err)
		return apierror.InternalServerError
	}
	return nil
}

// ToggleLike flips the actor's presence in the likers array and reports the
// resulting state.
func (n *DefaultNoteService) ToggleLike(actor *entity.User, noteID int64) (*contract.LikeResponse, apierror.ErrorResponse) {
	note, apierr := n.fetchNote(noteID)
	if apierr != nil {
		return nil, apierr
	}

	if perr := n.Policy.CanLike(actor, note); perr != nil {
		return nil, perr
	}

	liked := note.LikedBy(actor.ID)
	if liked {
		note.Likers = note.Likers.Without(actor.ID)
	} else {
		note.Likers = append(note.Likers, actor.ID)
	}

	// A like does not bump UpdatedAt: it is not a content change and would
	// reshuffle the owner's note ordering.
	if err := n.NoteRepo.Save(note); err != nil {
		log.Errorf("failed to toggle like on note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	return &contract.LikeResponse{
		NoteID: note.ID,
		Liked:  !liked,
		Likes:  len(note.Likers),
	}, nil
}

func (n *DefaultNoteService) fetchNote(noteID int64) (*entity.Note, apierror.ErrorResponse) {
	note, err := n.NoteRepo.FindByID(noteID)
	if err != nil {
		log.Errorf("failed to fetch note %d: %v", noteID, err)
		return nil, apierror.InternalServerError
	}

	if note == nil {
		return nil, apierror.NotFoundError
	}
	return note, nil
}

// discardImages best-effort deletes uploaded objects after a failed save, so
// the bucket does not accumulate orphans.
func (n *DefaultNoteService) discardImages(images entity.NoteImages) {
	for _, img := range images {
		if err := n.S3.DeleteFile(img.StorageKey); err != nil {
			log.Warnf("failed to discard object %s: %v", img.StorageKey, err)
		}
	}
}

func (n *DefaultNoteService) toNoteResponses(notes []*entity.Note, actor *entity.User) []*contract.NoteResponse {
	resp := make([]*contract.NoteResponse, len(notes))
	for i, note := range notes {
		resp[i] = n.toNoteResponse(note, actor)
	}
	return resp
}

func (n *DefaultNoteService) toNoteResponse(note *entity.Note, actor *entity.User) *contract.NoteResponse {
	images := make([]*contract.NoteImageResponse, len(note.Images))
	for i, img := range note.Images {
		images[i] = &contract.NoteImageResponse{ID: img.ID, URL: img.URL}
	}

	resp := &contract.NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Color:     note.Color,
		Images:    images,
		OwnerID:   note.OwnerID,
		Pinned:    note.Pinned,
		Archived:  note.Archived,
		Public:    note.Public,
		Trashed:   note.Trashed,
		Likes:     len(note.Likers),
		Liked:     note.LikedBy(actor.ID),
		CreatedAt: utils.FormatEpoch(note.CreatedAt),
		UpdatedAt: utils.FormatEpoch(note.UpdatedAt),
	}

	if note.Trashed {
		resp.TrashedAt = utils.FormatEpoch(note.TrashedAt)
	}
	return resp
}
