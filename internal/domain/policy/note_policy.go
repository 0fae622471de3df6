package policy

import (
	"socialnotes/internal/domain/entity"
	"socialnotes/internal/utils/apierror"
)

// NotePolicy encapsulates all business rules for note visibility and
// manipulation. It returns apierror.ErrorResponse directly for seamless
// integration with handlers.
//
// Visibility rule: the owner always sees their own notes (trash included);
// anyone else sees a note only when it is public, not trashed, and its owner
// is a friend of the actor. Invisible notes answer 404, never 403, so the
// API does not leak their existence.
type NotePolicy struct{}

func NewNotePolicy() *NotePolicy {
	return &NotePolicy{}
}

func (p *NotePolicy) CanSee(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	if note == nil {
		return apierror.NotFoundError
	}

	if note.OwnerID == actor.ID {
		return nil
	}

	if note.Trashed || !note.Public || !actor.IsFriendsWith(note.OwnerID) {
		return apierror.NotFoundError // ^^
	}
	return nil
}

// CanEdit covers content updates and image changes. Only the owner edits,
// and trashed notes are frozen until restored.
func (p *NotePolicy) CanEdit(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	if apierr := p.requireOwner(actor, note); apierr != nil {
		return apierr
	}

	if note.Trashed {
		return apierror.NoteTrashedError
	}
	return nil
}

func (p *NotePolicy) CanTrash(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	if apierr := p.requireOwner(actor, note); apierr != nil {
		return apierr
	}

	if note.Trashed {
		return apierror.NoteTrashedError
	}
	return nil
}

// CanRestore and CanPurge apply to notes already in the trash.
func (p *NotePolicy) CanRestore(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	if apierr := p.requireOwner(actor, note); apierr != nil {
		return apierr
	}

	if !note.Trashed {
		return apierror.NoteNotTrashedError
	}
	return nil
}

func (p *NotePolicy) CanPurge(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	return p.CanRestore(actor, note)
}

// CanLike allows any actor that can see the note, the owner included.
func (p *NotePolicy) CanLike(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	return p.CanSee(actor, note)
}

func (p *NotePolicy) requireOwner(actor *entity.User, note *entity.Note) apierror.ErrorResponse {
	if note == nil {
		return apierror.NotFoundError
	}

	if note.OwnerID != actor.ID {
		// Same masking as CanSee: strangers get 404
		return apierror.NotFoundError
	}
	return nil
}
