package repository

import (
	"errors"

	"socialnotes/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

// FindByOwner lists non-trashed notes of one user, pinned first and then by
// most recent update. Archived notes appear only when asked for.
func (d *DefaultNoteRepository) FindByOwner(ownerID int64, includeArchived bool) ([]*entity.Note, error) {
	q := d.db.Where("owner_id = ? AND trashed = ?", ownerID, false)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}

	var notes []*entity.Note
	err := q.Order("pinned DESC, updated_at DESC").Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// FindSharedByOwners lists public, non-trashed notes owned by any of the
// given users. Used for the friends feed.
func (d *DefaultNoteRepository) FindSharedByOwners(ownerIDs []int64) ([]*entity.Note, error) {
	if len(ownerIDs) == 0 {
		return []*entity.Note{}, nil
	}

	var notes []*entity.Note
	err := d.db.
		Where("owner_id IN ? AND public = ? AND trashed = ?", ownerIDs, true, false).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (d *DefaultNoteRepository) FindTrashedByOwner(ownerID int64) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := d.db.
		Where("owner_id = ? AND trashed = ?", ownerID, true).
		Order("trashed_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// FindTrashedBefore returns notes that entered the trash before the given
// epoch millis. The purge job uses it to expire old trash.
func (d *DefaultNoteRepository) FindTrashedBefore(cutoff int64) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := d.db.
		Where("trashed = ? AND trashed_at < ?", true, cutoff).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (d *DefaultNoteRepository) FindByID(id int64) (*entity.Note, error) {
	var note entity.Note
	err := d.db.First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (d *DefaultNoteRepository) Save(note *entity.Note) error {
	return d.db.Save(note).Error
}

func (d *DefaultNoteRepository) Delete(note *entity.Note) error {
	return d.db.Delete(note).Error
}
