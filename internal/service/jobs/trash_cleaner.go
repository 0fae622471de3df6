package jobs

import (
	"context"
	"time"

	"socialnotes/internal/domain/entity"
	"socialnotes/internal/infrastructure/aws/storage"
	"socialnotes/internal/utils"

	"github.com/labstack/gommon/log"
)

const (
	// TrashTTLMillis is how long a trashed note survives before the sweeper
	// purges it for good.
	TrashTTLMillis = 30 * 24 * 60 * 60 * 1000
	SweepInterval  = 1 * time.Hour
)

type TrashRepository interface {
	FindTrashedBefore(cutoff int64) ([]*entity.Note, error)
	Delete(note *entity.Note) error
}

type TrashCleaner struct {
	noteRepo TrashRepository
	s3       storage.S3Client
}

func NewTrashCleaner(repo TrashRepository, s3 storage.S3Client) *TrashCleaner {
	return &TrashCleaner{noteRepo: repo, s3: s3}
}

func (t *TrashCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	log.Info("Trash cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping trash cleaner...")
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *TrashCleaner) sweep() {
	cutoff := utils.NowUTC() - TrashTTLMillis

	notes, err := t.noteRepo.FindTrashedBefore(cutoff)
	if err != nil {
		log.Errorf("Cleaner: failed to fetch expired trash: %v", err)
		return
	}

	if len(notes) == 0 {
		return
	}

	log.Infof("Cleaner: found %d notes past retention. Purging...", len(notes))

	for _, note := range notes {
		// Objects first. If one refuses to go, the note stays for the next
		// sweep instead of leaving orphans in the bucket.
		if !t.deleteImages(note) {
			continue
		}

		if err := t.noteRepo.Delete(note); err != nil {
			log.Errorf("Cleaner: failed to purge note %d: %v", note.ID, err)
		}
	}
}

func (t *TrashCleaner) deleteImages(note *entity.Note) bool {
	for _, img := range note.Images {
		if err := t.s3.DeleteFile(img.StorageKey); err != nil {
			log.Errorf("Cleaner: failed to delete object %s: %v", img.StorageKey, err)
			return false
		}
	}
	return true
}
