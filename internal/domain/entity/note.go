package entity

// NoteImage is one image embedded in a note. URL is what clients render,
// StorageKey locates the object in the bucket for deletion.
type NoteImage struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	StorageKey string `json:"storage_key"`
}

type NoteImages []NoteImage

func (l NoteImages) ByID(id int64) (NoteImage, bool) {
	for _, img := range l {
		if img.ID == id {
			return img, true
		}
	}
	return NoteImage{}, false
}

// Without returns a copy of the list with the given image removed.
func (l NoteImages) Without(id int64) NoteImages {
	out := make(NoteImages, 0, len(l))
	for _, img := range l {
		if img.ID != id {
			out = append(out, img)
		}
	}
	return out
}

type Note struct {
	ID      int64  `gorm:"primaryKey;autoIncrement:false"`
	OwnerID int64  `gorm:"not null;index"` // References: users(id)
	Title   string `gorm:"not null"`
	Content string `gorm:"not null"`
	Color   string `gorm:"not null;default:''"`

	Images NoteImages `gorm:"serializer:json"`
	Likers IDList     `gorm:"serializer:json"`

	Pinned   bool `gorm:"not null;default:false"`
	Archived bool `gorm:"not null;default:false"`
	Public   bool `gorm:"not null;default:false"`

	// Trash state. Trashed is a plain flag (no gorm soft-delete magic) so the
	// purge job can query on TrashedAt directly.
	Trashed   bool  `gorm:"not null;default:false;index"`
	TrashedAt int64 `gorm:"not null;default:0"`

	CreatedAt int64 `gorm:"not null"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`
}

func (n *Note) LikedBy(userID int64) bool {
	return n.Likers.Contains(userID)
}
