package entity

import "slices"

// Provider identifies which identity source created the account.
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
)

// IDList is a list of user IDs embedded in the owning row as JSON.
//
// Keeping the lists on the row itself (instead of join tables) preserves the
// document shape of the data: friendship and request checks are a single row
// read, and symmetry is maintained by writing both rows.
type IDList []int64

func (l IDList) Contains(id int64) bool {
	return slices.Contains(l, id)
}

// Without returns a copy of the list with every occurrence of id removed.
func (l IDList) Without(id int64) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// User is the general basic structure of all users across the platform
type User struct {
	ID           int64    `gorm:"primaryKey;autoIncrement:false"`
	Email        string   `gorm:"not null;index"`
	PasswordHash string   `gorm:"not null;default:''"` // empty for external providers
	Username     string   `gorm:"not null"`
	AvatarKey    string   `gorm:"not null;default:''"`
	Bio          string   `gorm:"not null;default:''"`
	Private      bool     `gorm:"not null;default:false"`
	Provider     Provider `gorm:"not null;default:'LOCAL'"`

	// RefreshHash holds the SHA-256 of the latest refresh token. Rotated on
	// every refresh, cleared on logout.
	RefreshHash string `gorm:"not null;default:''"`

	Friends  IDList `gorm:"serializer:json"`
	Incoming IDList `gorm:"serializer:json"` // requests received, sender IDs
	Outgoing IDList `gorm:"serializer:json"` // requests sent, recipient IDs

	Active    bool  `gorm:"not null;default:true"`
	Suspended bool  `gorm:"not null;default:false"`
	CreatedAt int64 `gorm:"not null"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`
}

func (u *User) IsFriendsWith(id int64) bool {
	return u.Friends.Contains(id)
}
