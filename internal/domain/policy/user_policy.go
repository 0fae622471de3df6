package policy

import (
	"socialnotes/internal/domain/entity"
)

// UserPolicy encapsulates the business rules for profile exposure. Unlike
// NotePolicy it never errors: profiles are always addressable, the question
// is only how much of them the actor gets to see.
type UserPolicy struct{}

func NewUserPolicy() *UserPolicy {
	return &UserPolicy{}
}

// CanSeeFullProfile reports whether actor gets the full view of target
// (bio, avatar). Private profiles are full-visible to themselves and to
// their friends only.
func (p *UserPolicy) CanSeeFullProfile(actor, target *entity.User) bool {
	if actor.ID == target.ID {
		return true
	}

	if !target.Private {
		return true
	}
	return target.IsFriendsWith(actor.ID)
}

// CanAppearInSearch reports whether target should show up in actor's search
// results. Private users stay out of search unless already friends.
func (p *UserPolicy) CanAppearInSearch(actor, target *entity.User) bool {
	if target.ID == actor.ID || !target.Active || target.Suspended {
		return false
	}

	if !target.Private {
		return true
	}
	return target.IsFriendsWith(actor.ID)
}
