package repository

import (
	"errors"

	"socialnotes/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

func (u *DefaultUserRepository) FindAllInIDs(ids []int64) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}

	var users []*entity.User
	err := u.db.Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *DefaultUserRepository) FindActiveByID(id int64) (*entity.User, error) {
	var user entity.User
	err := u.db.Where("active = ?", true).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *DefaultUserRepository) FindByID(id int64) (*entity.User, error) {
	var user entity.User
	err := u.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *DefaultUserRepository) FindActiveByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := u.db.Where("email = ? AND active = ?", email, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchActiveByName matches active users whose username contains the query,
// excluding the given user ID. Privacy filtering happens in the service since
// it depends on the caller's friend list.
func (u *DefaultUserRepository) SearchActiveByName(query string, excludeID int64, limit int) ([]*entity.User, error) {
	var users []*entity.User
	err := u.db.
		Where("active = ? AND id != ? AND username LIKE ?", true, excludeID, "%"+query+"%").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *DefaultUserRepository) ExistsActiveByEmail(email string) (bool, error) {
	var exists int
	err := u.db.
		Raw("SELECT EXISTS(SELECT 1 FROM users WHERE email = ? AND active = 1)", email).
		Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (u *DefaultUserRepository) Save(user *entity.User) error {
	return u.db.Save(user).Error
}

// SaveBoth persists two user rows in one transaction. Friend operations write
// both sides of the relationship, and half-applied writes would break the
// symmetry invariant.
func (u *DefaultUserRepository) SaveBoth(a, b *entity.User) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		return tx.Save(b).Error
	})
}

func (u *DefaultUserRepository) SoftDelete(user *entity.User) error {
	user.Active = false
	return u.db.Save(user).Error
}
