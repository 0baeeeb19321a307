package repository

import (
	"errors"

	"notesweb/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

func (u *DefaultUserRepository) FindByID(id int64) (*entity.User, error) {
	return u.first(u.db.Where("id = ?", id))
}

func (u *DefaultUserRepository) FindActiveByEmail(email string) (*entity.User, error) {
	return u.first(u.db.Where("email = ? AND active = ?", email, true))
}

func (u *DefaultUserRepository) FindActiveBySub(sub string) (*entity.User, error) {
	return u.first(u.db.Where("sub_uuid = ? AND active = ?", sub, true))
}

func (u *DefaultUserRepository) FindBySub(sub string) (*entity.User, error) {
	return u.first(u.db.Where("sub_uuid = ?", sub))
}

func (u *DefaultUserRepository) ExistsActiveByEmail(email string) (bool, error) {
	var exists int
	err := u.db.
		Raw("SELECT EXISTS(SELECT 1 FROM users WHERE email = ? AND active = ?)", email, true).
		Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (u *DefaultUserRepository) Create(user *entity.User) error {
	return u.db.Create(user).Error
}

func (u *DefaultUserRepository) Save(user *entity.User) error {
	return u.db.Save(user).Error
}

func (u *DefaultUserRepository) first(query *gorm.DB) (*entity.User, error) {
	var user entity.User
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}
