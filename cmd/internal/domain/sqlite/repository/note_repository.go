package repository

import (
	"errors"

	"notesweb/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

// FindAllByOwner returns every note of the given identity in insertion order.
func (d *DefaultNoteRepository) FindAllByOwner(ownerSub string) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := d.db.
		Where("owner_sub = ?", ownerSub).
		Order("created_at ASC").
		Order("rowid ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// FindByID returns nil, nil when the note does not exist or belongs to someone else.
func (d *DefaultNoteRepository) FindByID(ownerSub, id string) (*entity.Note, error) {
	var note entity.Note
	err := d.db.
		Where("id = ? AND owner_sub = ?", id, ownerSub).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (d *DefaultNoteRepository) Create(note *entity.Note) error {
	return d.db.Create(note).Error
}

func (d *DefaultNoteRepository) Delete(note *entity.Note) error {
	return d.db.
		Where("owner_sub = ?", note.OwnerSub).
		Delete(note).Error
}
