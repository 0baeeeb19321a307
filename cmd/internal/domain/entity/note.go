package entity

// Note is a named, described record owned by a single identity. Image holds the
// storage path of the attached file, or "" when nothing was attached.
type Note struct {
	ID          string `gorm:"primaryKey;autoIncrement:false"`
	OwnerSub    string `gorm:"not null;index"` // References: users(sub_uuid)
	Name        string `gorm:"not null"`
	Description string `gorm:"not null"`
	Image       string `gorm:"not null;default:''"`
	CreatedAt   int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   int64  `gorm:"not null;autoUpdateTime:false"`
}

// HasImage reports whether a file is attached to the note.
func (n *Note) HasImage() bool {
	return n.Image != ""
}
