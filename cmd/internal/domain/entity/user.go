package entity

// User is the local record of a Cognito identity.
type User struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false"`
	SubUUID       string `gorm:"not null;uniqueIndex"`
	Username      string `gorm:"not null"`
	Email         string `gorm:"not null;index"`
	EmailVerified bool   `gorm:"not null"`
	Active        bool   `gorm:"not null;default:true"`
	Suspended     bool   `gorm:"not null;default:false"`
	CreatedAt     int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     int64  `gorm:"not null;autoUpdateTime:false"`
}

// CanSignIn reports whether the user is allowed past the auth gate.
func (u *User) CanSignIn() bool {
	return u.Active && !u.Suspended
}
