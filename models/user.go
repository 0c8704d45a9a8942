package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// KYC statuses.
const (
	KycStatusPending  = "pending"
	KycStatusVerified = "verified"
	KycStatusRejected = "rejected"
)

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Username         string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email            string     `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"size:255;not null" json:"-"`
	Role             string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status           string     `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	ProfileCompleted bool       `gorm:"not null;default:false" json:"profile_completed"`
	KycStatus        string     `gorm:"type:varchar(20);not null;default:'pending'" json:"kyc_status"`
	KycNotes         *string    `gorm:"type:text" json:"kyc_notes,omitempty"`
	KycReviewedBy    *int64     `json:"kyc_reviewed_by,omitempty"`
	KycReviewedAt    *time.Time `json:"kyc_reviewed_at,omitempty"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// HashPassword replaces the plaintext password with its bcrypt hash. Call
// before the first save.
func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// ValidatePassword checks a candidate password against the stored hash.
func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
