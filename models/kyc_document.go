package models

import "time"

// KYC document kinds. A user becomes withdrawal-eligible once they have a
// completed profile, at least one id document, at least two selfie captures,
// and a verified KYC status.
const (
	KycDocKindID     = "id"
	KycDocKindSelfie = "selfie"
)

// KycDocument records a compliance capture on file for a user. The upload
// itself lives with the external document store; we only persist the pointer.
type KycDocument struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Kind      string    `gorm:"type:varchar(20);not null" json:"kind"`
	Reference string    `gorm:"type:varchar(255);not null" json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

func (KycDocument) TableName() string {
	return "kyc_documents"
}
