package entity

import (
	"time"
)

type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "pending"
	ProofStatusApproved ProofStatus = "approved"
	ProofStatusRejected ProofStatus = "rejected"
	ProofStatusExpired  ProofStatus = "expired"
)

func (s ProofStatus) IsTerminal() bool {
	return s != ProofStatusPending
}

type PaymentProof struct {
	ID            string      `json:"id" db:"id"`
	OrderID       string      `json:"order_id" db:"order_id"`
	CampaignID    string      `json:"campaign_id" db:"campaign_id"`
	OrganizerID   string      `json:"organizer_id" db:"organizer_id"`
	ImagePath     string      `json:"image_path" db:"image_path"`
	ThumbnailPath string      `json:"thumbnail_path" db:"thumbnail_path"`
	Status        ProofStatus `json:"status" db:"status"`
	CustomerName  string      `json:"customer_name" db:"customer_name"`
	CustomerPhone string      `json:"customer_phone" db:"customer_phone"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// ProofUpload is the metadata that accompanies an uploaded proof image.
type ProofUpload struct {
	OrderID       string `form:"order_id" binding:"required"`
	CampaignID    string `form:"campaign_id" binding:"required"`
	OrganizerID   string `form:"organizer_id" binding:"required"`
	CustomerName  string `form:"customer_name"`
	CustomerPhone string `form:"customer_phone"`
	Filename      string `form:"-"`
}
