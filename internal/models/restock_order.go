package models

import "time"

// Restock order statuses.
const (
	RestockPending   = "pending"
	RestockSent      = "sent"
	RestockReceived  = "received"
	RestockCancelled = "cancelled"
)

// RestockOrder is a request to the supplier for more units of a product.
type RestockOrder struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID   int64     `json:"product_id" gorm:"index;not null"`
	ProductName string    `json:"product_name" gorm:"type:text"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Status      string    `json:"status" gorm:"type:varchar(16);not null"`
	Subject     string    `json:"subject" gorm:"type:text"`
	Body        string    `json:"body" gorm:"type:text"`
	MailtoURL   string    `json:"mailto_url" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
