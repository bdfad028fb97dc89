package models

import "time"

// Intake channels.
const (
	SourceQuoteForm   = "quote_form"
	SourceContactForm = "contact_form"
	SourceChatbot     = "chatbot"
)

// Lead delivery states.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Lead is one web submission waiting for (or past) CRM delivery.
// Rows are never deleted; the table doubles as the audit trail.
type Lead struct {
	ID          string    `gorm:"primaryKey" json:"id"` // UUID
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Message     string    `gorm:"type:text" json:"message"`
	Source      string    `gorm:"index" json:"source"`
	ProductName string    `json:"product_name,omitempty"`
	ProductURL  string    `json:"product_url,omitempty"`
	Status      string    `gorm:"index;default:'pending'" json:"status"`
	RemoteID    string    `json:"remote_id,omitempty"` // Zoho record id, set only when Status is sent
	LastError   string    `gorm:"type:text" json:"last_error,omitempty"` // most recent delivery failure, cleared on success
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeadStats holds per-status lead counts for health reporting.
type LeadStats struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
}
