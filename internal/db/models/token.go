package models

import "time"

// TokenRecordID is the fixed primary key of the singleton OAuth token row.
const TokenRecordID = "zoho"

// OAuthToken is the single stored Zoho credential set.
// A row with an empty AccessToken but a non-empty RefreshToken is a valid
// state and means "refresh before next use". AccessTokenExpiresAt is zero
// exactly when AccessToken is empty.
type OAuthToken struct {
	ID                   string `gorm:"primaryKey"`
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	UpdatedAt            time.Time
}
