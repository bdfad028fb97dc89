// Package token persists the single Zoho OAuth credential set and handles
// its refresh lifecycle. The store is an injected collaborator rather than a
// package-level singleton so the refresh path stays mockable.
package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jkatariy/infinity-leadsync/internal/db"
	"github.com/jkatariy/infinity-leadsync/internal/db/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ErrNoRefreshToken means a refresh was requested with nothing to refresh.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// RefreshError is a failed refresh-token grant. Permanent failures
// (revoked/invalid grant) will fail on every retry and waste quota; callers
// should clear the stored tokens and require manual re-authentication.
type RefreshError struct {
	Permanent bool
	Err       error
}

func (e *RefreshError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("token refresh failed (%s): %v", kind, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Status is the read-only diagnostic projection of the stored record.
type Status struct {
	HasAccessToken  bool       `json:"has_access_token"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	IsExpired       bool       `json:"is_expired"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Store reads and writes the singleton OAuth token record.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a token store backed by the given database.
func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb, now: time.Now}
}

// Get returns the current record, or nil when none exists.
func (s *Store) Get() (*models.OAuthToken, error) {
	var rec models.OAuthToken
	err := s.db.First(&rec, "id = ?", models.TokenRecordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &db.StorageError{Op: "load token record", Err: err}
	}
	return &rec, nil
}

// SetAccessToken stores the access token with an absolute expiry of
// now+expiresIn. Token and expiry are written in one save so the record is
// never half-updated.
func (s *Store) SetAccessToken(accessToken string, expiresIn time.Duration) error {
	rec, err := s.Get()
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &models.OAuthToken{ID: models.TokenRecordID}
	}
	rec.AccessToken = accessToken
	rec.AccessTokenExpiresAt = s.now().Add(expiresIn)
	if err := s.db.Save(rec).Error; err != nil {
		return &db.StorageError{Op: "save access token", Err: err}
	}
	return nil
}

// SetRefreshToken stores or overwrites the refresh token without touching
// the access token.
func (s *Store) SetRefreshToken(refreshToken string) error {
	rec, err := s.Get()
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &models.OAuthToken{ID: models.TokenRecordID}
	}
	rec.RefreshToken = refreshToken
	if err := s.db.Save(rec).Error; err != nil {
		return &db.StorageError{Op: "save refresh token", Err: err}
	}
	return nil
}

// IsAccessTokenValid reports whether an access token is present and not yet
// expired. There is no clock-skew margin; callers wanting a fresh token must
// refresh rather than rely on an almost-expired one.
func (s *Store) IsAccessTokenValid() bool {
	rec, err := s.Get()
	if err != nil || rec == nil || rec.AccessToken == "" {
		return false
	}
	return s.now().Before(rec.AccessTokenExpiresAt)
}

// GetStatus returns the diagnostic projection of the stored record.
func (s *Store) GetStatus() (Status, error) {
	rec, err := s.Get()
	if err != nil {
		return Status{}, err
	}
	if rec == nil {
		return Status{IsExpired: true}, nil
	}
	st := Status{
		HasAccessToken:  rec.AccessToken != "",
		HasRefreshToken: rec.RefreshToken != "",
		IsExpired:       rec.AccessToken == "" || !s.now().Before(rec.AccessTokenExpiresAt),
	}
	if rec.AccessToken != "" {
		expires := rec.AccessTokenExpiresAt
		st.ExpiresAt = &expires
	}
	updated := rec.UpdatedAt
	st.UpdatedAt = &updated
	return st, nil
}

// Clear deletes the whole record. Idempotent: clearing an already-empty
// store is not an error.
func (s *Store) Clear() error {
	err := s.db.Delete(&models.OAuthToken{}, "id = ?", models.TokenRecordID).Error
	if err != nil {
		return &db.StorageError{Op: "clear token record", Err: err}
	}
	return nil
}

// RefreshAccessToken performs exactly one refresh-token grant and overwrites
// the stored access token on success. Zoho does not rotate refresh tokens on
// this flow in the general case, but a rotated one is persisted if returned.
func (s *Store) RefreshAccessToken(ctx context.Context, conf *oauth2.Config) error {
	rec, err := s.Get()
	if err != nil {
		return err
	}
	if rec == nil || rec.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.RefreshToken})
	newToken, err := source.Token()
	if err != nil {
		return &RefreshError{Permanent: isPermanentRefreshError(err), Err: err}
	}

	rec.AccessToken = newToken.AccessToken
	rec.AccessTokenExpiresAt = newToken.Expiry
	if newToken.RefreshToken != "" && newToken.RefreshToken != rec.RefreshToken {
		log.Printf("🔄 Zoho rotated the refresh token")
		rec.RefreshToken = newToken.RefreshToken
	}
	if err := s.db.Save(rec).Error; err != nil {
		return &db.StorageError{Op: "save refreshed token", Err: err}
	}

	log.Printf("✅ Refreshed Zoho access token (expires: %s)", newToken.Expiry.Format(time.RFC3339))
	return nil
}

func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	permanentMarkers := []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"invalid_code",
		"revoked",
	}
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
