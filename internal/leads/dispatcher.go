package leads

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jkatariy/infinity-leadsync/internal/auth/token"
	"github.com/jkatariy/infinity-leadsync/internal/crm"
	"github.com/jkatariy/infinity-leadsync/internal/db"
	"github.com/jkatariy/infinity-leadsync/internal/db/models"
	"github.com/jkatariy/infinity-leadsync/internal/util"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// DefaultBatchLimit caps a dispatch pass when no limit is given.
const DefaultBatchLimit = 50

// Result aggregates one dispatch pass.
type Result struct {
	Processed    int      `json:"processed"`
	Successful   int      `json:"successful"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors,omitempty"`
	AuthRequired bool     `json:"auth_required,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Dispatcher drains the pending queue into Zoho CRM.
type Dispatcher struct {
	db    *gorm.DB
	store *token.Store
	crm   *crm.Client
	oauth *oauth2.Config
}

// NewDispatcher creates a dispatcher. The oauth config is only used for the
// single pre-flight refresh attempt.
func NewDispatcher(gdb *gorm.DB, store *token.Store, client *crm.Client, oauthConf *oauth2.Config) *Dispatcher {
	return &Dispatcher{db: gdb, store: store, crm: client, oauth: oauthConf}
}

// ProcessPending syncs up to limit pending leads, oldest first. Token
// problems abort the whole batch before any lead is touched; a single lead's
// delivery failure only marks that lead failed and the loop continues.
// Failed leads stay eligible for the next run.
func (d *Dispatcher) ProcessPending(ctx context.Context, limit int) (Result, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	rec, err := d.store.Get()
	if err != nil {
		return Result{}, err
	}
	if rec == nil || (rec.AccessToken == "" && rec.RefreshToken == "") {
		log.Printf("🚫 Dispatch aborted: no stored Zoho tokens")
		return Result{AuthRequired: true, Message: "manual authentication required"}, nil
	}

	if !d.store.IsAccessTokenValid() {
		if rec.RefreshToken == "" {
			log.Printf("🚫 Dispatch aborted: access token expired and no refresh token stored")
			return Result{AuthRequired: true, Message: "manual authentication required"}, nil
		}
		if err := d.store.RefreshAccessToken(ctx, d.oauth); err != nil {
			var refreshErr *token.RefreshError
			if errors.As(err, &refreshErr) && refreshErr.Permanent {
				// A dead refresh token fails every retry; clear it so the
				// next run reports auth-required instead of hammering Zoho.
				log.Printf("🔒 Refresh token rejected permanently, clearing stored tokens: %v", refreshErr)
				if clearErr := d.store.Clear(); clearErr != nil {
					log.Printf("⚠️ Failed to clear dead tokens: %v", clearErr)
				}
				return Result{AuthRequired: true, Message: "refresh token rejected, manual authentication required"}, nil
			}
			if errors.As(err, &refreshErr) {
				log.Printf("⏳ Transient refresh failure, batch skipped: %v", refreshErr)
				return Result{AuthRequired: true, Message: "token refresh failed"}, nil
			}
			return Result{}, err
		}
		rec, err = d.store.Get()
		if err != nil {
			return Result{}, err
		}
	}
	accessToken := rec.AccessToken

	var pending []models.Lead
	if err := d.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&pending).Error; err != nil {
		return Result{}, &db.StorageError{Op: "fetch pending leads", Err: err}
	}

	result := Result{Processed: len(pending)}
	for i := range pending {
		lead := &pending[i]
		remoteID, err := d.crm.CreateLead(ctx, accessToken, buildRecord(lead))
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", lead.ID, err))
			d.markFailed(lead, err)
			continue
		}
		result.Successful++
		d.markSent(lead, remoteID)
	}

	if result.Processed > 0 {
		log.Printf("📤 Dispatch pass: %d processed, %d sent, %d failed", result.Processed, result.Successful, result.Failed)
	}
	return result, nil
}

func (d *Dispatcher) markSent(lead *models.Lead, remoteID string) {
	updates := map[string]any{
		"status":     models.StatusSent,
		"remote_id":  remoteID,
		"last_error": "",
	}
	if err := d.db.Model(lead).Updates(updates).Error; err != nil {
		log.Printf("⚠️ Lead %s delivered (remote %s) but status update failed: %v", lead.ID, remoteID, err)
	}
}

func (d *Dispatcher) markFailed(lead *models.Lead, cause error) {
	updates := map[string]any{
		"status":     models.StatusFailed,
		"last_error": util.TruncateErr(cause.Error(), util.DefaultErrMaxLen),
	}
	if err := d.db.Model(lead).Updates(updates).Error; err != nil {
		log.Printf("⚠️ Lead %s failed and status update also failed: %v", lead.ID, err)
	}
}

// buildRecord maps a local lead onto Zoho's Leads schema. Optional product
// context travels in the description since the stock Leads module has no
// product field.
func buildRecord(lead *models.Lead) crm.LeadRecord {
	first, last := SplitName(lead.Name)

	description := lead.Message
	if lead.ProductName != "" {
		description += "\n\nProduct: " + lead.ProductName
		if lead.ProductURL != "" {
			description += " (" + lead.ProductURL + ")"
		}
	}

	return crm.LeadRecord{
		FirstName:   first,
		LastName:    last,
		Email:       lead.Email,
		Phone:       lead.Phone,
		Company:     lead.Company,
		Description: description,
		LeadSource:  leadSourceLabel(lead.Source),
	}
}

// SplitName splits a full name at the first whitespace gap. A single-token
// name is reused as the last name because Zoho requires Last_Name.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

func leadSourceLabel(source string) string {
	switch source {
	case models.SourceQuoteForm:
		return "Quote Form"
	case models.SourceContactForm:
		return "Contact Form"
	case models.SourceChatbot:
		return "Website Chatbot"
	default:
		return "Website"
	}
}
