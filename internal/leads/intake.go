// Package leads implements the lead outbox: intake of web submissions into a
// pending queue and batch dispatch of that queue into Zoho CRM. Intake and
// dispatch are fully decoupled; a CRM outage never fails a form submission.
package leads

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jkatariy/infinity-leadsync/internal/db"
	"github.com/jkatariy/infinity-leadsync/internal/db/models"
	"gorm.io/gorm"
)

// ValidationError is a submission rejected before persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s %s", e.Field, e.Reason)
}

// SubmitRequest carries one form submission.
type SubmitRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Company      string `json:"company"`
	Message      string `json:"message" validate:"required"`
	Source       string `json:"source"`
	ProductName  string `json:"product_name"`
	ProductURL   string `json:"product_url"`
	CaptchaToken string `json:"captcha_token"`
}

// Intake validates submissions and appends them to the pending queue.
type Intake struct {
	db              *gorm.DB
	validate        *validator.Validate
	captcha         *CaptchaVerifier
	captchaRequired map[string]bool
}

// NewIntake creates the intake service. captcha may be nil when no channel
// requires verification; captchaSources lists the source channels that do.
func NewIntake(gdb *gorm.DB, captcha *CaptchaVerifier, captchaSources []string) *Intake {
	required := make(map[string]bool, len(captchaSources))
	for _, s := range captchaSources {
		required[s] = true
	}
	return &Intake{
		db:              gdb,
		validate:        validator.New(),
		captcha:         captcha,
		captchaRequired: required,
	}
}

// Submit validates the request, runs the captcha gate when the channel
// requires it, and persists a new pending lead. Returns the new lead id.
func (i *Intake) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Source == "" {
		req.Source = models.SourceQuoteForm
	}

	if err := i.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			reason := "is required"
			if fe.Tag() == "email" {
				reason = "must be a valid email address"
			}
			return "", &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reason}
		}
		return "", &ValidationError{Field: "request", Reason: err.Error()}
	}

	if i.captchaRequired[req.Source] {
		if i.captcha == nil {
			return "", &CaptchaError{Codes: []string{"verifier-not-configured"}}
		}
		if err := i.captcha.Verify(ctx, req.CaptchaToken); err != nil {
			return "", err
		}
	}

	lead := models.Lead{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       strings.TrimSpace(req.Phone),
		Company:     strings.TrimSpace(req.Company),
		Message:     req.Message,
		Source:      req.Source,
		ProductName: req.ProductName,
		ProductURL:  req.ProductURL,
		Status:      models.StatusPending,
	}
	if err := i.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return "", &db.StorageError{Op: "create lead", Err: err}
	}

	log.Printf("📥 Queued lead %s from %s (%s)", lead.ID, lead.Source, lead.Email)
	return lead.ID, nil
}
