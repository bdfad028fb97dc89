package leads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jkatariy/infinity-leadsync/internal/db/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.OAuthToken{}, &models.Lead{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func TestSubmit_Validation(t *testing.T) {
	intake := NewIntake(newTestDB(t), nil, nil)

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{name: "missing name", req: SubmitRequest{Name: "", Email: "a@b.com", Message: "hi"}},
		{name: "missing email", req: SubmitRequest{Name: "A", Email: "", Message: "hi"}},
		{name: "bad email", req: SubmitRequest{Name: "A", Email: "not-an-email", Message: "hi"}},
		{name: "missing message", req: SubmitRequest{Name: "A", Email: "a@b.com", Message: ""}},
		{name: "whitespace name", req: SubmitRequest{Name: "   ", Email: "a@b.com", Message: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := intake.Submit(context.Background(), tt.req)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestSubmit_CreatesPendingLead(t *testing.T) {
	gdb := newTestDB(t)
	intake := NewIntake(gdb, nil, nil)

	id, err := intake.Submit(context.Background(), SubmitRequest{
		Name:    "A",
		Email:   "a@b.com",
		Message: "hi",
		Source:  models.SourceQuoteForm,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id == "" {
		t.Fatal("expected a lead id")
	}

	var lead models.Lead
	if err := gdb.First(&lead, "id = ?", id).Error; err != nil {
		t.Fatalf("load lead: %v", err)
	}
	if lead.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", lead.Status)
	}
	if lead.RemoteID != "" {
		t.Errorf("remote id must be empty before dispatch, got %q", lead.RemoteID)
	}
}

func TestSubmit_DefaultsSource(t *testing.T) {
	gdb := newTestDB(t)
	intake := NewIntake(gdb, nil, nil)

	id, err := intake.Submit(context.Background(), SubmitRequest{Name: "A", Email: "a@b.com", Message: "hi"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var lead models.Lead
	if err := gdb.First(&lead, "id = ?", id).Error; err != nil {
		t.Fatalf("load lead: %v", err)
	}
	if lead.Source != models.SourceQuoteForm {
		t.Errorf("source = %q, want default quote_form", lead.Source)
	}
}

func captchaServer(t *testing.T, response string) *CaptchaVerifier {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.Form.Get("secret"); got != "capsecret" {
			t.Errorf("secret = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
	t.Cleanup(ts.Close)

	verifier := NewCaptchaVerifier("capsecret")
	verifier.verifyURL = ts.URL
	return verifier
}

func TestSubmit_CaptchaGate(t *testing.T) {
	gdb := newTestDB(t)

	t.Run("missing token", func(t *testing.T) {
		verifier := captchaServer(t, `{"success":true}`)
		intake := NewIntake(gdb, verifier, []string{models.SourceQuoteForm})
		_, err := intake.Submit(context.Background(), SubmitRequest{Name: "A", Email: "a@b.com", Message: "hi"})
		var capErr *CaptchaError
		if !errors.As(err, &capErr) {
			t.Fatalf("expected CaptchaError, got %v", err)
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		verifier := captchaServer(t, `{"success":false,"error-codes":["invalid-input-response"]}`)
		intake := NewIntake(gdb, verifier, []string{models.SourceQuoteForm})
		_, err := intake.Submit(context.Background(), SubmitRequest{
			Name: "A", Email: "a@b.com", Message: "hi", CaptchaToken: "bad",
		})
		var capErr *CaptchaError
		if !errors.As(err, &capErr) {
			t.Fatalf("expected CaptchaError, got %v", err)
		}
		if len(capErr.Codes) != 1 || capErr.Codes[0] != "invalid-input-response" {
			t.Errorf("codes = %v", capErr.Codes)
		}
	})

	t.Run("accepted token", func(t *testing.T) {
		verifier := captchaServer(t, `{"success":true,"score":0.9}`)
		intake := NewIntake(gdb, verifier, []string{models.SourceQuoteForm})
		id, err := intake.Submit(context.Background(), SubmitRequest{
			Name: "A", Email: "a@b.com", Message: "hi", CaptchaToken: "good",
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if id == "" {
			t.Fatal("expected a lead id")
		}
	})

	t.Run("unguarded channel skips captcha", func(t *testing.T) {
		verifier := captchaServer(t, `{"success":false}`)
		intake := NewIntake(gdb, verifier, []string{models.SourceQuoteForm})
		_, err := intake.Submit(context.Background(), SubmitRequest{
			Name: "A", Email: "a@b.com", Message: "hi", Source: models.SourceChatbot,
		})
		if err != nil {
			t.Fatalf("chatbot channel must not require captcha, got %v", err)
		}
	})
}
