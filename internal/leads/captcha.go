package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// CaptchaError is a failed anti-abuse check. Distinct from ValidationError
// so callers can render a retry prompt instead of a field error.
type CaptchaError struct {
	Codes []string
}

func (e *CaptchaError) Error() string {
	if len(e.Codes) == 0 {
		return "captcha verification failed"
	}
	return fmt.Sprintf("captcha verification failed: %s", strings.Join(e.Codes, ", "))
}

// CaptchaVerifier checks client-supplied reCAPTCHA proof tokens against
// Google's siteverify endpoint.
type CaptchaVerifier struct {
	httpClient *http.Client
	secret     string
	verifyURL  string
}

// NewCaptchaVerifier creates a verifier with the given shared secret.
func NewCaptchaVerifier(secret string) *CaptchaVerifier {
	return &CaptchaVerifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		secret:    secret,
		verifyURL: defaultVerifyURL,
	}
}

// SetVerifyURL points the verifier at an alternate siteverify endpoint.
func (v *CaptchaVerifier) SetVerifyURL(u string) {
	v.verifyURL = u
}

// Verify checks one proof token. Any outcome other than a confirmed success
// is a CaptchaError; an unreachable verifier rejects rather than waves
// submissions through.
func (v *CaptchaVerifier) Verify(ctx context.Context, token string) error {
	if token == "" {
		return &CaptchaError{Codes: []string{"missing-input-response"}}
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &CaptchaError{Codes: []string{"request-build-failed"}}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return &CaptchaError{Codes: []string{"verifier-unreachable"}}
	}
	defer resp.Body.Close()

	var result struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &CaptchaError{Codes: []string{"malformed-response"}}
	}
	if !result.Success {
		return &CaptchaError{Codes: result.ErrorCodes}
	}
	return nil
}
