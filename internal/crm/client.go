// Package crm is a minimal Zoho CRM client covering lead creation. The
// remote response is decoded through a typed projection; any shape mismatch
// becomes a SubmissionError instead of leaking a raw parse failure.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client handles communication with the Zoho CRM REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion int
}

// NewClient creates a CRM client for the given region API base, e.g.
// "https://www.zohoapis.com".
func NewClient(apiBase string, apiVersion int) *Client {
	if apiVersion <= 0 {
		apiVersion = 2
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(apiBase, "/"),
		apiVersion: apiVersion,
	}
}

// LeadRecord is one record in the Zoho Leads module. Last_Name is the only
// field Zoho treats as mandatory.
type LeadRecord struct {
	LastName    string `json:"Last_Name"`
	FirstName   string `json:"First_Name,omitempty"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	Company     string `json:"Company,omitempty"`
	Description string `json:"Description,omitempty"`
	LeadSource  string `json:"Lead_Source,omitempty"`
}

// SubmissionError is a lead-creation call the CRM rejected or answered with
// an unexpected shape.
type SubmissionError struct {
	StatusCode int
	Detail     string
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("crm submission failed (HTTP %d): %s", e.StatusCode, e.Detail)
	}
	return "crm submission failed: " + e.Detail
}

// createResponse is the typed projection of Zoho's bulk-insert response.
type createResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

// CreateLead submits one lead record and returns the CRM-assigned id.
func (c *Client) CreateLead(ctx context.Context, accessToken string, record LeadRecord) (string, error) {
	payload, err := json.Marshal(map[string]any{"data": []LeadRecord{record}})
	if err != nil {
		return "", &SubmissionError{Detail: fmt.Sprintf("encode payload: %v", err)}
	}

	url := fmt.Sprintf("%s/crm/v%d/Leads", c.baseURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &SubmissionError{Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &SubmissionError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: excerpt(body)}
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("malformed response: %v", err)}
	}
	if len(parsed.Data) == 0 {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: "response contained no records"}
	}
	first := parsed.Data[0]
	if strings.EqualFold(first.Status, "error") {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("%s: %s", first.Code, first.Message)}
	}
	if first.Details.ID == "" {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Detail: "response missing record id"}
	}
	return first.Details.ID, nil
}

func excerpt(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}
