package zoho

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type fakeSink struct {
	accessToken  string
	refreshToken string
	refreshSet   bool
}

func (s *fakeSink) SetAccessToken(token string, expiresIn time.Duration) error {
	s.accessToken = token
	return nil
}

func (s *fakeSink) SetRefreshToken(token string) error {
	s.refreshToken = token
	s.refreshSet = true
	return nil
}

func testConf(t *testing.T, tokenHandler http.HandlerFunc) *oauth2.Config {
	t.Helper()
	ts := httptest.NewServer(tokenHandler)
	t.Cleanup(ts.Close)
	return &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/zoho/callback",
		Endpoint: oauth2.Endpoint{
			TokenURL:  ts.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	sink := &fakeSink{}
	handler := HandleCallback(&oauth2.Config{}, "expected-state", sink)

	req := httptest.NewRequest(http.MethodGet, "/auth/zoho/callback?state=forged&code=abc", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if sink.accessToken != "" || sink.refreshSet {
		t.Fatal("sink must not be touched on state mismatch")
	}
}

func TestHandleCallback_ErrorParam(t *testing.T) {
	sink := &fakeSink{}
	handler := HandleCallback(&oauth2.Config{}, "s", sink)

	req := httptest.NewRequest(http.MethodGet, "/auth/zoho/callback?error=access_denied&state=s", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if sink.accessToken != "" {
		t.Fatal("sink must not be touched on consent denial")
	}
}

func TestHandleCallback_ExchangeAndStore(t *testing.T) {
	conf := testConf(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("code"); got != "auth-code" {
			t.Errorf("code = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"atk","refresh_token":"rtk","expires_in":3600,"token_type":"Bearer"}`)
	})

	sink := &fakeSink{}
	handler := HandleCallback(conf, "fixed-state", sink)

	req := httptest.NewRequest(http.MethodGet, "/auth/zoho/callback?state=fixed-state&code=auth-code", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if sink.accessToken != "atk" {
		t.Errorf("access token = %q, want atk", sink.accessToken)
	}
	if sink.refreshToken != "rtk" {
		t.Errorf("refresh token = %q, want rtk", sink.refreshToken)
	}
}

func TestHandleCallback_MissingRefreshTokenNotStored(t *testing.T) {
	// Zoho omits the refresh token on repeat exchanges; a previously stored
	// one must not be overwritten.
	conf := testConf(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"atk","expires_in":3600,"token_type":"Bearer"}`)
	})

	sink := &fakeSink{}
	handler := HandleCallback(conf, "s", sink)

	req := httptest.NewRequest(http.MethodGet, "/auth/zoho/callback?state=s&code=c", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if sink.refreshSet {
		t.Fatal("refresh token setter must not be called when the exchange returns none")
	}
}

func TestHandleCallback_ExchangeRejected(t *testing.T) {
	conf := testConf(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_code"}`)
	})

	sink := &fakeSink{}
	handler := HandleCallback(conf, "s", sink)

	req := httptest.NewRequest(http.MethodGet, "/auth/zoho/callback?state=s&code=bad", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if sink.accessToken != "" {
		t.Fatal("sink must not be touched on a rejected exchange")
	}
}
