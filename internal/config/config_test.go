package config

import (
	"errors"
	"strings"
	"testing"
)

func completeConfig() *Config {
	return &Config{
		Zoho: ZohoConfig{
			Region:       "in",
			ClientID:     "1000.ABC",
			ClientSecret: "secret",
			RedirectURL:  "https://example.com/auth/zoho/callback",
			State:        "fixed-state",
		},
	}
}

func TestValidate_RegionResolvesEndpoints(t *testing.T) {
	cfg := completeConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Zoho.Endpoints.AccountsBase != "https://accounts.zoho.in" {
		t.Errorf("accounts base = %q", cfg.Zoho.Endpoints.AccountsBase)
	}
	if cfg.Zoho.Endpoints.APIBase != "https://www.zohoapis.in" {
		t.Errorf("api base = %q", cfg.Zoho.Endpoints.APIBase)
	}
}

func TestValidate_UnknownRegion(t *testing.T) {
	cfg := completeConfig()
	cfg.Zoho.Region = "mars"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown zoho region") {
		t.Fatalf("expected unknown-region error, got %v", err)
	}
}

func TestValidate_MismatchedEndpointPair(t *testing.T) {
	cfg := completeConfig()
	cfg.Zoho.Region = ""
	cfg.Zoho.Endpoints = Endpoints{
		AccountsBase: "https://accounts.zoho.eu",
		APIBase:      "https://www.zohoapis.com",
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "different regions") {
		t.Fatalf("expected region-mismatch error, got %v", err)
	}
}

func TestValidate_MatchedExplicitPair(t *testing.T) {
	cfg := completeConfig()
	cfg.Zoho.Region = ""
	cfg.Zoho.Endpoints = Endpoints{
		AccountsBase: "https://accounts.zoho.com.au/",
		APIBase:      "https://www.zohoapis.com.au",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Zoho.Endpoints.AccountsBase != "https://accounts.zoho.com.au" {
		t.Errorf("trailing slash not trimmed: %q", cfg.Zoho.Endpoints.AccountsBase)
	}
}

func TestValidate_ReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	for _, want := range []string{"zoho.client_id", "zoho.client_secret", "zoho.redirect_url", "zoho.state", "zoho.region"} {
		found := false
		for _, p := range valErr.Problems {
			if p == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing keys should include %s, got %v", want, valErr.Problems)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ZOHO_REGION", "eu")
	t.Setenv("ZOHO_CLIENT_ID", "1000.ENV")
	t.Setenv("ZOHO_CLIENT_SECRET", "env-secret")
	t.Setenv("ZOHO_REDIRECT_URL", "https://example.com/cb")
	t.Setenv("ZOHO_OAUTH_STATE", "env-state")
	t.Setenv("ZOHO_SCOPES", "ZohoCRM.modules.leads.CREATE, ZohoCRM.settings.READ")
	t.Setenv("DISPATCH_LIMIT", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zoho.ClientID != "1000.ENV" {
		t.Errorf("client id = %q", cfg.Zoho.ClientID)
	}
	if cfg.Zoho.Endpoints.APIBase != "https://www.zohoapis.eu" {
		t.Errorf("api base = %q", cfg.Zoho.Endpoints.APIBase)
	}
	if len(cfg.Zoho.Scopes) != 2 || cfg.Zoho.Scopes[1] != "ZohoCRM.settings.READ" {
		t.Errorf("scopes = %v", cfg.Zoho.Scopes)
	}
	if cfg.Dispatch.BatchLimit != 10 {
		t.Errorf("batch limit = %d", cfg.Dispatch.BatchLimit)
	}
	if cfg.Dispatch.CronSpec != DefaultCronSpec {
		t.Errorf("cron spec default not applied: %q", cfg.Dispatch.CronSpec)
	}
}

func TestMissingKeys_CompleteConfig(t *testing.T) {
	cfg := completeConfig()
	if missing := cfg.MissingKeys(); len(missing) != 0 {
		t.Fatalf("expected no missing keys, got %v", missing)
	}
}
