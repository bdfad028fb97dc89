// Package config loads the service configuration from an optional YAML file
// with environment overrides, and resolves the Zoho region endpoint pair.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDBPath     = "leadsync.db"
	DefaultAPIVersion = 2
	DefaultCronSpec   = "0 3 * * *"
	DefaultBatchLimit = 50
)

// DefaultScopes cover lead creation in Zoho CRM.
var DefaultScopes = []string{"ZohoCRM.modules.leads.CREATE"}

// Endpoints is a matched pair of Zoho base URLs. The accounts host handles
// OAuth, the API host handles CRM calls; both must belong to the same
// data-center region or authentication silently fails.
type Endpoints struct {
	AccountsBase string `yaml:"accounts_base"`
	APIBase      string `yaml:"api_base"`
}

var regionEndpoints = map[string]Endpoints{
	"us": {AccountsBase: "https://accounts.zoho.com", APIBase: "https://www.zohoapis.com"},
	"eu": {AccountsBase: "https://accounts.zoho.eu", APIBase: "https://www.zohoapis.eu"},
	"in": {AccountsBase: "https://accounts.zoho.in", APIBase: "https://www.zohoapis.in"},
	"au": {AccountsBase: "https://accounts.zoho.com.au", APIBase: "https://www.zohoapis.com.au"},
	"jp": {AccountsBase: "https://accounts.zoho.jp", APIBase: "https://www.zohoapis.jp"},
	"cn": {AccountsBase: "https://accounts.zoho.com.cn", APIBase: "https://www.zohoapis.com.cn"},
}

// ZohoConfig holds OAuth client settings and the target region.
type ZohoConfig struct {
	Region       string    `yaml:"region"`
	Endpoints    Endpoints `yaml:",inline"`
	APIVersion   int       `yaml:"api_version"`
	ClientID     string    `yaml:"client_id"`
	ClientSecret string    `yaml:"client_secret"`
	RedirectURL  string    `yaml:"redirect_url"`
	Scopes       []string  `yaml:"scopes"`
	State        string    `yaml:"state"` // fixed anti-forgery state value
}

// CaptchaConfig gates intake channels behind reCAPTCHA verification.
type CaptchaConfig struct {
	Secret          string   `yaml:"secret"`
	RequiredSources []string `yaml:"required_sources"`
}

// DispatchConfig controls the scheduled sync run.
type DispatchConfig struct {
	CronSpec   string `yaml:"cron_spec"`
	BatchLimit int    `yaml:"batch_limit"`
}

type Config struct {
	DBPath   string         `yaml:"db_path"`
	Zoho     ZohoConfig     `yaml:"zoho"`
	Captcha  CaptchaConfig  `yaml:"captcha"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// ValidationError reports configuration that is missing or inconsistent.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load reads the YAML file at path (skipped when path is empty or absent),
// applies environment overrides, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.DBPath, "LEADSYNC_DB")
	setIfEnv(&c.Zoho.Region, "ZOHO_REGION")
	setIfEnv(&c.Zoho.Endpoints.AccountsBase, "ZOHO_ACCOUNTS_BASE")
	setIfEnv(&c.Zoho.Endpoints.APIBase, "ZOHO_API_BASE")
	setIfEnv(&c.Zoho.ClientID, "ZOHO_CLIENT_ID")
	setIfEnv(&c.Zoho.ClientSecret, "ZOHO_CLIENT_SECRET")
	setIfEnv(&c.Zoho.RedirectURL, "ZOHO_REDIRECT_URL")
	setIfEnv(&c.Zoho.State, "ZOHO_OAUTH_STATE")
	setIfEnv(&c.Captcha.Secret, "RECAPTCHA_SECRET")
	setIfEnv(&c.Dispatch.CronSpec, "DISPATCH_CRON")

	if v := os.Getenv("ZOHO_SCOPES"); v != "" {
		c.Zoho.Scopes = splitAndTrim(v)
	}
	if v := os.Getenv("RECAPTCHA_REQUIRED_SOURCES"); v != "" {
		c.Captcha.RequiredSources = splitAndTrim(v)
	}
	if v := os.Getenv("ZOHO_API_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Zoho.APIVersion = n
		}
	}
	if v := os.Getenv("DISPATCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Dispatch.BatchLimit = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.Zoho.APIVersion <= 0 {
		c.Zoho.APIVersion = DefaultAPIVersion
	}
	if len(c.Zoho.Scopes) == 0 {
		c.Zoho.Scopes = DefaultScopes
	}
	if c.Dispatch.CronSpec == "" {
		c.Dispatch.CronSpec = DefaultCronSpec
	}
	if c.Dispatch.BatchLimit <= 0 {
		c.Dispatch.BatchLimit = DefaultBatchLimit
	}
}

// Validate resolves the endpoint pair from the region (or checks an explicit
// pair for region consistency) and reports all missing required settings at
// once so the operator fixes them in one pass.
func (c *Config) Validate() error {
	problems := c.MissingKeys()

	ep, err := c.resolveEndpoints()
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		c.Zoho.Endpoints = ep
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// MissingKeys lists required settings that are unset. Used both by Validate
// and by the health reporter's environment check.
func (c *Config) MissingKeys() []string {
	var missing []string
	if c.Zoho.ClientID == "" {
		missing = append(missing, "zoho.client_id")
	}
	if c.Zoho.ClientSecret == "" {
		missing = append(missing, "zoho.client_secret")
	}
	if c.Zoho.RedirectURL == "" {
		missing = append(missing, "zoho.redirect_url")
	}
	if c.Zoho.State == "" {
		missing = append(missing, "zoho.state")
	}
	if c.Zoho.Region == "" && (c.Zoho.Endpoints.AccountsBase == "" || c.Zoho.Endpoints.APIBase == "") {
		missing = append(missing, "zoho.region")
	}
	return missing
}

func (c *Config) resolveEndpoints() (Endpoints, error) {
	explicit := c.Zoho.Endpoints

	if c.Zoho.Region != "" {
		ep, ok := regionEndpoints[strings.ToLower(c.Zoho.Region)]
		if !ok {
			return Endpoints{}, fmt.Errorf("unknown zoho region %q", c.Zoho.Region)
		}
		// Explicit bases may override a region, but only as a complete pair.
		if explicit.AccountsBase != "" || explicit.APIBase != "" {
			return checkPair(explicit)
		}
		return ep, nil
	}

	if explicit.AccountsBase == "" || explicit.APIBase == "" {
		return Endpoints{}, fmt.Errorf("zoho endpoints require either a region or both accounts_base and api_base")
	}
	return checkPair(explicit)
}

// checkPair rejects an accounts/API pair whose domain suffixes point at
// different Zoho regions, since a mismatched pair authenticates against one
// region and then calls another.
func checkPair(ep Endpoints) (Endpoints, error) {
	if ep.AccountsBase == "" || ep.APIBase == "" {
		return Endpoints{}, fmt.Errorf("zoho accounts_base and api_base must both be set")
	}
	if regionSuffix(ep.AccountsBase) != regionSuffix(ep.APIBase) {
		return Endpoints{}, fmt.Errorf("zoho accounts_base (%s) and api_base (%s) belong to different regions", ep.AccountsBase, ep.APIBase)
	}
	ep.AccountsBase = strings.TrimRight(ep.AccountsBase, "/")
	ep.APIBase = strings.TrimRight(ep.APIBase, "/")
	return ep, nil
}

// regionSuffix extracts the region-bearing domain suffix, e.g.
// "https://accounts.zoho.com.au/" -> "com.au".
func regionSuffix(base string) string {
	host := base
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	host = strings.TrimSuffix(strings.SplitN(host, "/", 2)[0], ".")
	if idx := strings.Index(host, "zoho."); idx != -1 {
		return host[idx+len("zoho."):]
	}
	if idx := strings.Index(host, "zohoapis."); idx != -1 {
		return host[idx+len("zohoapis."):]
	}
	return host
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
