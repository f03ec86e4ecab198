package netsuite

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// RecordServicePath is the REST record service root
	RecordServicePath = "/services/rest/record/v1"
	// QueryServicePath is the REST query service root
	QueryServicePath = "/services/rest/query/v1"

	// DefaultTimeoutSeconds is the HTTP timeout applied to every ERP call
	DefaultTimeoutSeconds = 30
	// DefaultQueryPageSize is the page size requested from the query endpoint
	DefaultQueryPageSize = 1000
	// DefaultQueryMaxPages bounds QueryAll
	DefaultQueryMaxPages = 50
)

// Errors for NetSuite configuration
var (
	ErrConfigMissingAccountID      = errors.New("netsuite: account id is required")
	ErrConfigMissingConsumerKey    = errors.New("netsuite: consumer key is required")
	ErrConfigMissingConsumerSecret = errors.New("netsuite: consumer secret is required")
	ErrConfigMissingTokenID        = errors.New("netsuite: token id is required")
	ErrConfigMissingTokenSecret    = errors.New("netsuite: token secret is required")
)

// Config holds the token-based authentication credentials and transport
// settings for one ERP account
type Config struct {
	// AccountID is the ERP account, e.g. "123456" or "123456_SB1" for a sandbox
	AccountID      string
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string
	// SignatureMethod is HMAC-SHA256 (default) or HMAC-SHA1
	SignatureMethod string
	// BaseURL overrides the URL derived from AccountID
	BaseURL        string
	TimeoutSeconds int

	// QueryPageSize and QueryMaxPages control pagination of structured queries
	QueryPageSize int
	QueryMaxPages int

	// Breaker settings. Zero BreakerFailureThreshold disables the breaker.
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

// NewConfig creates a configuration with defaults
func NewConfig(accountID, consumerKey, consumerSecret, tokenID, tokenSecret string) *Config {
	return &Config{
		AccountID:       accountID,
		ConsumerKey:     consumerKey,
		ConsumerSecret:  consumerSecret,
		TokenID:         tokenID,
		TokenSecret:     tokenSecret,
		SignatureMethod: string(SignatureHMACSHA256),
		TimeoutSeconds:  DefaultTimeoutSeconds,
		QueryPageSize:   DefaultQueryPageSize,
		QueryMaxPages:   DefaultQueryMaxPages,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return ErrConfigMissingAccountID
	}
	if c.ConsumerKey == "" {
		return ErrConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrConfigMissingConsumerSecret
	}
	if c.TokenID == "" {
		return ErrConfigMissingTokenID
	}
	if c.TokenSecret == "" {
		return ErrConfigMissingTokenSecret
	}
	return nil
}

// Realm returns the OAuth realm: the account id upper-cased
func (c *Config) Realm() string {
	return strings.ToUpper(c.AccountID)
}

// ResolvedBaseURL returns BaseURL when set, otherwise the account host.
// "123456_SB1" maps to https://123456-sb1.suitetalk.api.netsuite.com.
func (c *Config) ResolvedBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	host := strings.ToLower(strings.ReplaceAll(c.AccountID, "_", "-"))
	return fmt.Sprintf("https://%s.suitetalk.api.netsuite.com", host)
}

// RecordURL returns the absolute URL of a record endpoint
func (c *Config) RecordURL(endpoint string) string {
	return c.ResolvedBaseURL() + RecordServicePath + "/" + strings.TrimLeft(endpoint, "/")
}

// QueryURL returns the absolute URL of the structured query endpoint
func (c *Config) QueryURL() string {
	return c.ResolvedBaseURL() + QueryServicePath + "/suiteql"
}

// Timeout returns the HTTP timeout
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) pageSize() int {
	if c.QueryPageSize <= 0 {
		return DefaultQueryPageSize
	}
	return c.QueryPageSize
}

func (c *Config) maxPages() int {
	if c.QueryMaxPages <= 0 {
		return DefaultQueryMaxPages
	}
	return c.QueryMaxPages
}
