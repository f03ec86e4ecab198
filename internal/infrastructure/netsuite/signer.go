package netsuite

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SignatureMethod is the OAuth 1.0a signature algorithm
type SignatureMethod string

const (
	SignatureHMACSHA256 SignatureMethod = "HMAC-SHA256"
	// SignatureHMACSHA1 is accepted for legacy integrations only
	SignatureHMACSHA1 SignatureMethod = "HMAC-SHA1"
)

// IsValid returns true if the signature method is supported
func (m SignatureMethod) IsValid() bool {
	return m == SignatureHMACSHA256 || m == SignatureHMACSHA1
}

// RequestSigner produces OAuth 1.0a token-based Authorization headers.
// It holds no mutable state; each call uses a fresh timestamp and nonce.
type RequestSigner struct {
	realm          string
	consumerKey    string
	consumerSecret string
	token          string
	tokenSecret    string
	method         SignatureMethod

	now   func() time.Time
	nonce func() string
}

// SignerOption configures a RequestSigner
type SignerOption func(*RequestSigner)

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) SignerOption {
	return func(s *RequestSigner) {
		s.now = now
	}
}

// WithNonceSource replaces the nonce source
func WithNonceSource(nonce func() string) SignerOption {
	return func(s *RequestSigner) {
		s.nonce = nonce
	}
}

// NewRequestSigner creates a signer from the account configuration.
// An unsupported signature method falls back to HMAC-SHA256 with a warning.
func NewRequestSigner(cfg *Config, logger *zap.Logger, opts ...SignerOption) *RequestSigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	method := SignatureMethod(strings.ToUpper(strings.TrimSpace(cfg.SignatureMethod)))
	if method == "" {
		method = SignatureHMACSHA256
	}
	if !method.IsValid() {
		logger.Warn("Unsupported OAuth signature method, using HMAC-SHA256",
			zap.String("configured", cfg.SignatureMethod))
		method = SignatureHMACSHA256
	}

	s := &RequestSigner{
		realm:          cfg.Realm(),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		token:          cfg.TokenID,
		tokenSecret:    cfg.TokenSecret,
		method:         method,
		now:            time.Now,
		nonce:          newNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Method returns the effective signature method
func (s *RequestSigner) Method() SignatureMethod {
	return s.method
}

// Authorization returns the Authorization header value for a request.
// Query parameters of rawURL are merged with params before signing.
func (s *RequestSigner) Authorization(method, rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("netsuite: parse url for signing: %w", err)
	}

	oauth := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_token":            s.token,
		"oauth_signature_method": string(s.method),
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_nonce":            s.nonce(),
		"oauth_version":          "1.0",
	}

	pairs := make([]paramPair, 0, len(oauth)+len(params))
	for k, v := range oauth {
		pairs = append(pairs, paramPair{k, v})
	}
	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, paramPair{k, v})
		}
	}
	for k, v := range params {
		pairs = append(pairs, paramPair{k, v})
	}

	base := signatureBase(method, u, pairs)
	oauth["oauth_signature"] = s.sign(base)

	return s.header(oauth), nil
}

func (s *RequestSigner) sign(base string) string {
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(s.tokenSecret)

	var h func() hash.Hash
	switch s.method {
	case SignatureHMACSHA1:
		h = sha1.New
	default:
		h = sha256.New
	}
	mac := hmac.New(h, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s *RequestSigner) header(oauth map[string]string) string {
	keys := make([]string, 0, len(oauth))
	for k := range oauth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(`OAuth realm="`)
	sb.WriteString(s.realm)
	sb.WriteString(`"`)
	for _, k := range keys {
		sb.WriteString(",")
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(percentEncode(oauth[k]))
		sb.WriteString(`"`)
	}
	return sb.String()
}

type paramPair struct {
	key   string
	value string
}

// signatureBase builds UPPER(method)&enc(baseURL)&enc(sorted params)
func signatureBase(method string, u *url.URL, pairs []paramPair) string {
	encoded := make([]paramPair, len(pairs))
	for i, p := range pairs {
		encoded[i] = paramPair{percentEncode(p.key), percentEncode(p.value)}
	}
	sort.Slice(encoded, func(i, j int) bool {
		if encoded[i].key != encoded[j].key {
			return encoded[i].key < encoded[j].key
		}
		return encoded[i].value < encoded[j].value
	})

	parts := make([]string, len(encoded))
	for i, p := range encoded {
		parts[i] = p.key + "=" + p.value
	}

	return strings.ToUpper(method) + "&" +
		percentEncode(baseStringURL(u)) + "&" +
		percentEncode(strings.Join(parts, "&"))
}

// baseStringURL is scheme://host/path with scheme and host lower-cased
// and the query and fragment removed
func baseStringURL(u *url.URL) string {
	host := strings.ToLower(u.Host)
	scheme := strings.ToLower(u.Scheme)
	if (scheme == "https" && strings.HasSuffix(host, ":443")) ||
		(scheme == "http" && strings.HasSuffix(host, ":80")) {
		host = host[:strings.LastIndex(host, ":")]
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// percentEncode applies RFC 3986 encoding: only ALPHA, DIGIT, '-', '.', '_'
// and '~' are left as is
func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// newNonce returns 32 random hex characters
func newNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
