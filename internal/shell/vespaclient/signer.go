package vespaclient

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidAPIKey is returned for key material that is not an EC private key.
var ErrInvalidAPIKey = errors.New("invalid Vespa Cloud API key")

// RequestSigner signs Vespa Cloud API requests with a tenant API key.
type RequestSigner struct {
	keyID     string
	key       *ecdsa.PrivateKey
	publicPEM string
	now       func() time.Time
}

// NewRequestSigner parses a PEM encoded EC private key. keyID is
// tenant:application:instance.
func NewRequestSigner(keyID string, pemKey []byte) (*RequestSigner, error) {
	block, _ := pem.Decode(normalizeKey(pemKey))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidAPIKey)
	}

	var key *ecdsa.PrivateKey
	switch block.Type {
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
		key = k
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
		ec, ok := k.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an EC key", ErrInvalidAPIKey)
		}
		key = ec
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidAPIKey, block.Type)
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})

	return &RequestSigner{
		keyID:     keyID,
		key:       key,
		publicPEM: string(publicPEM),
		now:       time.Now,
	}, nil
}

// Sign sets the authentication headers on req for the given body.
func (s *RequestSigner) Sign(req *http.Request, body []byte) error {
	timestamp := s.now().UTC().Format(time.RFC3339)
	sum := sha256.Sum256(body)
	contentHash := base64.StdEncoding.EncodeToString(sum[:])

	message := strings.Join([]string{req.Method, req.URL.String(), timestamp, contentHash}, "\n")
	digest := sha256.Sum256([]byte(message))
	sig, err := ecdsa.SignASN1(rand.Reader, s.key, digest[:])
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Content-Hash", contentHash)
	req.Header.Set("X-Key-Id", s.keyID)
	req.Header.Set("X-Key", base64.StdEncoding.EncodeToString([]byte(s.publicPEM)))
	req.Header.Set("X-Authorization", base64.StdEncoding.EncodeToString(sig))
	return nil
}

// normalizeKey accepts keys passed through environment variables with
// escaped newlines.
func normalizeKey(key []byte) []byte {
	return []byte(strings.ReplaceAll(strings.TrimSpace(string(key)), `\n`, "\n"))
}
