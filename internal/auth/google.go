package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/famguard/guardian-service/internal/config"
)

// ErrFederatedTokenInvalid is returned for any Google ID token that fails
// verification: bad signature, unknown issuer, wrong audience, or expiry.
var ErrFederatedTokenInvalid = errors.New("invalid federated identity token")

var errUnknownKeyID = errors.New("unknown signing key id")

// FederatedIdentity is the verified identity extracted from a provider token.
type FederatedIdentity struct {
	GoogleID string
	Email    string
	Name     string
	Avatar   string
}

// GoogleVerifier validates Google ID tokens against the provider's published
// RSA signing keys. Keys are fetched lazily and cached; a token signed by a
// key not in the cache triggers one forced refresh before failing.
type GoogleVerifier struct {
	clientID string
	issuers  []string
	certsURL string
	cacheTTL time.Duration
	client   *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewGoogleVerifier builds a verifier from configuration.
func NewGoogleVerifier(cfg config.GoogleConfig) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: cfg.ClientID,
		issuers:  cfg.AllowedIssuers,
		certsURL: cfg.CertsURL,
		cacheTTL: cfg.CertsCacheTTL(),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type googleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Verify checks signature, audience, expiry, and the issuer allow-list, and
// returns the extracted identity. Any failure maps to ErrFederatedTokenInvalid.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*FederatedIdentity, error) {
	claims, err := v.parse(ctx, rawToken, false)
	if errors.Is(err, errUnknownKeyID) {
		// Google rotates keys; refetch once before giving up.
		claims, err = v.parse(ctx, rawToken, true)
	}
	if err != nil {
		return nil, ErrFederatedTokenInvalid
	}

	if !v.issuerAllowed(claims.Issuer) {
		return nil, ErrFederatedTokenInvalid
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrFederatedTokenInvalid
	}

	return &FederatedIdentity{
		GoogleID: claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Avatar:   claims.Picture,
	}, nil
}

func (v *GoogleVerifier) parse(ctx context.Context, rawToken string, forceRefresh bool) (*googleClaims, error) {
	keys, err := v.signingKeys(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	claims := &googleClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodRS256 {
			return nil, errors.New("unexpected signing method")
		}
		kid, _ := token.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, errUnknownKeyID
		}
		return key, nil
	}, jwt.WithAudience(v.clientID))
	if err != nil {
		if errors.Is(err, errUnknownKeyID) {
			return nil, errUnknownKeyID
		}
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (v *GoogleVerifier) issuerAllowed(issuer string) bool {
	for _, allowed := range v.issuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

// jwks mirrors the JSON document served at the provider certs endpoint.
type jwks struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *GoogleVerifier) signingKeys(ctx context.Context, forceRefresh bool) (map[string]*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fresh := time.Since(v.fetchedAt) < v.cacheTTL
	if v.keys != nil && fresh && !forceRefresh {
		return v.keys, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		// Serve stale keys rather than fail verification outright when the
		// provider is briefly unreachable.
		if v.keys != nil {
			return v.keys, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if v.keys != nil {
			return v.keys, nil
		}
		return nil, fmt.Errorf("certs endpoint returned %d", resp.StatusCode)
	}

	var doc jwks
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("no usable signing keys in JWKS")
	}

	v.keys = keys
	v.fetchedAt = time.Now()
	return keys, nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	exponent := 0
	for _, b := range eBytes {
		exponent = exponent<<8 | int(b)
	}
	if exponent == 0 {
		return nil, errors.New("zero exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: exponent,
	}, nil
}
