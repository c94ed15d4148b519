package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuers Google stamps on ID tokens.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// errKeySetUnavailable marks a JWKS fetch failure. It must stay distinct from
// ErrInvalidToken: a provider outage is a server fault, not a bad credential.
var errKeySetUnavailable = errors.New("google: signing keys unavailable")

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwtlib.RegisteredClaims
}

// Verifier validates Google ID tokens against the provider's published JWKS.
// The keyset is cached and refreshed at most once per cache TTL; requests are
// served from the cached set while it is fresh and only a key rollover or an
// expired cache triggers a bounded refetch.
type Verifier struct {
	jwksURL   string
	audiences []string
	cacheTTL  time.Duration
	client    *http.Client
	logger    *slog.Logger

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewVerifier constructs a Verifier with a bounded-timeout HTTP client.
func NewVerifier(jwksURL string, audiences []string, cacheTTL, timeout time.Duration, logger *slog.Logger) *Verifier {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		jwksURL:   jwksURL,
		audiences: audiences,
		cacheTTL:  cacheTTL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

var _ TokenVerifier = (*Verifier)(nil)

// Verify checks signature, issuer, audience, and expiry, and extracts the
// stable subject identifier plus email claims.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	claims := &idTokenClaims{}
	parsed, err := jwtlib.ParseWithClaims(idToken, claims, func(t *jwtlib.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token missing kid header")
		}
		return v.keyForKid(ctx, kid)
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodRS256.Name}),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, errKeySetUnavailable) {
			return nil, err
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if !issuerAllowed(claims.Issuer) {
		return nil, ErrInvalidToken
	}
	if !v.audienceAllowed(claims.Audience) {
		return nil, ErrInvalidToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		Subject:       subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

func issuerAllowed(issuer string) bool {
	for _, allowed := range googleIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

func (v *Verifier) audienceAllowed(audience jwtlib.ClaimStrings) bool {
	if len(v.audiences) == 0 {
		return false
	}
	for _, aud := range audience {
		for _, allowed := range v.audiences {
			if aud == allowed {
				return true
			}
		}
	}
	return false
}

// keyForKid serves the signing key from the cached keyset, refetching only
// when the cache is stale or the kid is unknown (key rollover).
func (v *Verifier) keyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Since(v.fetchedAt) < v.cacheTTL
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}
	if err := v.refreshKeys(ctx); err != nil {
		if ok {
			// Serve the stale key rather than failing the request outright.
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", errKeySetUnavailable, err)
	}
	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("signing key %q not found", kid)
	}
	return key, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}
	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			if v.logger != nil {
				v.logger.Warn("skipping malformed jwk", "kid", k.Kid, "error", err)
			}
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks contained no usable keys")
	}
	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
