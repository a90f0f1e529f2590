package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/cachestats/cachekey"
)

// TokenConfig configures how bearer tokens map onto a Snapshot.
type TokenConfig struct {
	// Issuer is the expected token issuer (iss claim). Optional.
	Issuer string

	// Audience is the expected token audience (aud claim). Optional.
	Audience string

	// PrincipalClaim is the claim containing the user principal.
	// Default: "sub"
	PrincipalClaim string

	// TenantClaim is the claim containing the tenant ID.
	// Default: "tenant"
	TenantClaim string

	// LocaleClaim is the claim containing the locale.
	// Default: "locale"
	LocaleClaim string

	// Methods restricts accepted signing algorithms. Default: HS256, HS384, HS512.
	Methods []string
}

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a static signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	if len(p.key) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.key, nil
}

// TokenParser validates JWTs and extracts an Identity from their claims.
type TokenParser struct {
	config TokenConfig
	keys   KeyProvider
	parser *jwt.Parser
}

// NewTokenParser creates a parser. keys must not be nil.
func NewTokenParser(config TokenConfig, keys KeyProvider) *TokenParser {
	if config.PrincipalClaim == "" {
		config.PrincipalClaim = "sub"
	}
	if config.TenantClaim == "" {
		config.TenantClaim = "tenant"
	}
	if config.LocaleClaim == "" {
		config.LocaleClaim = "locale"
	}
	if len(config.Methods) == 0 {
		config.Methods = []string{"HS256", "HS384", "HS512"}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(config.Methods)}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &TokenParser{
		config: config,
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}
}

// Parse validates token and returns the identity it carries. A leading
// "Bearer " prefix is accepted.
func (p *TokenParser) Parse(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	parsed, err := p.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return p.keys.GetKey(ctx, kid)
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	return p.buildIdentity(claims), nil
}

// SnapshotFromToken parses token and maps its claims onto a Snapshot:
// the principal claim becomes the user, plus the tenant and locale claims.
func (p *TokenParser) SnapshotFromToken(ctx context.Context, token string) (cachekey.Snapshot, error) {
	id, err := p.Parse(ctx, token)
	if err != nil {
		return cachekey.Snapshot{}, err
	}
	return SnapshotFromIdentity(id), nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrKeyNotFound)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
}

func (p *TokenParser) buildIdentity(claims jwt.MapClaims) *Identity {
	id := &Identity{Claims: make(map[string]any, len(claims))}
	for k, v := range claims {
		id.Claims[k] = v
	}

	id.Principal, _ = claims[p.config.PrincipalClaim].(string)
	id.TenantID, _ = claims[p.config.TenantClaim].(string)
	id.Locale, _ = claims[p.config.LocaleClaim].(string)

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		id.IssuedAt = iat.Time
	}
	return id
}

var _ KeyProvider = (*StaticKeyProvider)(nil)
