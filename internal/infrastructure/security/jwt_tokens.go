package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-gateway/internal/core/domain"
)

const DefaultTokenTTL = 30 * time.Minute

// TokenConfig configures JWTService.
type TokenConfig struct {
	Secret    []byte
	Algorithm string        // HS256, HS384 or HS512
	TTL       time.Duration // defaults to DefaultTokenTTL
	Leeway    time.Duration // clock skew tolerance, zero by default
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HMAC-signed JWT access tokens. It holds no
// per-token state; the secret is read-only after construction.
type JWTService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	leeway time.Duration
}

func NewJWTService(cfg TokenConfig) (*JWTService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token service: empty signing secret")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token service: unsupported algorithm %q", alg)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{secret: cfg.Secret, method: method, ttl: ttl, leeway: cfg.Leeway}, nil
}

// TTL returns the lifetime given to issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject with iat=now and exp=now+ttl.
func (s *JWTService) Issue(subject string, role domain.Role, now time.Time) (string, error) {
	claims := accessClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry against now. Every failure is
// reported as domain.ErrUnauthenticated.
func (s *JWTService) Verify(token string, now time.Time) (*domain.TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	)

	var claims accessClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrUnauthenticated)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	out := &domain.TokenClaims{
		ID:      claims.ID,
		Subject: claims.Subject,
		Role:    role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
