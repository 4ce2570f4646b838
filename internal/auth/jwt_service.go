package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "smp/internal/errors"
	"smp/internal/model"
)

const (
	// AdminTokenExpiry is the lifetime of administrator tokens.
	AdminTokenExpiry = 6 * time.Hour
	// TeacherTokenExpiry is the lifetime of teacher tokens.
	TeacherTokenExpiry = 7 * 24 * time.Hour
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = apperrors.Forbidden("Session expired, please login again")
	// ErrTokenMalformed is returned for anything else that fails verification.
	ErrTokenMalformed = apperrors.Forbidden("Invalid token")
	// ErrEmptySecret is returned when the service is built without a signing secret.
	ErrEmptySecret = errors.New("jwt secret must not be empty")
)

// Claims represents JWT claims. IssueDate keeps full precision so it can be compared with the
// actor's last password change; the registered iat is second-granular.
type Claims struct {
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	IssueDate time.Time  `json:"issueDate"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(email string, role model.Role, issuedAt time.Time, ttl time.Duration) (string, error)
	Verify(token string) (*Claims, error)
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
}

var _ TokenIssuer = (*JWTService)(nil)

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) (*JWTService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTService{
		secret: []byte(secret),
	}, nil
}

// Issue signs a token for email and role, valid from issuedAt for ttl.
func (s *JWTService) Issue(email string, role model.Role, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		Email:     email,
		Role:      role,
		IssueDate: issuedAt.UTC(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Audience:  jwt.ClaimStrings{string(role)},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims. Expired tokens fail with
// ErrTokenExpired, every other failure with ErrTokenMalformed.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" || claims.IssueDate.IsZero() {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
