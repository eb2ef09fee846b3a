package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claim names carried by access tokens.
const (
	ClaimUserID       = "user_id"
	ClaimIsAdmin      = "is_admin"
	ClaimOrganization = "organization"
	ClaimType         = "type"
)

var ErrInvalidClaims = errors.New("token is missing required claims")

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID       string
	IsAdmin      bool
	Organization string
}

type Service interface {
	GenerateAccessToken(userID string, isAdmin bool, organization string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expiration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpiration: expiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(userID string, isAdmin bool, organization string) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		ClaimUserID:       userID,
		ClaimIsAdmin:      isAdmin,
		ClaimOrganization: organization,
		ClaimType:         "access",
		"exp":             expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// IdentityFromContext reads the identity from a token verified by
// jwtauth.Verifier.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Identity{}, err
	}

	if tokenType, _ := claims[ClaimType].(string); tokenType != "access" {
		return Identity{}, ErrInvalidClaims
	}
	userID, _ := claims[ClaimUserID].(string)
	if userID == "" {
		return Identity{}, ErrInvalidClaims
	}
	isAdmin, _ := claims[ClaimIsAdmin].(bool)
	organization, _ := claims[ClaimOrganization].(string)

	return Identity{UserID: userID, IsAdmin: isAdmin, Organization: organization}, nil
}
