package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	// AdminSubject is the token subject of the shared admin account, which
	// lives in configuration rather than in the users table.
	AdminSubject = "admin"

	accessTokenType = "access"
)

var errNotAccessToken = errors.New("not an access token")

// AccessClaims is the payload of a signed session token.
type AccessClaims struct {
	Type     string   `json:"typ"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

type TokenService struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
}

func (t TokenService) HashPassword(raw string) (string, error) {
	return defaultArgon2.hash(raw)
}

// VerifyPassword accepts argon2id hashes and legacy bcrypt hashes.
func (t TokenService) VerifyPassword(raw, hashed string) bool {
	return verifyPassword(raw, hashed)
}

// CreateAccessToken signs an HS256 token for the identity and returns it with
// its expiry as unix seconds.
func (t TokenService) CreateAccessToken(userID, username string, roles []string) (string, int64, error) {
	issued := time.Now().UTC().Truncate(time.Second)
	expires := issued.Add(t.AccessTTL)
	claims := AccessClaims{
		Type:     accessTokenType,
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, expires.Unix(), nil
}

// ParseAccessToken verifies signature, issuer and expiry, and rejects tokens
// that are not access tokens or carry no subject.
func (t TokenService) ParseAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.Secret, nil
	},
		jwt.WithIssuer(t.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if claims.Type != accessTokenType || claims.Subject == "" {
		return nil, errNotAccessToken
	}
	return claims, nil
}
