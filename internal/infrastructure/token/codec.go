package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and verifies HS256 JWTs with a process-wide secret key.
// It is stateless: validity is a pure function of the token, the secret and
// the clock. Revocation is layered on top by the session manager.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// AccessToken issues a short-lived token whose subject is the member id.
func (c *Codec) AccessToken(memberID int64) (string, error) {
	return c.issue(strconv.FormatInt(memberID, 10), c.accessTTL)
}

// RefreshToken issues a longer-lived token without a subject. It is used only
// as an opaque credential against the stored copy, never decoded for identity.
func (c *Codec) RefreshToken() (string, error) {
	return c.issue("", c.refreshTTL)
}

func (c *Codec) issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if subject != "" {
		claims.Subject = subject
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify reports whether the signature matches and the token is not expired.
// Malformed input yields false, never an error.
func (c *Codec) Verify(tokenStr string) bool {
	tok, err := c.parser.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, c.keyFunc)
	return err == nil && tok.Valid
}

// MemberID decodes the subject of a token. Callers must Verify first or treat
// an error as "no identity".
func (c *Codec) MemberID(tokenStr string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := c.parser.ParseWithClaims(tokenStr, claims, c.keyFunc); err != nil {
		return 0, err
	}
	if claims.Subject == "" {
		return 0, errors.New("token has no subject")
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// RemainingLifetime returns how long the token would still validate, clamped
// to zero for expired or unreadable tokens. It is a total function.
func (c *Codec) RemainingLifetime(tokenStr string) time.Duration {
	claims := &jwt.RegisteredClaims{}
	_, err := c.parser.ParseWithClaims(tokenStr, claims, c.keyFunc)
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
		return remaining
	}
	return 0
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	return c.secret, nil
}
