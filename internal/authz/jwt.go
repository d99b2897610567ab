// Package authz issues and validates short-lived action tokens. A token
// authorizes one caller identity to perform one ledger action, standing in
// for the signature a wallet would attach to a transaction.
package authz

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

// Ledger actions that require authorization.
const (
	ActionSubmitRecord     = "ledger:submit_record"
	ActionSubmitDisclosure = "ledger:submit_disclosure"
)

const audience = "cipherledger-ledger"

// Claims are the action token claims. Subject is the caller identity.
type Claims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// JWTService signs and validates action tokens with HMAC-SHA256.
type JWTService struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
}

// IssueActionToken signs a token letting caller perform action for ttl.
func (s *JWTService) IssueActionToken(caller id.Identity, action string, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateAction checks the token and that it was issued for action,
// returning the authorized caller.
func (s *JWTService) ValidateAction(tokenString, action string) (id.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Action != action {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token not valid for "+action)
	}
	caller, err := id.ParseIdentity(claims.Subject)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return caller, nil
}
