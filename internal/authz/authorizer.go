package authz

import (
	"context"
	"time"

	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

// Approver asks the caller whether an action may be signed. Returning false
// means the caller declined.
type Approver func(ctx context.Context, caller id.Identity, action string) bool

// ApproveAll signs every request; used by non-interactive clients.
func ApproveAll(context.Context, id.Identity, string) bool { return true }

// TokenAuthorizer turns approved actions into action tokens.
type TokenAuthorizer struct {
	tokens  *JWTService
	ttl     time.Duration
	approve Approver
}

func NewTokenAuthorizer(tokens *JWTService, ttl time.Duration, approve Approver) *TokenAuthorizer {
	if approve == nil {
		approve = ApproveAll
	}
	return &TokenAuthorizer{tokens: tokens, ttl: ttl, approve: approve}
}

// Authorize returns a token for caller to perform action, or a
// CodeTransportRejected error when the caller declines.
func (a *TokenAuthorizer) Authorize(ctx context.Context, caller id.Identity, action string) (string, error) {
	if !a.approve(ctx, caller, action) {
		return "", dErrors.New(dErrors.CodeTransportRejected, "caller declined to authorize "+action)
	}
	token, err := a.tokens.IssueActionToken(caller, action, a.ttl)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign action token")
	}
	return token, nil
}
