package access

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRenewalWindow is the trailing interval before expiry during which a
// replacement token may be silently issued. Policy constant, overridable via
// Config.
const DefaultRenewalWindow = 180 * time.Second

// ExpiryState is the tri-state classification of a token's remaining
// lifetime. It backs UI-facing status checks only; access-control decisions
// always go through the strict TokenService.Validate path.
type ExpiryState int

const (
	// ExpiryExpired means the token's lifetime is over, or the token could
	// not be decoded at all (soft classification).
	ExpiryExpired ExpiryState = iota
	// ExpiryRenewalDue means the token is still valid but inside the
	// renewal window.
	ExpiryRenewalDue
	// ExpiryValid means the token has more lifetime left than the window.
	ExpiryValid
)

func (s ExpiryState) String() string {
	switch s {
	case ExpiryExpired:
		return "expired"
	case ExpiryRenewalDue:
		return "renewal_due"
	case ExpiryValid:
		return "valid"
	default:
		return "unknown"
	}
}

// ClassifyRemaining maps a remaining lifetime to an ExpiryState. The boundary
// at zero is expired (<=), the boundary at exactly window remaining is valid
// (strictly less than window is renewal due).
func ClassifyRemaining(remaining, window time.Duration) ExpiryState {
	if remaining <= 0 {
		return ExpiryExpired
	}
	if remaining < window {
		return ExpiryRenewalDue
	}
	return ExpiryValid
}

// ClassifyExpiry classifies tokenString against the renewal window at the
// current time.
func (ts *TokenServiceImpl) ClassifyExpiry(tokenString string, window time.Duration) ExpiryState {
	return ts.ClassifyExpiryAt(tokenString, window, time.Now())
}

// ClassifyExpiryAt classifies tokenString as of now. Signature verification
// still applies, but a token that fails to decode degrades to ExpiryExpired
// rather than raising, so status-check callers always get a uniform tri-state
// result.
func (ts *TokenServiceImpl) ClassifyExpiryAt(tokenString string, window time.Duration, now time.Time) ExpiryState {
	claims, err := ts.decodeUnvalidated(tokenString)
	if err != nil {
		return ExpiryExpired
	}

	exp := claims.Expires()
	if exp.IsZero() {
		return ExpiryExpired
	}

	return ClassifyRemaining(exp.Sub(now), window)
}

// decodeUnvalidated verifies the signature and shape of a token but skips
// claim validation, so expired tokens still decode.
func (ts *TokenServiceImpl) decodeUnvalidated(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return ts.signingKey, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrUnableToDecodeSession
	}

	return claims, nil
}
