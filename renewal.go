package access

import (
	"context"
	"time"
)

// ExpiryClassifier classifies a raw token into the expiry tri-state.
type ExpiryClassifier interface {
	ClassifyExpiryAt(tokenString string, window time.Duration, now time.Time) ExpiryState
}

// RenewalResult is the outcome of a renewal decision.
type RenewalResult struct {
	// Claims are the claims the caller should consider current: the original
	// token's claims when no renewal happened, the replacement's otherwise.
	Claims AuthClaims
	// Token is the replacement token. Empty unless Renewed is true.
	Token string
	// Renewed signals the caller must replace the stored credential.
	Renewed bool
	// State is the expiry classification of the presented token.
	State ExpiryState
}

// Renewer decides, per request, whether to silently replace a token nearing
// expiry. Renewal is not globally ordered: two concurrent renewals for the
// same subject may both succeed and both tokens stay valid until their own
// expiry.
type Renewer struct {
	tokens     TokenService
	classifier ExpiryClassifier
	window     time.Duration
	logger     Logger
	sink       ActivitySink
	now        func() time.Time
}

// RenewerOption customizes a Renewer.
type RenewerOption func(*Renewer)

// WithRenewalWindow overrides the default renewal window.
func WithRenewalWindow(window time.Duration) RenewerOption {
	return func(r *Renewer) {
		if window > 0 {
			r.window = window
		}
	}
}

// WithRenewerLogger overrides the default logger.
func WithRenewerLogger(logger Logger) RenewerOption {
	return func(r *Renewer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRenewerActivitySink configures an ActivitySink for renewal events.
func WithRenewerActivitySink(sink ActivitySink) RenewerOption {
	return func(r *Renewer) {
		r.sink = normalizeActivitySink(sink)
	}
}

// NewRenewer returns a Renewer bound to the given token service. The token
// service must also classify expiry (TokenServiceImpl does).
func NewRenewer(tokens TokenService, opts ...RenewerOption) *Renewer {
	r := &Renewer{
		tokens: tokens,
		window: DefaultRenewalWindow,
		logger: defLogger{},
		sink:   noopActivitySink{},
		now:    time.Now,
	}

	if classifier, ok := tokens.(ExpiryClassifier); ok {
		r.classifier = classifier
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Renew validates raw and, when requested and the token is inside the renewal
// window, mints a replacement token for the same subject. An expired or
// undecodable token is refused with the strict validation error; the caller
// must re-authenticate. When requested is false, or the token has more than
// the window left, the existing claims come back unchanged and no token is
// minted.
func (r *Renewer) Renew(ctx context.Context, raw string, requested bool) (*RenewalResult, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	state := ExpiryValid
	if r.classifier != nil {
		state = r.classifier.ClassifyExpiryAt(raw, r.window, r.now())
	}

	if state == ExpiryExpired {
		// Validate raced past the expiry boundary; treat as the strict path would.
		return nil, ErrTokenExpired
	}

	if !requested || state != ExpiryRenewalDue {
		return &RenewalResult{Claims: claims, State: state}, nil
	}

	replacement, err := r.tokens.Issue(claims.UserID(), claims.Role())
	if err != nil {
		r.logger.Error("Renew failed to mint replacement token", "error", err)
		return nil, err
	}

	renewed, err := r.tokens.Validate(replacement)
	if err != nil {
		r.logger.Error("Renew minted an unvalidatable token", "error", err)
		return nil, err
	}

	r.emitRenewal(ctx, claims, renewed)

	return &RenewalResult{
		Claims:  renewed,
		Token:   replacement,
		Renewed: true,
		State:   state,
	}, nil
}

func (r *Renewer) emitRenewal(ctx context.Context, old, renewed AuthClaims) {
	event := ActivityEvent{
		EventType:  ActivityEventTokenRenewed,
		Actor:      ActorRef{ID: old.UserID(), Type: "user"},
		UserID:     old.UserID(),
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"old_expires_at": old.Expires(),
			"new_expires_at": renewed.Expires(),
		},
	}

	if err := r.sink.Record(ctx, event); err != nil {
		r.logger.Warn("activity sink record error: %v", err)
	}
}
