package activitymap

import (
	"context"
	"strings"
	"time"

	access "github.com/goliatone/go-access"
)

const (
	// MetadataKeyActorType stores the actor type derived from access.ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyUserID stores the subject user when the event targets a resource.
	MetadataKeyUserID = "user_id"
)

const (
	defaultChannel        = "access"
	defaultUserObject     = "user"
	defaultResourceObject = "assessment"
	defaultActorID        = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	actorFallback    string
	objectIDResolver func(access.ActivityEvent) string
}

// Normalize converts an access.ActivityEvent into a generic normalized shape.
// Events that carry a resource id are objectified as the resource, with the
// affected user preserved in metadata; everything else objectifies the user.
func Normalize(event access.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(event.Actor.ID),
		strings.TrimSpace(options.actorFallback),
	)

	objectType := defaultUserObject
	if strings.TrimSpace(event.ResourceID) != "" {
		objectType = defaultResourceObject
	}

	objectID := resolveObjectID(event, options.objectIDResolver)
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(options.channel),
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithObjectIDResolver overrides object-id extraction from ActivityEvent.
func WithObjectIDResolver(resolver func(access.ActivityEvent) string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the final actor-id fallback when the actor id is empty.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// Sink adapts a consumer of normalized records into an access.ActivitySink.
func Sink(consume func(Normalized) error, opts ...Option) access.ActivitySinkFunc {
	return func(_ context.Context, event access.ActivityEvent) error {
		return consume(Normalize(event, opts...))
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		actorFallback: defaultActorID,
	}
}

func resolveObjectID(event access.ActivityEvent, resolver func(access.ActivityEvent) string) string {
	if resolver != nil {
		return strings.TrimSpace(resolver(event))
	}
	if resourceID := strings.TrimSpace(event.ResourceID); resourceID != "" {
		return resourceID
	}
	return strings.TrimSpace(event.UserID)
}

func normalizeMetadata(event access.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[MetadataKeyActorType]; !exists {
			metadata[MetadataKeyActorType] = actorType
		}
	}

	if strings.TrimSpace(event.ResourceID) != "" && strings.TrimSpace(event.UserID) != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[MetadataKeyUserID] = strings.TrimSpace(event.UserID)
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
