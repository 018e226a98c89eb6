package activitymap_test

import (
	"context"
	"testing"
	"time"

	access "github.com/goliatone/go-access"
	"github.com/goliatone/go-access/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC)
	event := access.ActivityEvent{
		EventType: access.ActivityEventUserUpdated,
		Actor:     access.ActorRef{ID: "admin-42", Type: "user"},
		UserID:    "user-100",
		Metadata: map[string]any{
			"role": "coach",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "admin-42" {
		t.Fatalf("expected actor_id admin-42, got %q", out.ActorID)
	}
	if out.Verb != string(access.ActivityEventUserUpdated) {
		t.Fatalf("expected verb %q, got %q", access.ActivityEventUserUpdated, out.Verb)
	}
	if out.ObjectType != "user" {
		t.Fatalf("expected object_type user, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-100" {
		t.Fatalf("expected object_id user-100, got %q", out.ObjectID)
	}
	if out.Channel != "access" {
		t.Fatalf("expected channel access, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["role"] != "coach" {
		t.Fatalf("expected metadata role coach, got %#v", out.Metadata["role"])
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "user" {
		t.Fatalf("expected metadata actor_type user, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
}

func TestNormalizeResourceEvent(t *testing.T) {
	t.Parallel()

	event := access.ActivityEvent{
		EventType:  access.ActivityEventGrantCreated,
		Actor:      access.ActorRef{ID: "owner-1", Type: "user"},
		UserID:     "collab-2",
		ResourceID: "assessment-9",
	}

	out := activitymap.Normalize(event)

	if out.ObjectType != "assessment" {
		t.Fatalf("expected object_type assessment, got %q", out.ObjectType)
	}
	if out.ObjectID != "assessment-9" {
		t.Fatalf("expected object_id assessment-9, got %q", out.ObjectID)
	}
	if out.Metadata[activitymap.MetadataKeyUserID] != "collab-2" {
		t.Fatalf("expected affected user collab-2 in metadata, got %#v", out.Metadata[activitymap.MetadataKeyUserID])
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	t.Parallel()

	event := access.ActivityEvent{
		EventType: access.ActivityEventLoginFailure,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "system" {
		t.Fatalf("expected system actor fallback, got %q", out.ActorID)
	}
	if out.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be filled in")
	}
	if out.Metadata != nil {
		t.Fatalf("expected empty metadata, got %#v", out.Metadata)
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	event := access.ActivityEvent{
		EventType: access.ActivityEventLoginSuccess,
		UserID:    "user-100",
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel("audit"),
		activitymap.WithActorFallback("scheduler"),
		activitymap.WithObjectIDResolver(func(e access.ActivityEvent) string {
			return "custom-" + e.UserID
		}),
	)

	if out.Channel != "audit" {
		t.Fatalf("expected channel audit, got %q", out.Channel)
	}
	if out.ActorID != "scheduler" {
		t.Fatalf("expected actor fallback scheduler, got %q", out.ActorID)
	}
	if out.ObjectID != "custom-user-100" {
		t.Fatalf("expected resolver object id, got %q", out.ObjectID)
	}
}

func TestSink(t *testing.T) {
	t.Parallel()

	var got activitymap.Normalized
	sink := activitymap.Sink(func(n activitymap.Normalized) error {
		got = n
		return nil
	})

	event := access.ActivityEvent{
		EventType: access.ActivityEventTokenRenewed,
		Actor:     access.ActorRef{ID: "user-7", Type: "user"},
		UserID:    "user-7",
	}

	if err := sink.Record(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Verb != string(access.ActivityEventTokenRenewed) {
		t.Fatalf("expected renewed verb, got %q", got.Verb)
	}
}
