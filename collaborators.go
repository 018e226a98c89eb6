package access

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Collaborators manages per-resource access grants on top of ownership. A
// grant is independent of role dominance: holding one gives access to that
// one resource, nothing more.
type Collaborators struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

// NewCollaborators returns a Collaborators service backed by the given
// repositories.
func NewCollaborators(repo RepositoryManager) *Collaborators {
	return &Collaborators{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (c *Collaborators) WithLogger(logger Logger) *Collaborators {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithActivitySink configures an ActivitySink for grant events.
func (c *Collaborators) WithActivitySink(sink ActivitySink) *Collaborators {
	c.sink = normalizeActivitySink(sink)
	return c
}

// Grant gives identityID access to the resource. The grantor must own the
// resource or hold at least the coach role. Returns false when the grant
// already existed; callers must treat that as "already granted", not success.
func (c *Collaborators) Grant(ctx context.Context, grantor Identity, resourceID, identityID uuid.UUID) (bool, error) {
	resource, err := c.fetchResource(ctx, resourceID)
	if err != nil {
		return false, err
	}

	if err := c.authorizeGrantor(ctx, grantor, resource, "grant.create"); err != nil {
		return false, err
	}

	if _, err := c.repo.Users().GetByIdentifier(ctx, identityID.String()); err != nil {
		if repository.IsRecordNotFound(err) {
			return false, ErrRecordNotFound
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve grantee")
	}

	grantorID, err := uuid.Parse(grantor.ID())
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid grantor id")
	}

	inserted, err := c.repo.Grants().Grant(ctx, resourceID, identityID, grantorID)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert grant")
	}

	if inserted {
		c.emitEvent(ctx, ActivityEventGrantCreated, grantor, resourceID, identityID)
	}

	return inserted, nil
}

// Revoke removes identityID's grant on the resource, reporting whether one
// existed. Revoking an absent grant is an idempotent no-op.
func (c *Collaborators) Revoke(ctx context.Context, grantor Identity, resourceID, identityID uuid.UUID) (bool, error) {
	resource, err := c.fetchResource(ctx, resourceID)
	if err != nil {
		return false, err
	}

	if err := c.authorizeGrantor(ctx, grantor, resource, "grant.revoke"); err != nil {
		return false, err
	}

	removed, err := c.repo.Grants().Revoke(ctx, resourceID, identityID)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke grant")
	}

	if removed {
		c.emitEvent(ctx, ActivityEventGrantRevoked, grantor, resourceID, identityID)
	}

	return removed, nil
}

// HasAccess reports whether identityID may access the resource: owners
// always, everyone else only through an active grant. The check is role
// blind; role-based dashboard access is evaluated separately.
func (c *Collaborators) HasAccess(ctx context.Context, resourceID, identityID, ownerID uuid.UUID) (bool, error) {
	if identityID == ownerID {
		return true, nil
	}

	return c.repo.Grants().HasGrant(ctx, resourceID, identityID)
}

// DeleteResource removes an assessment and cascades the deletion of its
// grants in a single transaction.
func (c *Collaborators) DeleteResource(ctx context.Context, actor Identity, resourceID uuid.UUID) error {
	resource, err := c.fetchResource(ctx, resourceID)
	if err != nil {
		return err
	}

	if err := c.authorizeGrantor(ctx, actor, resource, "resource.delete"); err != nil {
		return err
	}

	return c.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := c.repo.Grants().DeleteForResourceTx(ctx, tx, resourceID); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*Assessment)(nil)).
			Where("id = ?", resourceID).
			Exec(ctx)
		return err
	})
}

func (c *Collaborators) fetchResource(ctx context.Context, resourceID uuid.UUID) (*Assessment, error) {
	resource, err := c.repo.Assessments().GetByID(ctx, resourceID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrRecordNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve resource")
	}
	return resource, nil
}

func (c *Collaborators) authorizeGrantor(ctx context.Context, grantor Identity, resource *Assessment, operation string) error {
	if grantor.ID() == resource.OwnerID.String() {
		return nil
	}

	if grantor.Role().IsAtLeast(RoleCoach) {
		return nil
	}

	event := ActivityEvent{
		EventType:  ActivityEventAccessDenied,
		Actor:      ActorRef{ID: grantor.ID(), Type: "user"},
		ResourceID: resource.ID.String(),
		Metadata:   map[string]any{"operation": operation},
		OccurredAt: time.Now(),
	}
	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}

	return ErrUnauthorized
}

func (c *Collaborators) emitEvent(ctx context.Context, eventType ActivityEventType, grantor Identity, resourceID, identityID uuid.UUID) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: grantor.ID(), Type: "user"},
		UserID:     identityID.String(),
		ResourceID: resourceID.String(),
		OccurredAt: time.Now(),
	}

	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}
