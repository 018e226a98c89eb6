package access_test

import (
	"context"
	"testing"

	access "github.com/goliatone/go-access"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollaboratorsGrant(t *testing.T) {
	repo, db, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	owner := seedUser(t, repo, "owner", access.RoleUser)
	collaborator := seedUser(t, repo, "collab", access.RoleUser)
	coach := seedUser(t, repo, "coach", access.RoleCoach)
	outsider := seedUser(t, repo, "outsider", access.RoleUser)

	assessment := seedAssessment(t, db, "q3 review", owner.ID)

	service := access.NewCollaborators(repo)

	t.Run("owner grants access", func(t *testing.T) {
		sink := &RecordingSink{}
		service := access.NewCollaborators(repo).WithActivitySink(sink)

		inserted, err := service.Grant(ctx, identityFor(owner), assessment.ID, collaborator.ID)
		require.NoError(t, err)
		assert.True(t, inserted)

		require.Len(t, sink.Events, 1)
		assert.Equal(t, access.ActivityEventGrantCreated, sink.Events[0].EventType)
		assert.Equal(t, assessment.ID.String(), sink.Events[0].ResourceID)
	})

	t.Run("repeat grant reports already granted", func(t *testing.T) {
		sink := &RecordingSink{}
		service := access.NewCollaborators(repo).WithActivitySink(sink)

		inserted, err := service.Grant(ctx, identityFor(owner), assessment.ID, collaborator.ID)
		require.NoError(t, err)
		assert.False(t, inserted)

		// no event for a grant that already existed
		assert.Empty(t, sink.Events)
	})

	t.Run("coach grants on a resource it does not own", func(t *testing.T) {
		inserted, err := service.Grant(ctx, identityFor(coach), assessment.ID, outsider.ID)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("non owner user cannot grant", func(t *testing.T) {
		_, err := service.Grant(ctx, identityFor(outsider), assessment.ID, coach.ID)
		assert.ErrorIs(t, err, access.ErrUnauthorized)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := service.Grant(ctx, identityFor(owner), uuid.New(), collaborator.ID)
		assert.ErrorIs(t, err, access.ErrRecordNotFound)
	})

	t.Run("unknown grantee", func(t *testing.T) {
		_, err := service.Grant(ctx, identityFor(owner), assessment.ID, uuid.New())
		assert.ErrorIs(t, err, access.ErrRecordNotFound)
	})
}

func TestCollaboratorsRevoke(t *testing.T) {
	repo, db, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	owner := seedUser(t, repo, "owner", access.RoleUser)
	collaborator := seedUser(t, repo, "collab", access.RoleUser)

	assessment := seedAssessment(t, db, "q3 review", owner.ID)

	sink := &RecordingSink{}
	service := access.NewCollaborators(repo).WithActivitySink(sink)

	_, err := service.Grant(ctx, identityFor(owner), assessment.ID, collaborator.ID)
	require.NoError(t, err)

	removed, err := service.Revoke(ctx, identityFor(owner), assessment.ID, collaborator.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	t.Run("revoking again is a no-op", func(t *testing.T) {
		removed, err := service.Revoke(ctx, identityFor(owner), assessment.ID, collaborator.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("non owner cannot revoke", func(t *testing.T) {
		_, err := service.Revoke(ctx, identityFor(collaborator), assessment.ID, collaborator.ID)
		assert.ErrorIs(t, err, access.ErrUnauthorized)
	})
}

func TestCollaboratorsHasAccess(t *testing.T) {
	repo, db, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	owner := seedUser(t, repo, "owner", access.RoleUser)
	collaborator := seedUser(t, repo, "collab", access.RoleUser)
	outsider := seedUser(t, repo, "outsider", access.RoleUser)

	assessment := seedAssessment(t, db, "q3 review", owner.ID)

	service := access.NewCollaborators(repo)

	_, err := service.Grant(ctx, identityFor(owner), assessment.ID, collaborator.ID)
	require.NoError(t, err)

	t.Run("owner always has access", func(t *testing.T) {
		ok, err := service.HasAccess(ctx, assessment.ID, owner.ID, assessment.OwnerID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("collaborator has access through the grant", func(t *testing.T) {
		ok, err := service.HasAccess(ctx, assessment.ID, collaborator.ID, assessment.OwnerID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("outsider has no access", func(t *testing.T) {
		ok, err := service.HasAccess(ctx, assessment.ID, outsider.ID, assessment.OwnerID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revocation removes access", func(t *testing.T) {
		_, err := service.Revoke(ctx, identityFor(owner), assessment.ID, collaborator.ID)
		require.NoError(t, err)

		ok, err := service.HasAccess(ctx, assessment.ID, collaborator.ID, assessment.OwnerID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCollaboratorsDeleteResource(t *testing.T) {
	repo, db, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	owner := seedUser(t, repo, "owner", access.RoleUser)
	collaborator := seedUser(t, repo, "collab", access.RoleUser)
	outsider := seedUser(t, repo, "outsider", access.RoleUser)

	assessment := seedAssessment(t, db, "q3 review", owner.ID)

	service := access.NewCollaborators(repo)

	_, err := service.Grant(ctx, identityFor(owner), assessment.ID, collaborator.ID)
	require.NoError(t, err)

	t.Run("non owner cannot delete the resource", func(t *testing.T) {
		err := service.DeleteResource(ctx, identityFor(outsider), assessment.ID)
		assert.ErrorIs(t, err, access.ErrUnauthorized)
	})

	t.Run("owner delete cascades to grants", func(t *testing.T) {
		require.NoError(t, service.DeleteResource(ctx, identityFor(owner), assessment.ID))

		_, err := repo.Assessments().GetByID(ctx, assessment.ID.String())
		assert.True(t, repository.IsRecordNotFound(err))

		grants, err := repo.Grants().ListForResource(ctx, assessment.ID)
		require.NoError(t, err)
		assert.Empty(t, grants)
	})
}
