package access_test

import (
	"context"
	"testing"

	access "github.com/goliatone/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandler(t *testing.T) {
	repo, _, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	handler := access.NewRegisterUserHandler(repo)

	t.Run("registers a user with defaults", func(t *testing.T) {
		err := handler.Execute(ctx, access.RegisterUserMessage{
			Email:    "luke@example.com",
			Password: "super-secret-password",
		})
		require.NoError(t, err)

		user, err := repo.Users().GetByIdentifier(ctx, "luke@example.com")
		require.NoError(t, err)

		// username derives from the email local part, role from the default
		assert.Equal(t, "luke", user.Username)
		assert.Equal(t, access.RoleUser, user.Role)
		assert.True(t, access.VerifyPassword("super-secret-password", user.PasswordHash))
	})

	t.Run("explicit username and role win", func(t *testing.T) {
		err := handler.Execute(ctx, access.RegisterUserMessage{
			Username: "leia-organa",
			Email:    "leia@example.com",
			Password: "super-secret-password",
			Role:     access.RoleCoach,
		})
		require.NoError(t, err)

		user, err := repo.Users().GetByIdentifier(ctx, "leia-organa")
		require.NoError(t, err)
		assert.Equal(t, access.RoleCoach, user.Role)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		err := handler.Execute(ctx, access.RegisterUserMessage{
			Email:    "yoda@example.com",
			Password: "super-secret-password",
			Role:     access.Role("grandmaster"),
		})
		assert.Error(t, err)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		err := handler.Execute(ctx, access.RegisterUserMessage{
			Email:    "luke@example.com",
			Password: "super-secret-password",
		})
		assert.Error(t, err)
	})

	t.Run("hashid derives a stable id", func(t *testing.T) {
		err := handler.Execute(ctx, access.RegisterUserMessage{
			Email:     "chewie@example.com",
			Password:  "super-secret-password",
			UseHashid: true,
		})
		require.NoError(t, err)

		user, err := repo.Users().GetByIdentifier(ctx, "chewie@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
	})
}

func TestSeedDefaultAdmin(t *testing.T) {
	repo, _, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("missing credentials are rejected", func(t *testing.T) {
		err := access.SeedDefaultAdmin(ctx, repo, "", "admin@example.com", "super-secret-password")
		assert.Error(t, err)
	})

	t.Run("seeds the bootstrap admin", func(t *testing.T) {
		err := access.SeedDefaultAdmin(ctx, repo, "admin", "admin@example.com", "super-secret-password")
		require.NoError(t, err)

		user, err := repo.Users().GetByIdentifier(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, access.RoleAdmin, user.Role)
	})

	t.Run("repeat seeding conflicts on the unique constraints", func(t *testing.T) {
		err := access.SeedDefaultAdmin(ctx, repo, "admin", "admin@example.com", "super-secret-password")
		assert.Error(t, err)
	})
}
