package access_test

import (
	"context"
	"database/sql"
	"testing"

	access "github.com/goliatone/go-access"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    user_role TEXT NOT NULL,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    login_attempts INTEGER DEFAULT 0,
    login_attempt_at TIMESTAMP NULL,
    loggedin_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

	sqliteCreateAssessments = `CREATE TABLE assessments (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    FOREIGN KEY (owner_id) REFERENCES users (id)
);`

	sqliteCreateResourceGrants = `CREATE TABLE resource_grants (
    id TEXT NOT NULL PRIMARY KEY,
    resource_id TEXT NOT NULL,
    identity_id TEXT NOT NULL,
    granted_by TEXT NOT NULL,
    granted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT uq_resource_grants_resource_identity UNIQUE (resource_id, identity_id)
);`
)

func setupRepoManager(t *testing.T) (access.RepositoryManager, *bun.DB, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateAssessments)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateResourceGrants)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return access.NewRepositoryManager(bunDB), bunDB, cleanup
}

func seedUser(t *testing.T, repo access.RepositoryManager, username string, role access.Role) *access.User {
	t.Helper()

	hash, err := access.HashPassword("super-secret-password")
	require.NoError(t, err)

	record := &access.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}

	created, err := repo.Users().Create(context.Background(), record)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	return created
}

func seedAssessment(t *testing.T, db *bun.DB, name string, ownerID uuid.UUID) *access.Assessment {
	t.Helper()

	record := &access.Assessment{
		ID:      uuid.New(),
		Name:    name,
		OwnerID: ownerID,
	}

	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)

	return record
}

func identityFor(user *access.User) TestIdentity {
	return TestIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		role:     user.Role,
	}
}

func TestRepositoryManagerValidate(t *testing.T) {
	repo, _, cleanup := setupRepoManager(t)
	defer cleanup()

	require.NoError(t, repo.Validate())
	require.NotNil(t, repo.Users())
	require.NotNil(t, repo.Grants())
	require.NotNil(t, repo.Assessments())
}
