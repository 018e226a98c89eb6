package access

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity model. The user_role column is constrained to the
// three-value enumeration; role mutation only happens through an authorized
// update.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Assessment is a resource owned by an identity. Collaborator grants layer on
// top of this ownership.
type Assessment struct {
	bun.BaseModel `bun:"table:assessments,alias:asmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Owner         *User      `bun:"rel:has-one,join:owner_id=id" json:"owner,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ResourceGrant is an explicit, revocable access record giving a non-owner
// identity rights to a specific resource. At most one grant exists per
// (resource, identity) pair at any time.
type ResourceGrant struct {
	bun.BaseModel `bun:"table:resource_grants,alias:rg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ResourceID    uuid.UUID  `bun:"resource_id,notnull,type:uuid" json:"resource_id,omitempty"`
	IdentityID    uuid.UUID  `bun:"identity_id,notnull,type:uuid" json:"identity_id,omitempty"`
	GrantedBy     uuid.UUID  `bun:"granted_by,notnull,type:uuid" json:"granted_by,omitempty"`
	GrantedAt     *time.Time `bun:"granted_at,nullzero,default:current_timestamp" json:"granted_at,omitempty"`
}
