package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Grants is the store for per-resource, per-identity access records.
type Grants interface {
	// Grant inserts a unique grant. It returns false, not an error, when a
	// grant already exists for the (resource, identity) pair.
	Grant(ctx context.Context, resourceID, identityID, grantedBy uuid.UUID) (bool, error)
	// Revoke removes a grant, reporting whether one existed. Revoking an
	// absent grant is an idempotent no-op.
	Revoke(ctx context.Context, resourceID, identityID uuid.UUID) (bool, error)
	// HasGrant reports whether an active grant exists for the pair.
	HasGrant(ctx context.Context, resourceID, identityID uuid.UUID) (bool, error)
	// ListForResource returns all grants for a resource.
	ListForResource(ctx context.Context, resourceID uuid.UUID) ([]*ResourceGrant, error)
	// DeleteForResource removes every grant of a resource. Used when the
	// owning resource is deleted so grants cascade.
	DeleteForResource(ctx context.Context, resourceID uuid.UUID) error
	DeleteForResourceTx(ctx context.Context, tx bun.IDB, resourceID uuid.UUID) error
}

// GrantsRepository implements Grants using Bun. Uniqueness is enforced by the
// store's UNIQUE (resource_id, identity_id) constraint, not by a read-check.
type GrantsRepository struct {
	db *bun.DB
}

var _ Grants = (*GrantsRepository)(nil)

// NewGrantsRepository creates a new repository.
func NewGrantsRepository(db *bun.DB) *GrantsRepository {
	return &GrantsRepository{db: db}
}

func (r *GrantsRepository) Grant(ctx context.Context, resourceID, identityID, grantedBy uuid.UUID) (bool, error) {
	now := time.Now()
	grant := &ResourceGrant{
		ID:         uuid.New(),
		ResourceID: resourceID,
		IdentityID: identityID,
		GrantedBy:  grantedBy,
		GrantedAt:  &now,
	}

	res, err := r.db.NewInsert().
		Model(grant).
		On("CONFLICT (resource_id, identity_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return inserted > 0, nil
}

func (r *GrantsRepository) Revoke(ctx context.Context, resourceID, identityID uuid.UUID) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*ResourceGrant)(nil)).
		Where("resource_id = ? AND identity_id = ?", resourceID, identityID).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return deleted > 0, nil
}

func (r *GrantsRepository) HasGrant(ctx context.Context, resourceID, identityID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*ResourceGrant)(nil)).
		Where("resource_id = ? AND identity_id = ?", resourceID, identityID).
		Exists(ctx)
}

func (r *GrantsRepository) ListForResource(ctx context.Context, resourceID uuid.UUID) ([]*ResourceGrant, error) {
	var grants []*ResourceGrant
	err := r.db.NewSelect().
		Model(&grants).
		Where("resource_id = ?", resourceID).
		Order("granted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *GrantsRepository) DeleteForResource(ctx context.Context, resourceID uuid.UUID) error {
	return r.DeleteForResourceTx(ctx, r.db, resourceID)
}

func (r *GrantsRepository) DeleteForResourceTx(ctx context.Context, tx bun.IDB, resourceID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*ResourceGrant)(nil)).
		Where("resource_id = ?", resourceID).
		Exec(ctx)
	return err
}
