package access

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// CreateUserInput is the payload for creating an identity.
type CreateUserInput struct {
	ID       string `form:"id" json:"id"`
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     Role   `form:"role" json:"role"`
}

// Validate will run validation rules
func (r CreateUserInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(12, 128),
		),
	)
}

// UpdateUserInput is the payload for modifying an identity. Password is
// optional; when empty the stored hash is kept.
type UpdateUserInput struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     Role   `form:"role" json:"role"`
}

// Validate will run validation rules
func (r UpdateUserInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Length(12, 128),
		),
	)
}

// UserManager gates identity CRUD behind the role hierarchy. Every denial is
// an ErrUnauthorized the caller can observe; nothing is downgraded to a
// silent no-op. Identity and role state is re-read from the store on each
// decision.
type UserManager struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

// NewUserManager returns a UserManager backed by the given repositories.
func NewUserManager(repo RepositoryManager) *UserManager {
	return &UserManager{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (m *UserManager) WithLogger(logger Logger) *UserManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for user management events.
func (m *UserManager) WithActivitySink(sink ActivitySink) *UserManager {
	m.sink = normalizeActivitySink(sink)
	return m
}

// Create makes a new identity when the actor may grant the requested role.
func (m *UserManager) Create(ctx context.Context, actor Identity, input CreateUserInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user payload")
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}

	if !role.IsValid() {
		return nil, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": string(role)})
	}

	if !CanCreateUser(actor.Role(), role) {
		m.emitDenied(ctx, actor, "", "user.create", map[string]any{"role": string(role)})
		return nil, ErrUnauthorized
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	record := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
	}

	if input.ID != "" {
		id, err := uuid.Parse(input.ID)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user id")
		}
		record.ID = id
	}

	created, err := m.repo.Users().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	m.emitEvent(ctx, ActivityEventUserCreated, actor, created.ID.String(), nil)

	return created, nil
}

// Get retrieves an identity the actor is allowed to see. Visibility follows
// the modification rules: self, dominated roles, and the coach peer case.
func (m *UserManager) Get(ctx context.Context, actor Identity, id uuid.UUID) (*User, error) {
	target, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanModifyUser(actor.ID(), actor.Role(), target.ID.String(), target.Role) {
		m.emitDenied(ctx, actor, target.ID.String(), "user.get", nil)
		return nil, ErrUnauthorized
	}

	return target, nil
}

// List returns every identity; coaches and admins only.
func (m *UserManager) List(ctx context.Context, actor Identity) ([]*User, error) {
	if !actor.Role().IsAtLeast(RoleCoach) {
		m.emitDenied(ctx, actor, "", "user.list", nil)
		return nil, ErrUnauthorized
	}

	return m.repo.Users().ListAll(ctx)
}

// Update modifies an identity. The actor must be allowed to touch the target
// at all, and a role change additionally requires the actor to be able to
// grant both the prior and the requested role. An unchanged role skips the
// hierarchy check entirely.
func (m *UserManager) Update(ctx context.Context, actor Identity, id uuid.UUID, input UpdateUserInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user payload")
	}

	target, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanModifyUser(actor.ID(), actor.Role(), target.ID.String(), target.Role) {
		m.emitDenied(ctx, actor, target.ID.String(), "user.update", nil)
		return nil, ErrUnauthorized
	}

	nextRole := input.Role
	if nextRole == "" {
		nextRole = target.Role
	}

	if !nextRole.IsValid() {
		return nil, goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": string(nextRole)})
	}

	if err := ValidateRoleChange(actor.Role(), target.Role, nextRole); err != nil {
		m.emitDenied(ctx, actor, target.ID.String(), "user.role_change", map[string]any{
			"prior": string(target.Role),
			"next":  string(nextRole),
		})
		return nil, err
	}

	passwordHash := target.PasswordHash
	if input.Password != "" {
		passwordHash, err = HashPassword(input.Password)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}
	}

	record := &User{
		ID:           target.ID,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         nextRole,
	}
	now := time.Now()
	record.UpdatedAt = &now

	updated, err := m.repo.Users().Update(ctx, record, repository.UpdateByID(target.ID.String()))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
	}

	m.emitEvent(ctx, ActivityEventUserUpdated, actor, target.ID.String(), map[string]any{
		"role": string(nextRole),
	})

	return updated, nil
}

// Delete removes an identity. An actor may not delete a role it could not
// itself grant.
func (m *UserManager) Delete(ctx context.Context, actor Identity, id uuid.UUID) (*User, error) {
	target, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanDeleteUser(actor.Role(), target.Role) {
		m.emitDenied(ctx, actor, target.ID.String(), "user.delete", nil)
		return nil, ErrUnauthorized
	}

	if err := m.repo.Users().DeleteByID(ctx, target.ID); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete user")
	}

	m.emitEvent(ctx, ActivityEventUserDeleted, actor, target.ID.String(), nil)

	return target, nil
}

func (m *UserManager) fetch(ctx context.Context, id uuid.UUID) (*User, error) {
	target, err := m.repo.Users().GetByIdentifier(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrRecordNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user")
	}
	return target, nil
}

func (m *UserManager) emitDenied(ctx context.Context, actor Identity, targetID, operation string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["operation"] = operation

	m.emitEvent(ctx, ActivityEventAccessDenied, actor, targetID, metadata)
}

func (m *UserManager) emitEvent(ctx context.Context, eventType ActivityEventType, actor Identity, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: actor.ID(), Type: "user"},
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := m.sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
