package access

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage seeds an identity outside the authorized-actor flow,
// e.g. the initial admin on first boot. Role-guarded creation goes through
// UserManager.Create instead.
type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	role := event.Role
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"role": string(role)})
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Role = role
		user.Username = getUsername(event.Username, event.Email)
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return nil
}

// SeedDefaultAdmin registers the bootstrap admin identity when none of the
// parameters are empty. Safe to call on every start: the unique username and
// email constraints make repeat seeding a conflict the caller can ignore.
func SeedDefaultAdmin(ctx context.Context, repo RepositoryManager, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return goerrors.New("default admin credentials not configured", goerrors.CategoryBadInput)
	}

	handler := NewRegisterUserHandler(repo)
	return handler.Execute(ctx, RegisterUserMessage{
		Username:  username,
		Email:     email,
		Password:  password,
		Role:      RoleAdmin,
		UseHashid: true,
	})
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
