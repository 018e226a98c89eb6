package access

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Grants() Grants
	Assessments() repository.Repository[*Assessment]
}

func NewAssessmentsRepository(db *bun.DB) repository.Repository[*Assessment] {
	handlers := repository.ModelHandlers[*Assessment]{
		NewRecord: func() *Assessment {
			return &Assessment{}
		},
		GetID: func(record *Assessment) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Assessment, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db          *bun.DB
	users       Users
	grants      Grants
	assessments repository.Repository[*Assessment]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:          db,
		users:       NewUsersRepository(db),
		grants:      NewGrantsRepository(db),
		assessments: NewAssessmentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.grants == nil {
		return errors.New("repository grants should be initialized")
	}

	if m.assessments == nil {
		return errors.New("repository assessments should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Grants() Grants {
	return m.grants
}

func (m mngr) Assessments() repository.Repository[*Assessment] {
	return m.assessments
}
