package uptask

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tasks interface {
	repository.Repository[*Task]

	Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error)

	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error)
	GetInProject(ctx context.Context, id, projectID uuid.UUID) (*Task, error)
	GetInProjectTx(ctx context.Context, tx bun.IDB, id, projectID uuid.UUID) (*Task, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status TaskStatus) (*Task, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status TaskStatus) (*Task, error)
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var (
	_ Tasks                        = (*tasks)(nil)
	_ repository.Repository[*Task] = (*tasks)(nil)
)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (a *tasks) Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *tasks) CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	prepareTaskDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *tasks) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	records := []*Task{}
	err := a.db.NewSelect().
		Model(&records).
		Where(`?TableAlias."project_id" = ?`, projectID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *tasks) GetInProject(ctx context.Context, id, projectID uuid.UUID) (*Task, error) {
	return a.GetInProjectTx(ctx, a.db, id, projectID)
}

// GetInProjectTx scopes the lookup to a project so a task id from another
// project behaves exactly like a missing task.
func (a *tasks) GetInProjectTx(ctx context.Context, tx bun.IDB, id, projectID uuid.UUID) (*Task, error) {
	record := &Task{}
	err := tx.NewSelect().
		Model(record).
		Relation("Notes").
		Where(`?TableAlias."id" = ?`, id).
		Where(`?TableAlias."project_id" = ?`, projectID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id":         id.String(),
					"project_id": projectID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *tasks) UpdateStatus(ctx context.Context, id uuid.UUID, status TaskStatus) (*Task, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *tasks) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status TaskStatus) (*Task, error) {
	record := &Task{
		ID:     id,
		Status: status,
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func prepareTaskDefaults(record *Task) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Status == "" {
		record.Status = TaskStatusPending
	}
}
