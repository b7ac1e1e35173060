package uptask

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskNotes stores the comment trail attached to tasks
type TaskNotes interface {
	Create(ctx context.Context, record *TaskNote) (*TaskNote, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *TaskNote) (*TaskNote, error)
	GetByID(ctx context.Context, id uuid.UUID) (*TaskNote, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*TaskNote, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type taskNotes struct {
	db *bun.DB
}

var _ TaskNotes = (*taskNotes)(nil)

func NewTaskNotesRepository(db *bun.DB) TaskNotes {
	return &taskNotes{db: db}
}

func (r *taskNotes) Create(ctx context.Context, record *TaskNote) (*TaskNote, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *taskNotes) CreateTx(ctx context.Context, tx bun.IDB, record *TaskNote) (*TaskNote, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *taskNotes) GetByID(ctx context.Context, id uuid.UUID) (*TaskNote, error) {
	record := &TaskNote{}
	err := r.db.NewSelect().
		Model(record).
		Where(`?TableAlias."id" = ?`, id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *taskNotes) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*TaskNote, error) {
	records := []*TaskNote{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Author").
		Where(`?TableAlias."task_id" = ?`, taskID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *taskNotes) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *taskNotes) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*TaskNote)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
