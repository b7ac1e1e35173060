package uptask

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Projects interface {
	repository.Repository[*Project]

	Create(ctx context.Context, record *Project, criteria ...repository.InsertCriteria) (*Project, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Project, criteria ...repository.InsertCriteria) (*Project, error)

	GetWithRelations(ctx context.Context, id uuid.UUID) (*Project, error)
	GetWithRelationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Project, error)

	ListForMember(ctx context.Context, userID uuid.UUID) ([]*Project, error)

	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	AddMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error
}

type projects struct {
	repository.Repository[*Project]
	db *bun.DB
}

var (
	_ Projects                        = (*projects)(nil)
	_ repository.Repository[*Project] = (*projects)(nil)
)

func NewProjectsRepository(db *bun.DB) Projects {
	repo := repository.NewRepository[*Project](db, repository.ModelHandlers[*Project]{
		NewRecord: func() *Project { return &Project{} },
		GetID: func(p *Project) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Project, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &projects{
		Repository: repo,
		db:         db,
	}
}

func (a *projects) Create(ctx context.Context, record *Project, criteria ...repository.InsertCriteria) (*Project, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *projects) CreateTx(ctx context.Context, tx bun.IDB, record *Project, criteria ...repository.InsertCriteria) (*Project, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *projects) GetWithRelations(ctx context.Context, id uuid.UUID) (*Project, error) {
	return a.GetWithRelationsTx(ctx, a.db, id)
}

// GetWithRelationsTx loads a project with its team and tasks in one go. The
// guard needs the team roster to resolve the caller's role, handlers need the
// rest.
func (a *projects) GetWithRelationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Project, error) {
	record := &Project{}
	err := tx.NewSelect().
		Model(record).
		Relation("Manager").
		Relation("Team").
		Relation("Tasks").
		Where(`?TableAlias."id" = ?`, id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// ListForMember returns every project where the user is the manager or sits
// on the team.
func (a *projects) ListForMember(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	records := []*Project{}
	err := a.db.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`?TableAlias."manager_id" = ?`, userID).
				WhereOr(`?TableAlias."id" IN (SELECT "project_id" FROM "project_team" WHERE "user_id" = ?)`, userID)
		}).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *projects) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return a.AddMemberTx(ctx, a.db, projectID, userID)
}

func (a *projects) AddMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error {
	_, err := tx.NewInsert().
		Model(&ProjectTeam{
			ProjectID: projectID,
			UserID:    userID,
		}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func (a *projects) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return a.RemoveMemberTx(ctx, a.db, projectID, userID)
}

func (a *projects) RemoveMemberTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*ProjectTeam)(nil)).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Exec(ctx)
	return err
}
