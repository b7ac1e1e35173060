package uptask_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	uptask "github.com/goliatone/go-uptask"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupRepo(t *testing.T) uptask.RepositoryManager {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, uptask.Migrate(db, "sqlite3"))

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	repo := uptask.NewRepositoryManager(bunDB)
	require.NoError(t, repo.Validate())

	return repo
}

func seedUser(t *testing.T, repo uptask.RepositoryManager, email string) *uptask.User {
	t.Helper()

	hash, err := uptask.HashPassword("password12345")
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &uptask.User{
		Name:         "User " + email,
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func TestUsersRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	t.Run("register normalizes the email", func(t *testing.T) {
		user := seedUser(t, repo, "Mixed.Case@Example.COM")
		assert.Equal(t, "mixed.case@example.com", user.Email)
	})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		found, err := repo.Users().GetByEmail(ctx, "MIXED.CASE@example.com")
		require.NoError(t, err)
		assert.Equal(t, "mixed.case@example.com", found.Email)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := repo.Users().GetByEmail(ctx, "ghost@example.com")
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("confirm flips the flag", func(t *testing.T) {
		user := seedUser(t, repo, "confirm.me@example.com")
		assert.False(t, user.Confirmed)

		require.NoError(t, repo.Users().Confirm(ctx, user.ID))

		found, err := repo.Users().GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.True(t, found.Confirmed)
	})

	t.Run("confirm unknown user", func(t *testing.T) {
		err := repo.Users().Confirm(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("reset password swaps the hash", func(t *testing.T) {
		user := seedUser(t, repo, "reset.me@example.com")

		hash, err := uptask.HashPassword("brand-new-pass")
		require.NoError(t, err)

		require.NoError(t, repo.Users().ResetPassword(ctx, user.ID, hash))

		found, err := repo.Users().GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		require.NoError(t, uptask.ComparePasswordAndHash("brand-new-pass", found.PasswordHash))
	})
}

func TestVerificationTokensRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	user := seedUser(t, repo, "tokens@example.com")

	issuer := uptask.NewTokenIssuer(repo)

	t.Run("issue then redeem consumes the token", func(t *testing.T) {
		var raw string
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			token, err := issuer.IssueTx(ctx, tx, user)
			if err != nil {
				return err
			}
			raw = token.Token
			return nil
		})
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			token, err := issuer.RedeemTx(ctx, tx, raw)
			if err != nil {
				return err
			}
			assert.Equal(t, user.ID, token.UserID)
			return nil
		})
		require.NoError(t, err)

		// second redemption must fail, the code is single use
		err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			_, err := issuer.RedeemTx(ctx, tx, raw)
			return err
		})
		require.ErrorIs(t, err, uptask.ErrTokenNotFound)
	})

	t.Run("several live tokens coexist", func(t *testing.T) {
		var first, second string
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			t1, err := issuer.IssueTx(ctx, tx, user)
			if err != nil {
				return err
			}
			t2, err := issuer.IssueTx(ctx, tx, user)
			if err != nil {
				return err
			}
			first, second = t1.Token, t2.Token
			return nil
		})
		require.NoError(t, err)

		_, err = issuer.Peek(ctx, first)
		require.NoError(t, err)
		_, err = issuer.Peek(ctx, second)
		require.NoError(t, err)
	})

	t.Run("sweep removes expired tokens only", func(t *testing.T) {
		stale, err := repo.Tokens().Create(ctx, &uptask.VerificationToken{
			Token:     "stale-code",
			UserID:    user.ID,
			CreatedAt: time.Now().Add(-time.Hour),
			ExpiresAt: time.Now().Add(-50 * time.Minute),
		})
		require.NoError(t, err)

		_, err = issuer.Peek(ctx, stale.Token)
		require.ErrorIs(t, err, uptask.ErrTokenExpired)

		removed, err := repo.Tokens().DeleteExpired(ctx, time.Now())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, int64(1))

		_, err = repo.Tokens().GetByValue(ctx, stale.Token)
		require.ErrorIs(t, err, uptask.ErrTokenNotFound)
	})
}

func TestProjectsRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	manager := seedUser(t, repo, "manager@example.com")
	member := seedUser(t, repo, "member@example.com")
	outsider := seedUser(t, repo, "outsider@example.com")

	project, err := repo.Projects().Create(ctx, &uptask.Project{
		ProjectName: "Apollo",
		ClientName:  "NASA",
		Description: "Moonshot",
		ManagerID:   manager.ID,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, project.ID)

	require.NoError(t, repo.Projects().AddMember(ctx, project.ID, member.ID))

	t.Run("relations load with the project", func(t *testing.T) {
		found, err := repo.Projects().GetWithRelations(ctx, project.ID)
		require.NoError(t, err)

		require.NotNil(t, found.Manager)
		assert.Equal(t, manager.ID, found.Manager.ID)
		require.Len(t, found.Team, 1)
		assert.Equal(t, member.ID, found.Team[0].ID)

		assert.Equal(t, uptask.RoleManager, found.RoleOf(manager.ID))
		assert.Equal(t, uptask.RoleTeamMember, found.RoleOf(member.ID))
		assert.Equal(t, uptask.RoleNone, found.RoleOf(outsider.ID))
	})

	t.Run("listing covers managed and joined projects", func(t *testing.T) {
		for _, id := range []uuid.UUID{manager.ID, member.ID} {
			list, err := repo.Projects().ListForMember(ctx, id)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, project.ID, list[0].ID)
		}

		list, err := repo.Projects().ListForMember(ctx, outsider.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("adding a member twice is a no-op", func(t *testing.T) {
		require.NoError(t, repo.Projects().AddMember(ctx, project.ID, member.ID))

		found, err := repo.Projects().GetWithRelations(ctx, project.ID)
		require.NoError(t, err)
		assert.Len(t, found.Team, 1)
	})

	t.Run("removing a member revokes access", func(t *testing.T) {
		require.NoError(t, repo.Projects().RemoveMember(ctx, project.ID, member.ID))

		list, err := repo.Projects().ListForMember(ctx, member.ID)
		require.NoError(t, err)
		assert.Empty(t, list)

		// restore for the following subtests
		require.NoError(t, repo.Projects().AddMember(ctx, project.ID, member.ID))
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := repo.Projects().GetWithRelations(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})
}

func TestTasksAndNotesRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	manager := seedUser(t, repo, "manager@example.com")

	project, err := repo.Projects().Create(ctx, &uptask.Project{
		ProjectName: "Apollo",
		ClientName:  "NASA",
		Description: "Moonshot",
		ManagerID:   manager.ID,
	})
	require.NoError(t, err)

	other, err := repo.Projects().Create(ctx, &uptask.Project{
		ProjectName: "Gemini",
		ClientName:  "NASA",
		Description: "Precursor",
		ManagerID:   manager.ID,
	})
	require.NoError(t, err)

	task, err := repo.Tasks().Create(ctx, &uptask.Task{
		ProjectID:   project.ID,
		Name:        "Design heat shield",
		Description: "Survive reentry",
	})
	require.NoError(t, err)

	t.Run("new tasks start pending", func(t *testing.T) {
		assert.Equal(t, uptask.TaskStatusPending, task.Status)
	})

	t.Run("task lookup is project scoped", func(t *testing.T) {
		found, err := repo.Tasks().GetInProject(ctx, task.ID, project.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, found.ID)

		_, err = repo.Tasks().GetInProject(ctx, task.ID, other.ID)
		require.Error(t, err)
		assert.True(t, goerrors.IsNotFound(err))
	})

	t.Run("status transitions persist", func(t *testing.T) {
		_, err := repo.Tasks().UpdateStatus(ctx, task.ID, uptask.TaskStatusInProgress)
		require.NoError(t, err)

		found, err := repo.Tasks().GetInProject(ctx, task.ID, project.ID)
		require.NoError(t, err)
		assert.Equal(t, uptask.TaskStatusInProgress, found.Status)
	})

	t.Run("notes carry their author", func(t *testing.T) {
		note, err := repo.Notes().Create(ctx, &uptask.TaskNote{
			TaskID:    task.ID,
			CreatedBy: manager.ID,
			Content:   "Check ablative materials",
		})
		require.NoError(t, err)

		notes, err := repo.Notes().ListByTask(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		require.NotNil(t, notes[0].Author)
		assert.Equal(t, manager.ID, notes[0].Author.ID)

		require.NoError(t, repo.Notes().Delete(ctx, note.ID))

		_, err = repo.Notes().GetByID(ctx, note.ID)
		require.ErrorIs(t, err, uptask.ErrNoteNotFound)
	})

	t.Run("listing is project scoped", func(t *testing.T) {
		_, err := repo.Tasks().Create(ctx, &uptask.Task{
			ProjectID:   project.ID,
			Name:        "Install parachutes",
			Description: "Slow the descent",
		})
		require.NoError(t, err)

		tasks, err := repo.Tasks().ListByProject(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		names := []string{tasks[0].Name, tasks[1].Name}
		assert.ElementsMatch(t, []string{"Design heat shield", "Install parachutes"}, names)

		empty, err := repo.Tasks().ListByProject(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
