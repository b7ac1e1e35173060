package uptask_test

import (
	"testing"

	uptask "github.com/goliatone/go-uptask"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCan(t *testing.T) {
	memberDenied := map[uptask.ProjectAction]bool{
		uptask.ActionProjectUpdate: true,
		uptask.ActionProjectDelete: true,
		uptask.ActionTeamManage:    true,
	}

	for _, action := range uptask.ProjectActions() {
		t.Run("manager "+action, func(t *testing.T) {
			assert.True(t, uptask.Can(uptask.RoleManager, action))
		})

		t.Run("member "+action, func(t *testing.T) {
			want := !memberDenied[action]
			assert.Equal(t, want, uptask.Can(uptask.RoleTeamMember, action))
		})

		t.Run("none "+action, func(t *testing.T) {
			assert.False(t, uptask.Can(uptask.RoleNone, action))
		})
	}
}

func TestCanRejectsUnknownAction(t *testing.T) {
	assert.False(t, uptask.Can(uptask.RoleManager, "project.explode"))
	assert.False(t, uptask.Can(uptask.RoleTeamMember, ""))
}

func TestAuthorize(t *testing.T) {
	manager := uuid.New()
	member := uuid.New()
	stranger := uuid.New()

	project := &uptask.Project{
		ID:        uuid.New(),
		ManagerID: manager,
		Team:      []*uptask.User{{ID: member}},
	}

	t.Run("manager may manage the team", func(t *testing.T) {
		require.NoError(t, uptask.Authorize(manager, project, uptask.ActionTeamManage))
	})

	t.Run("member may work tasks", func(t *testing.T) {
		require.NoError(t, uptask.Authorize(member, project, uptask.ActionTaskCreate))
		require.NoError(t, uptask.Authorize(member, project, uptask.ActionTaskDelete))
		require.NoError(t, uptask.Authorize(member, project, uptask.ActionTaskStatus))
	})

	t.Run("member may not touch project metadata", func(t *testing.T) {
		err := uptask.Authorize(member, project, uptask.ActionProjectUpdate)
		require.ErrorIs(t, err, uptask.ErrProjectNotFound)

		err = uptask.Authorize(member, project, uptask.ActionProjectDelete)
		require.ErrorIs(t, err, uptask.ErrProjectNotFound)

		err = uptask.Authorize(member, project, uptask.ActionTeamManage)
		require.ErrorIs(t, err, uptask.ErrProjectNotFound)
	})

	t.Run("stranger denial is indistinguishable from absence", func(t *testing.T) {
		err := uptask.Authorize(stranger, project, uptask.ActionProjectRead)
		require.ErrorIs(t, err, uptask.ErrProjectNotFound)
	})

	t.Run("nil project", func(t *testing.T) {
		err := uptask.Authorize(manager, nil, uptask.ActionProjectRead)
		require.ErrorIs(t, err, uptask.ErrProjectNotFound)
	})
}

func TestProjectRoleOf(t *testing.T) {
	manager := uuid.New()
	member := uuid.New()

	project := &uptask.Project{
		ManagerID: manager,
		Team:      []*uptask.User{{ID: member}, nil},
	}

	assert.Equal(t, uptask.RoleManager, project.RoleOf(manager))
	assert.Equal(t, uptask.RoleTeamMember, project.RoleOf(member))
	assert.Equal(t, uptask.RoleNone, project.RoleOf(uuid.New()))
}
