package uptask

import "github.com/google/uuid"

// ProjectRole is an identity's role on a single project
type ProjectRole = string

const (
	// RoleNone means the identity has no relationship with the project
	RoleNone ProjectRole = ""
	// RoleTeamMember may read the project and work its tasks
	RoleTeamMember ProjectRole = "member"
	// RoleManager created the project and may do everything
	RoleManager ProjectRole = "manager"
)

// ProjectAction is an operation evaluated against a project's ACL
type ProjectAction = string

const (
	ActionProjectRead   ProjectAction = "project.read"
	ActionProjectUpdate ProjectAction = "project.update"
	ActionProjectDelete ProjectAction = "project.delete"
	ActionTeamRead      ProjectAction = "team.read"
	ActionTeamManage    ProjectAction = "team.manage"
	ActionTaskCreate    ProjectAction = "task.create"
	ActionTaskRead      ProjectAction = "task.read"
	ActionTaskUpdate    ProjectAction = "task.update"
	ActionTaskDelete    ProjectAction = "task.delete"
	ActionTaskStatus    ProjectAction = "task.status"
	ActionNoteCreate    ProjectAction = "note.create"
	ActionNoteRead      ProjectAction = "note.read"
)

// ProjectActions returns every action in the defined set
func ProjectActions() []ProjectAction {
	return []ProjectAction{
		ActionProjectRead,
		ActionProjectUpdate,
		ActionProjectDelete,
		ActionTeamRead,
		ActionTeamManage,
		ActionTaskCreate,
		ActionTaskRead,
		ActionTaskUpdate,
		ActionTaskDelete,
		ActionTaskStatus,
		ActionNoteCreate,
		ActionNoteRead,
	}
}

// IsValid checks if the action is one of the predefined project actions
func validProjectAction(a ProjectAction) bool {
	switch a {
	case ActionProjectRead, ActionProjectUpdate, ActionProjectDelete,
		ActionTeamRead, ActionTeamManage,
		ActionTaskCreate, ActionTaskRead, ActionTaskUpdate, ActionTaskDelete, ActionTaskStatus,
		ActionNoteCreate, ActionNoteRead:
		return true
	default:
		return false
	}
}

// Can reports whether the role is allowed to perform action. Managers can do
// everything, team members everything except project metadata, project
// deletion, and team management.
func Can(role ProjectRole, action ProjectAction) bool {
	if !validProjectAction(action) {
		return false
	}

	switch role {
	case RoleManager:
		return true
	case RoleTeamMember:
		switch action {
		case ActionProjectUpdate, ActionProjectDelete, ActionTeamManage:
			return false
		default:
			return true
		}
	default:
		return false
	}
}

// Authorize decides whether userID may perform action on project. It is a
// pure function with no side effects. A denial is reported as
// ErrProjectNotFound so callers cannot distinguish "exists but not yours"
// from "does not exist".
func Authorize(userID uuid.UUID, project *Project, action ProjectAction) error {
	if project == nil {
		return ErrProjectNotFound
	}

	role := project.RoleOf(userID)
	if role == RoleNone {
		return ErrProjectNotFound
	}

	if !Can(role, action) {
		return ErrProjectNotFound
	}

	return nil
}
