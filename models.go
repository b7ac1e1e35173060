package uptask

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity model. Accounts start unconfirmed and only become
// usable for login once a confirmation token has been redeemed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Confirmed     bool       `bun:"confirmed,notnull,default:false" json:"confirmed"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NormalizeEmail lowercases and trims an email so lookups are case
// insensitive regardless of how the address was typed
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerificationTokenTTL is the validity window for confirmation and password
// reset codes
const VerificationTokenTTL = 10 * time.Minute

// VerificationToken is a single-use code proving control of an identity's
// email. Expiry is evaluated at redemption time, the record stays around
// until an explicit delete. Several live tokens may coexist for one user:
// issuing a new code does not invalidate older ones.
type VerificationToken struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:vtk"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string    `bun:"token,notnull,unique" json:"-"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// Expired reports whether the token's validity window has elapsed
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Project groups tasks under a managing identity plus a set of team members.
// The manager relationship is a non-owning back-reference: removing a user
// does not destroy their projects.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProjectName   string     `bun:"project_name,notnull" json:"project_name,omitempty"`
	ClientName    string     `bun:"client_name,notnull" json:"client_name,omitempty"`
	Description   string     `bun:"description,notnull" json:"description,omitempty"`
	ManagerID     uuid.UUID  `bun:"manager_id,notnull,type:uuid" json:"manager_id,omitempty"`
	Manager       *User      `bun:"rel:belongs-to,join:manager_id=id" json:"manager,omitempty"`
	Team          []*User    `bun:"m2m:project_team,join:Project=User" json:"team,omitempty"`
	Tasks         []*Task    `bun:"rel:has-many,join:id=project_id" json:"tasks,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasMember reports whether id belongs to the project's team (the manager is
// not a team member, use RoleOf for the combined check)
func (p *Project) HasMember(id uuid.UUID) bool {
	for _, member := range p.Team {
		if member != nil && member.ID == id {
			return true
		}
	}
	return false
}

// RoleOf resolves the authorization role id holds on this project
func (p *Project) RoleOf(id uuid.UUID) ProjectRole {
	if p.ManagerID == id {
		return RoleManager
	}
	if p.HasMember(id) {
		return RoleTeamMember
	}
	return RoleNone
}

// ProjectTeam is the join model backing the Project.Team m2m relation
type ProjectTeam struct {
	bun.BaseModel `bun:"table:project_team,alias:ptm"`
	ProjectID     uuid.UUID `bun:"project_id,pk,type:uuid" json:"project_id,omitempty"`
	Project       *Project  `bun:"rel:belongs-to,join:project_id=id" json:"project,omitempty"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// TaskStatus is a task's workflow state
type TaskStatus = string

const (
	// TaskStatusPending is the initial status of every task
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusOnHold marks a task that is parked
	TaskStatusOnHold TaskStatus = "onHold"
	// TaskStatusInProgress marks a task being worked on
	TaskStatusInProgress TaskStatus = "inProgress"
	// TaskStatusUnderReview marks a task awaiting review
	TaskStatusUnderReview TaskStatus = "underReview"
	// TaskStatusCompleted marks a finished task
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskStatuses returns the valid workflow states
func TaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusPending,
		TaskStatusOnHold,
		TaskStatusInProgress,
		TaskStatusUnderReview,
		TaskStatusCompleted,
	}
}

// ValidTaskStatus reports whether s is one of the workflow states
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusOnHold, TaskStatusInProgress, TaskStatusUnderReview, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Task belongs to exactly one project. It has no ACL of its own, access is
// always evaluated through the parent project's manager/team set.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProjectID     uuid.UUID  `bun:"project_id,notnull,type:uuid" json:"project_id,omitempty"`
	Project       *Project   `bun:"rel:belongs-to,join:project_id=id" json:"project,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description,notnull" json:"description,omitempty"`
	Status        TaskStatus `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	Notes         []*TaskNote `bun:"rel:has-many,join:id=task_id" json:"notes,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// TaskNote is a comment on a task. Only its author may delete it.
type TaskNote struct {
	bun.BaseModel `bun:"table:task_notes,alias:tkn"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TaskID        uuid.UUID  `bun:"task_id,notnull,type:uuid" json:"task_id,omitempty"`
	Task          *Task      `bun:"rel:belongs-to,join:task_id=id" json:"task,omitempty"`
	CreatedBy     uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by,omitempty"`
	Author        *User      `bun:"rel:belongs-to,join:created_by=id" json:"author,omitempty"`
	Content       string     `bun:"content,notnull" json:"content,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
