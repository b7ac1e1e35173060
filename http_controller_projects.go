package uptask

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type ProjectsController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       HTTPAuthenticator
	Config       Config
	ErrorHandler router.ErrorHandler
}

type ProjectsControllerOption func(*ProjectsController) *ProjectsController

func NewProjectsController(opts ...ProjectsControllerOption) *ProjectsController {
	c := &ProjectsController{
		Logger:       defLogger{},
		ErrorHandler: WriteError,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in projects controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in projects controller...")
	}

	if c.Config == nil {
		panic("Missing Config in projects controller...")
	}

	return c
}

func WithProjectsControllerRepo(repo RepositoryManager) ProjectsControllerOption {
	return func(c *ProjectsController) *ProjectsController {
		c.Repo = repo
		return c
	}
}

func WithProjectsControllerAuther(auther HTTPAuthenticator) ProjectsControllerOption {
	return func(c *ProjectsController) *ProjectsController {
		c.Auther = auther
		return c
	}
}

func WithProjectsControllerConfig(cfg Config) ProjectsControllerOption {
	return func(c *ProjectsController) *ProjectsController {
		c.Config = cfg
		return c
	}
}

func WithProjectsControllerLogger(l Logger) ProjectsControllerOption {
	return func(c *ProjectsController) *ProjectsController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// RegisterProjectRoutes mounts the project, task, team and note API. Every
// route requires a session.
func RegisterProjectRoutes[T any](app router.Router[T], opts ...ProjectsControllerOption) {
	controller := NewProjectsController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeAuthErrorHandler(false),
	)

	app.Post("/projects", controller.CreateProject, protected).
		SetName("projects.create")
	app.Get("/projects", controller.ListProjects, protected).
		SetName("projects.list")
	app.Get("/projects/:projectId", controller.GetProject, protected).
		SetName("projects.get")
	app.Put("/projects/:projectId", controller.UpdateProject, protected).
		SetName("projects.update")
	app.Delete("/projects/:projectId", controller.DeleteProject, protected).
		SetName("projects.delete")

	app.Get("/projects/:projectId/team", controller.ListTeam, protected).
		SetName("projects.team.list")
	app.Post("/projects/:projectId/team", controller.AddTeamMember, protected).
		SetName("projects.team.add")
	app.Delete("/projects/:projectId/team/:userId", controller.RemoveTeamMember, protected).
		SetName("projects.team.remove")

	app.Post("/projects/:projectId/tasks", controller.CreateTask, protected).
		SetName("tasks.create")
	app.Get("/projects/:projectId/tasks", controller.ListTasks, protected).
		SetName("tasks.list")
	app.Get("/projects/:projectId/tasks/:taskId", controller.GetTask, protected).
		SetName("tasks.get")
	app.Put("/projects/:projectId/tasks/:taskId", controller.UpdateTask, protected).
		SetName("tasks.update")
	app.Delete("/projects/:projectId/tasks/:taskId", controller.DeleteTask, protected).
		SetName("tasks.delete")
	app.Post("/projects/:projectId/tasks/:taskId/status", controller.UpdateTaskStatus, protected).
		SetName("tasks.status")

	app.Post("/projects/:projectId/tasks/:taskId/notes", controller.CreateNote, protected).
		SetName("notes.create")
	app.Get("/projects/:projectId/tasks/:taskId/notes", controller.ListNotes, protected).
		SetName("notes.list")
	app.Delete("/projects/:projectId/tasks/:taskId/notes/:noteId", controller.DeleteNote, protected).
		SetName("notes.delete")
}

// ProjectPayload covers create and update
type ProjectPayload struct {
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	Description string `json:"description"`
}

func (r ProjectPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ClientName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
	)
}

func (a *ProjectsController) CreateProject(ctx router.Context) error {
	actor, err := a.actorID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(ProjectPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	project := &Project{
		ProjectName: payload.ProjectName,
		ClientName:  payload.ClientName,
		Description: payload.Description,
		ManagerID:   actor,
	}

	project, err = a.Repo.Projects().Create(ctx.Context(), project)
	if err != nil {
		a.Logger.Error("create project error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create project"))
	}

	return ctx.JSON(http.StatusCreated, project)
}

func (a *ProjectsController) ListProjects(ctx router.Context) error {
	actor, err := a.actorID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	projects, err := a.Repo.Projects().ListForMember(ctx.Context(), actor)
	if err != nil {
		a.Logger.Error("list projects error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list projects"))
	}

	return ctx.JSON(http.StatusOK, projects)
}

func (a *ProjectsController) GetProject(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionProjectRead)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, project)
}

func (a *ProjectsController) UpdateProject(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionProjectUpdate)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(ProjectPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	project.ProjectName = payload.ProjectName
	project.ClientName = payload.ClientName
	project.Description = payload.Description

	project, err = a.Repo.Projects().Update(ctx.Context(), project, repository.UpdateByID(project.ID.String()))
	if err != nil {
		a.Logger.Error("update project error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update project"))
	}

	return ctx.JSON(http.StatusOK, project)
}

func (a *ProjectsController) DeleteProject(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionProjectDelete)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Repo.Projects().Delete(ctx.Context(), project); err != nil {
		a.Logger.Error("delete project error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete project"))
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Project deleted",
	})
}

func (a *ProjectsController) ListTeam(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionTeamRead)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, project.Team)
}

// AddTeamMember looks the account up by email and adds it to the team
func (a *ProjectsController) AddTeamMember(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionTeamManage)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(EmailPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	user, err := a.Repo.Users().GetByEmail(ctx.Context(), payload.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return WriteError(ctx, ErrIdentityNotFound)
		}
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user"))
	}

	// the manager already has full access, adding them would only muddy the
	// role resolution
	if user.ID == project.ManagerID {
		return WriteError(ctx, goerrors.New("the manager cannot join the team", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict))
	}

	if err := a.Repo.Projects().AddMember(ctx.Context(), project.ID, user.ID); err != nil {
		a.Logger.Error("add team member error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add team member"))
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Member added to the project",
	})
}

func (a *ProjectsController) RemoveTeamMember(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionTeamManage)
	if err != nil {
		return WriteError(ctx, err)
	}

	userID, err := uuid.Parse(ctx.Param("userId", ""))
	if err != nil {
		return WriteError(ctx, goerrors.New("invalid user id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := a.Repo.Projects().RemoveMember(ctx.Context(), project.ID, userID); err != nil {
		a.Logger.Error("remove team member error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove team member"))
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Member removed from the project",
	})
}

// TaskPayload covers task create and update
type TaskPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r TaskPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
	)
}

func (a *ProjectsController) CreateTask(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionTaskCreate)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(TaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	task := &Task{
		ProjectID:   project.ID,
		Name:        payload.Name,
		Description: payload.Description,
	}

	task, err = a.Repo.Tasks().Create(ctx.Context(), task)
	if err != nil {
		a.Logger.Error("create task error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create task"))
	}

	return ctx.JSON(http.StatusCreated, task)
}

func (a *ProjectsController) ListTasks(ctx router.Context) error {
	project, _, err := a.authorizedProject(ctx, ActionTaskRead)
	if err != nil {
		return WriteError(ctx, err)
	}

	tasks, err := a.Repo.Tasks().ListByProject(ctx.Context(), project.ID)
	if err != nil {
		a.Logger.Error("list tasks error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list tasks"))
	}

	return ctx.JSON(http.StatusOK, tasks)
}

func (a *ProjectsController) GetTask(ctx router.Context) error {
	_, task, err := a.authorizedTask(ctx, ActionTaskRead)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, task)
}

func (a *ProjectsController) UpdateTask(ctx router.Context) error {
	_, task, err := a.authorizedTask(ctx, ActionTaskUpdate)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(TaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	task.Name = payload.Name
	task.Description = payload.Description

	task, err = a.Repo.Tasks().Update(ctx.Context(), task, repository.UpdateByID(task.ID.String()))
	if err != nil {
		a.Logger.Error("update task error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update task"))
	}

	return ctx.JSON(http.StatusOK, task)
}

func (a *ProjectsController) DeleteTask(ctx router.Context) error {
	_, task, err := a.authorizedTask(ctx, ActionTaskDelete)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Repo.Tasks().Delete(ctx.Context(), task); err != nil {
		a.Logger.Error("delete task error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete task"))
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Task deleted",
	})
}

// TaskStatusPayload moves a task through its workflow
type TaskStatusPayload struct {
	Status string `json:"status"`
}

func (r TaskStatusPayload) Validate() error {
	statuses := make([]any, 0, len(TaskStatuses()))
	for _, s := range TaskStatuses() {
		statuses = append(statuses, s)
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(statuses...)),
	)
}

func (a *ProjectsController) UpdateTaskStatus(ctx router.Context) error {
	_, task, err := a.authorizedTask(ctx, ActionTaskStatus)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(TaskStatusPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	task, err = a.Repo.Tasks().UpdateStatus(ctx.Context(), task.ID, payload.Status)
	if err != nil {
		a.Logger.Error("update task status error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update task status"))
	}

	return ctx.JSON(http.StatusOK, task)
}

// NotePayload adds a comment to a task
type NotePayload struct {
	Content string `json:"content"`
}

func (r NotePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

func (a *ProjectsController) CreateNote(ctx router.Context) error {
	actor, err := a.actorID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	_, task, err := a.authorizedTask(ctx, ActionNoteCreate)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(NotePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.badBody(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	note := &TaskNote{
		TaskID:    task.ID,
		CreatedBy: actor,
		Content:   payload.Content,
	}

	note, err = a.Repo.Notes().Create(ctx.Context(), note)
	if err != nil {
		a.Logger.Error("create note error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create note"))
	}

	return ctx.JSON(http.StatusCreated, note)
}

func (a *ProjectsController) ListNotes(ctx router.Context) error {
	_, task, err := a.authorizedTask(ctx, ActionNoteRead)
	if err != nil {
		return WriteError(ctx, err)
	}

	notes, err := a.Repo.Notes().ListByTask(ctx.Context(), task.ID)
	if err != nil {
		a.Logger.Error("list notes error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list notes"))
	}

	return ctx.JSON(http.StatusOK, notes)
}

// DeleteNote removes a comment. Only the author may do it, regardless of
// project role.
func (a *ProjectsController) DeleteNote(ctx router.Context) error {
	actor, err := a.actorID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	_, task, err := a.authorizedTask(ctx, ActionNoteRead)
	if err != nil {
		return WriteError(ctx, err)
	}

	noteID, err := uuid.Parse(ctx.Param("noteId", ""))
	if err != nil {
		return WriteError(ctx, ErrNoteNotFound)
	}

	note, err := a.Repo.Notes().GetByID(ctx.Context(), noteID)
	if err != nil {
		return WriteError(ctx, ErrNoteNotFound)
	}

	// a stale note id from another task gets the same not found answer
	if note.TaskID != task.ID || note.CreatedBy != actor {
		return WriteError(ctx, ErrNoteNotFound)
	}

	if err := a.Repo.Notes().Delete(ctx.Context(), note.ID); err != nil {
		a.Logger.Error("delete note error: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete note"))
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Note deleted",
	})
}

// actorID resolves the authenticated user id from the session
func (a *ProjectsController) actorID(ctx router.Context) (uuid.UUID, error) {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return uuid.Nil, ErrSessionInvalid
	}

	id, err := session.GetUserUUID()
	if err != nil {
		return uuid.Nil, ErrSessionInvalid
	}

	return id, nil
}

// authorizedProject loads the project named in the route and checks the actor
// may perform action on it. Denials are indistinguishable from a missing
// project.
func (a *ProjectsController) authorizedProject(ctx router.Context, action ProjectAction) (*Project, uuid.UUID, error) {
	actor, err := a.actorID(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}

	projectID, err := uuid.Parse(ctx.Param("projectId", ""))
	if err != nil {
		return nil, uuid.Nil, ErrProjectNotFound
	}

	project, err := a.Repo.Projects().GetWithRelations(ctx.Context(), projectID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, uuid.Nil, ErrProjectNotFound
		}
		return nil, uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load project")
	}

	if err := Authorize(actor, project, action); err != nil {
		return nil, uuid.Nil, err
	}

	return project, actor, nil
}

// authorizedTask resolves the project guard first, then scopes the task
// lookup to that project
func (a *ProjectsController) authorizedTask(ctx router.Context, action ProjectAction) (*Project, *Task, error) {
	project, _, err := a.authorizedProject(ctx, action)
	if err != nil {
		return nil, nil, err
	}

	taskID, err := uuid.Parse(ctx.Param("taskId", ""))
	if err != nil {
		return nil, nil, ErrTaskNotFound
	}

	task, err := a.Repo.Tasks().GetInProject(ctx.Context(), taskID, project.ID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load task")
	}

	return project, task, nil
}

func (a *ProjectsController) badBody(ctx router.Context, err error) error {
	a.Logger.Error("parse payload: ", "error", err)
	return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
		WithCode(goerrors.CodeBadRequest))
}
