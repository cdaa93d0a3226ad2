package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-tracker/backend/logging"
	"project-tracker/backend/models"
	"project-tracker/backend/store"
	"project-tracker/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskService is the task aggregate. It authorizes against the owning
// project's snapshot and reconciles assignee back-references through the
// membership ledger.
type TaskService struct {
	store    store.Store
	ledger   *MembershipLedger
	notifier *utils.Notifier
}

// NewTaskService wires the aggregate. notifier may be nil; notifications
// are best-effort either way.
func NewTaskService(s store.Store, notifier *utils.Notifier) *TaskService {
	return &TaskService{
		store:    s,
		ledger:   NewMembershipLedger(s),
		notifier: notifier,
	}
}

// TaskQuery narrows ListTasks. Project is a hex id; empty means "all
// projects visible to the actor".
type TaskQuery struct {
	Project  string
	Status   models.TaskStatus
	Priority models.TaskPriority
}

func parseTaskID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed task id %q", models.ErrNotFound, id)
	}
	return oid, nil
}

// projectForTask loads the task's project for authorization. An orphaned
// task (project record gone) keeps creator-only rights: the placeholder has
// no owner or team to match.
func (s *TaskService) projectForTask(ctx context.Context, task *models.Task) (*models.Project, error) {
	project, err := s.store.GetProjectByID(ctx, task.Project)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.Project{ID: task.Project}, nil
		}
		return nil, err
	}
	return project, nil
}

// CreateTask creates a task in the given project, appends it to the
// project's task list and, when assigned, reconciles the assignee's list.
func (s *TaskService) CreateTask(ctx context.Context, actor primitive.ObjectID, in models.NewTask) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.Project) == "" {
		return nil, fmt.Errorf("%w: project is required", models.ErrValidation)
	}

	projectID, err := parseProjectID(in.Project)
	if err != nil {
		return nil, err
	}
	project, err := s.store.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanCreateTask(actor, project) {
		return nil, fmt.Errorf("%w: not authorized to create tasks in this project", models.ErrForbidden)
	}

	var assignee *primitive.ObjectID
	if in.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(in.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed assignee id %q", models.ErrInvalidReference, in.AssignedTo)
		}
		if !ValidAssignee(project, oid) {
			return nil, fmt.Errorf("%w: assigned user must be a member of the project", models.ErrInvalidReference)
		}
		assignee = &oid
	}

	status := in.Status
	if status == "" {
		status = models.TaskToDo
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid task status %q", models.ErrValidation, status)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: invalid task priority %q", models.ErrValidation, priority)
	}

	now := time.Now().UTC()
	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		Project:     projectID,
		AssignedTo:  assignee,
		CreatedBy:   actor,
		Deadline:    in.Deadline,
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, err
	}

	warnConsistency("task create (project list)", s.store.AddProjectTask(ctx, projectID, task.ID))
	if assignee != nil {
		warnConsistency("task create (assignee)", s.ledger.ReassignTask(ctx, task.ID, nil, assignee))
		s.notifier.Notify(ctx, "task.assigned", map[string]string{
			"task":       task.ID.Hex(),
			"assignedTo": assignee.Hex(),
		})
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s by user %s", task.ID.Hex(), projectID.Hex(), actor.Hex())
	return task, nil
}

// GetTask returns the task with project, assignee, creator and comment
// authors resolved.
func (s *TaskService) GetTask(ctx context.Context, actor primitive.ObjectID, id string) (*models.TaskView, error) {
	oid, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.store.GetTaskByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	project, err := s.projectForTask(ctx, task)
	if err != nil {
		return nil, err
	}
	if !CanViewTask(actor, task, project) {
		return nil, fmt.Errorf("%w: not authorized to view this task", models.ErrForbidden)
	}

	r := newResolver(s.store)
	view := r.taskView(ctx, task, true)
	return &view, nil
}

// ListTasks returns the tasks visible to the actor, newest first. With an
// explicit project filter the project must exist and be visible; otherwise
// the visible set is every project the actor owns or belongs to.
func (s *TaskService) ListTasks(ctx context.Context, actor primitive.ObjectID, query TaskQuery) ([]models.TaskView, error) {
	var projectIDs []primitive.ObjectID
	if query.Project != "" {
		oid, err := parseProjectID(query.Project)
		if err != nil {
			return nil, err
		}
		project, err := s.store.GetProjectByID(ctx, oid)
		if err != nil {
			return nil, err
		}
		if !CanViewProject(actor, project) {
			return nil, fmt.Errorf("%w: not authorized to view this project", models.ErrForbidden)
		}
		projectIDs = []primitive.ObjectID{oid}
	} else {
		projects, err := s.store.ListProjectsByUser(ctx, actor)
		if err != nil {
			return nil, err
		}
		projectIDs = make([]primitive.ObjectID, 0, len(projects))
		for _, project := range projects {
			projectIDs = append(projectIDs, project.ID)
		}
	}

	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{
		Projects: projectIDs,
		Status:   query.Status,
		Priority: query.Priority,
	})
	if err != nil {
		return nil, err
	}

	r := newResolver(s.store)
	views := make([]models.TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, r.taskView(ctx, &tasks[i], false))
	}
	return views, nil
}

// UpdateTask applies the fields present in the patch. Every field is
// validated up front; only after the record is persisted is an assignee
// change reconciled through the ledger and announced.
func (s *TaskService) UpdateTask(ctx context.Context, actor primitive.ObjectID, id string, patch models.TaskPatch) (*models.Task, error) {
	oid, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.store.GetTaskByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	project, err := s.projectForTask(ctx, task)
	if err != nil {
		return nil, err
	}
	if !CanEditTask(actor, task, project) {
		return nil, fmt.Errorf("%w: not authorized to update this task", models.ErrForbidden)
	}

	// Validate the whole patch before touching the task or any
	// back-reference, so a rejected patch leaves no trace.
	var newAssignee *primitive.ObjectID
	assigneeChanged := false
	if patch.AssignedTo != nil {
		if *patch.AssignedTo != "" {
			assigneeID, err := primitive.ObjectIDFromHex(*patch.AssignedTo)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed assignee id %q", models.ErrInvalidReference, *patch.AssignedTo)
			}
			if !ValidAssignee(project, assigneeID) {
				return nil, fmt.Errorf("%w: assigned user must be a member of the project", models.ErrInvalidReference)
			}
			newAssignee = &assigneeID
		}
		assigneeChanged = !sameAssignee(task.AssignedTo, newAssignee)
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", models.ErrValidation)
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, fmt.Errorf("%w: description cannot be empty", models.ErrValidation)
		}
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid task status %q", models.ErrValidation, *patch.Status)
		}
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, fmt.Errorf("%w: invalid task priority %q", models.ErrValidation, *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}

	oldAssignee := task.AssignedTo
	if assigneeChanged {
		task.AssignedTo = newAssignee
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	if assigneeChanged {
		warnConsistency("task update (assignee)", s.ledger.ReassignTask(ctx, task.ID, oldAssignee, newAssignee))
		if newAssignee != nil {
			s.notifier.Notify(ctx, "task.assigned", map[string]string{
				"task":       task.ID.Hex(),
				"assignedTo": newAssignee.Hex(),
			})
		}
	}
	return task, nil
}

// DeleteTask detaches the task from its assignee and its project, then
// removes the record.
func (s *TaskService) DeleteTask(ctx context.Context, actor primitive.ObjectID, id string) error {
	oid, err := parseTaskID(id)
	if err != nil {
		return err
	}
	task, err := s.store.GetTaskByID(ctx, oid)
	if err != nil {
		return err
	}
	project, err := s.projectForTask(ctx, task)
	if err != nil {
		return err
	}
	if !CanEditTask(actor, task, project) {
		return fmt.Errorf("%w: not authorized to delete this task", models.ErrForbidden)
	}

	warnConsistency("task delete", s.ledger.DetachTask(ctx, task.ID, task.Project, task.AssignedTo))

	if err := s.store.DeleteTask(ctx, oid); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by user %s", oid.Hex(), actor.Hex())
	return nil
}

// AddComment prepends a comment to the task's log and returns the updated
// log with authors resolved, newest first.
func (s *TaskService) AddComment(ctx context.Context, actor primitive.ObjectID, id, text string) ([]models.CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}

	oid, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.store.GetTaskByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	project, err := s.projectForTask(ctx, task)
	if err != nil {
		return nil, err
	}
	if !CanComment(actor, project) {
		return nil, fmt.Errorf("%w: not authorized to comment on this task", models.ErrForbidden)
	}

	comment := models.Comment{
		Text:      text,
		User:      actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PrependComment(ctx, oid, comment); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, "task.commented", map[string]string{
		"task":   oid.Hex(),
		"author": actor.Hex(),
	})

	updated, err := s.store.GetTaskByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	r := newResolver(s.store)
	return r.commentViews(ctx, updated.Comments), nil
}

func sameAssignee(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
