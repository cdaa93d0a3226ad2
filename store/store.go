package store

import (
	"context"

	"project-tracker/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskFilter narrows ListTasks. Projects restricts to the given project ids;
// Status and Priority are exact matches when non-empty.
type TaskFilter struct {
	Projects []primitive.ObjectID
	Status   models.TaskStatus
	Priority models.TaskPriority
}

// Store is the persistence boundary for the three collections. The
// back-reference primitives (Add*/Remove*) are idempotent: adding an id that
// is already present or removing one that is absent is a no-op, so every
// ledger reconciliation call is retry-safe.
//
// All lookups return models.ErrNotFound (wrapped) when the record is absent.
type Store interface {
	// Users
	InsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AddCreatedProject(ctx context.Context, userID, projectID primitive.ObjectID) error
	AddAssignedProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID) error
	RemoveAssignedProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID) error
	// RemoveProjectRefs pulls the project id from createdProjects and
	// assignedProjects of every user that references it, in one pass.
	RemoveProjectRefs(ctx context.Context, projectID primitive.ObjectID) error
	AddAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error
	RemoveAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error

	// Projects
	InsertProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	// ListProjectsByUser returns projects where the user is owner or team
	// member, newest-created first.
	ListProjectsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id primitive.ObjectID) error
	AddProjectTask(ctx context.Context, projectID, taskID primitive.ObjectID) error
	RemoveProjectTask(ctx context.Context, projectID, taskID primitive.ObjectID) error

	// Tasks
	InsertTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	// ListTasks returns matching tasks newest-created first.
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	ListTasksByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
	DeleteTasksByProject(ctx context.Context, projectID primitive.ObjectID) error
	// PrependComment puts the comment at the head of the task's log.
	PrependComment(ctx context.Context, taskID primitive.ObjectID, comment models.Comment) error
}
