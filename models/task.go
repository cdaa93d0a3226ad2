package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Comment is an entry of the task's append-only log, newest first.
type Comment struct {
	Text      string             `bson:"text" json:"text"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Task belongs to exactly one project (immutable) and at most one assignee,
// who must be the project owner or a team member.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Status      TaskStatus          `bson:"status" json:"status"`
	Priority    TaskPriority        `bson:"priority" json:"priority"`
	Project     primitive.ObjectID  `bson:"project" json:"project"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	Deadline    *time.Time          `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Comments    []Comment           `bson:"comments" json:"comments"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TaskSummary is the reduced form embedded in project views.
type TaskSummary struct {
	ID         primitive.ObjectID `json:"id"`
	Title      string             `json:"title"`
	Status     TaskStatus         `json:"status"`
	Priority   TaskPriority       `json:"priority"`
	Deadline   *time.Time         `json:"deadline,omitempty"`
	AssignedTo *UserSummary       `json:"assignedTo,omitempty"`
}

// ProjectRef names the owning project inside a task view.
type ProjectRef struct {
	ID    primitive.ObjectID `json:"id"`
	Title string             `json:"title"`
}

type CommentView struct {
	Text      string      `json:"text"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TaskView is a task with its references resolved.
type TaskView struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      TaskStatus         `json:"status"`
	Priority    TaskPriority       `json:"priority"`
	Project     ProjectRef         `json:"project"`
	AssignedTo  *UserSummary       `json:"assignedTo,omitempty"`
	CreatedBy   UserSummary        `json:"createdBy"`
	Deadline    *time.Time         `json:"deadline,omitempty"`
	Comments    []CommentView      `json:"comments,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// NewTask is the creation payload for the task aggregate. Project and
// AssignedTo arrive as hex ids from the boundary layer.
type NewTask struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Project     string       `json:"project"`
	AssignedTo  string       `json:"assignedTo"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Deadline    *time.Time   `json:"deadline"`
}

// TaskPatch applies only the fields that are present. AssignedTo is a hex id
// pointer: nil leaves the assignee untouched, empty string unassigns.
type TaskPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	AssignedTo  *string       `json:"assignedTo"`
	Deadline    *time.Time    `json:"deadline"`
}
