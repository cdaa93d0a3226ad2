package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectNotStarted, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// Project owns the authoritative task ordering in Tasks (insertion order =
// creation order). Owner is immutable after creation.
type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Deadline    *time.Time           `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Team        []primitive.ObjectID `bson:"team" json:"team"`
	Tasks       []primitive.ObjectID `bson:"tasks" json:"tasks"`
	Status      ProjectStatus        `bson:"status" json:"status"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ProjectView is a project with owner/team/tasks resolved to summaries.
type ProjectView struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Deadline    *time.Time         `json:"deadline,omitempty"`
	Owner       UserSummary        `json:"owner"`
	Team        []UserSummary      `json:"team"`
	Tasks       []TaskSummary      `json:"tasks,omitempty"`
	Status      ProjectStatus      `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// ProjectPatch applies only the fields that are present; nil pointers leave
// the stored value untouched.
type ProjectPatch struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Deadline    *time.Time            `json:"deadline"`
	Status      *ProjectStatus        `json:"status"`
	Team        *[]primitive.ObjectID `json:"team"`
}
