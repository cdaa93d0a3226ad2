package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeamMember Role = "team member"
)

// User carries three denormalized reference lists (createdProjects,
// assignedProjects, assignedTasks). They are derived caches, not
// authoritative: every change must go through the membership ledger.
type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name             string               `bson:"name" json:"name"`
	Email            string               `bson:"email" json:"email"`
	Password         string               `bson:"password" json:"-"`
	Role             Role                 `bson:"role" json:"role"`
	Avatar           string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedProjects  []primitive.ObjectID `bson:"createdProjects" json:"createdProjects"`
	AssignedProjects []primitive.ObjectID `bson:"assignedProjects" json:"assignedProjects"`
	AssignedTasks    []primitive.ObjectID `bson:"assignedTasks" json:"assignedTasks"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the resolved form embedded in project and task views.
type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
