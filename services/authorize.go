package services

import (
	"project-tracker/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authorization guard: pure decisions over (actor, resource snapshot).
// Every mutating path in the aggregates consults these before writing, so
// the three-way ownership rules live in exactly one place.

func isOwner(actor primitive.ObjectID, project *models.Project) bool {
	return project.Owner == actor
}

func isTeamMember(actor primitive.ObjectID, project *models.Project) bool {
	for _, member := range project.Team {
		if member == actor {
			return true
		}
	}
	return false
}

// CanViewProject: owner or team member.
func CanViewProject(actor primitive.ObjectID, project *models.Project) bool {
	return isOwner(actor, project) || isTeamMember(actor, project)
}

// CanEditProject: owner only. Covers update and delete.
func CanEditProject(actor primitive.ObjectID, project *models.Project) bool {
	return isOwner(actor, project)
}

// CanCreateTask: owner or team member of the target project.
func CanCreateTask(actor primitive.ObjectID, project *models.Project) bool {
	return isOwner(actor, project) || isTeamMember(actor, project)
}

// CanViewTask: task creator, or owner/team member of its project.
func CanViewTask(actor primitive.ObjectID, task *models.Task, project *models.Project) bool {
	return task.CreatedBy == actor || CanViewProject(actor, project)
}

// CanEditTask: task creator or project owner. Team membership alone is not
// enough to mutate or delete someone else's task.
func CanEditTask(actor primitive.ObjectID, task *models.Task, project *models.Project) bool {
	return task.CreatedBy == actor || isOwner(actor, project)
}

// CanComment: owner or team member of the task's project.
func CanComment(actor primitive.ObjectID, project *models.Project) bool {
	return isOwner(actor, project) || isTeamMember(actor, project)
}

// ValidAssignee reports whether the user may hold the task: the project
// owner or a current team member. Checked before any write, independent of
// who the actor is.
func ValidAssignee(project *models.Project, assignee primitive.ObjectID) bool {
	return project.Owner == assignee || isTeamMember(assignee, project)
}
