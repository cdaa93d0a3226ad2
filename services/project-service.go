package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"project-tracker/backend/logging"
	"project-tracker/backend/models"
	"project-tracker/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectService is the project aggregate: it owns Project records and the
// per-project task list, and routes every relationship change through the
// membership ledger.
type ProjectService struct {
	store  store.Store
	ledger *MembershipLedger
}

func NewProjectService(s store.Store) *ProjectService {
	return &ProjectService{
		store:  s,
		ledger: NewMembershipLedger(s),
	}
}

// warnConsistency records a failed ledger reconciliation. The primary write
// already succeeded, so the operation is still reported as successful; the
// idempotent primitives make the warning repairable by replay.
func warnConsistency(op string, err error) {
	if err != nil {
		logging.Logger.Warnf("Event ID: LEDGER_CONSISTENCY_WARNING, Description: Reconciliation failed during %s: %v", op, err)
	}
}

func parseProjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed project id %q", models.ErrNotFound, id)
	}
	return oid, nil
}

// CreateProject creates a project owned by the actor and reconciles the
// owner's and team members' project lists.
func (s *ProjectService) CreateProject(ctx context.Context, actor primitive.ObjectID, title, description string, deadline *time.Time, team []primitive.ObjectID) (*models.Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}
	if team == nil {
		team = []primitive.ObjectID{}
	}

	now := time.Now().UTC()
	project := &models.Project{
		Title:       title,
		Description: description,
		Deadline:    deadline,
		Owner:       actor,
		Team:        team,
		Tasks:       []primitive.ObjectID{},
		Status:      models.ProjectNotStarted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.InsertProject(ctx, project); err != nil {
		return nil, err
	}

	warnConsistency("project create (owner)", s.ledger.AttachOwner(ctx, project.ID, actor))
	if len(team) > 0 {
		warnConsistency("project create (team)", s.ledger.SetTeam(ctx, project.ID, nil, team))
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created by user %s", project.ID.Hex(), actor.Hex())
	return project, nil
}

// GetProject returns the project with owner, team and tasks resolved.
func (s *ProjectService) GetProject(ctx context.Context, actor primitive.ObjectID, id string) (*models.ProjectView, error) {
	oid, err := parseProjectID(id)
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

	r := newResolver(s.store)
	view := s.projectView(ctx, r, project)

	// Resolve tasks in the project's authoritative order, tolerating
	// dangling ids left behind by a failed reconciliation.
	view.Tasks = make([]models.TaskSummary, 0, len(project.Tasks))
	for _, taskID := range project.Tasks {
		task, err := s.store.GetTaskByID(ctx, taskID)
		if err != nil {
			continue
		}
		view.Tasks = append(view.Tasks, r.taskSummary(ctx, task))
	}
	return &view, nil
}

// ListProjects returns every project the actor owns or belongs to, newest
// first, with owner and team resolved.
func (s *ProjectService) ListProjects(ctx context.Context, actor primitive.ObjectID) ([]models.ProjectView, error) {
	projects, err := s.store.ListProjectsByUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	r := newResolver(s.store)
	views := make([]models.ProjectView, 0, len(projects))
	for i := range projects {
		views = append(views, s.projectView(ctx, r, &projects[i]))
	}
	return views, nil
}

func (s *ProjectService) projectView(ctx context.Context, r *resolver, project *models.Project) models.ProjectView {
	return models.ProjectView{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Deadline:    project.Deadline,
		Owner:       r.user(ctx, project.Owner),
		Team:        r.teamSummaries(ctx, project.Team),
		Status:      project.Status,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// UpdateProject applies the fields present in the patch. Absent fields are
// untouched. A team change is diffed against the current team and reconciled
// through the ledger.
func (s *ProjectService) UpdateProject(ctx context.Context, actor primitive.ObjectID, id string, patch models.ProjectPatch) (*models.Project, error) {
	oid, err := parseProjectID(id)
	if err != nil {
		return nil, err
	}
	project, err := s.store.GetProjectByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if !CanEditProject(actor, project) {
		return nil, fmt.Errorf("%w: not authorized to update this project", models.ErrForbidden)
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", models.ErrValidation)
		}
		project.Title = *patch.Title
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, fmt.Errorf("%w: description cannot be empty", models.ErrValidation)
		}
		project.Description = *patch.Description
	}
	if patch.Deadline != nil {
		project.Deadline = patch.Deadline
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid project status %q", models.ErrValidation, *patch.Status)
		}
		project.Status = *patch.Status
	}
	if patch.Team != nil {
		newTeam := *patch.Team
		if newTeam == nil {
			newTeam = []primitive.ObjectID{}
		}
		warnConsistency("project update (team)", s.ledger.SetTeam(ctx, project.ID, project.Team, newTeam))
		project.Team = newTeam
	}

	project.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject cascades: every task of the project is deleted (and pulled
// from its assignee's list), then all user back-references to the project
// are detached, then the project record itself is removed. The order avoids
// referencing a vanished project id mid-cascade.
func (s *ProjectService) DeleteProject(ctx context.Context, actor primitive.ObjectID, id string) error {
	oid, err := parseProjectID(id)
	if err != nil {
		return err
	}
	project, err := s.store.GetProjectByID(ctx, oid)
	if err != nil {
		return err
	}
	if !CanEditProject(actor, project) {
		return fmt.Errorf("%w: not authorized to delete this project", models.ErrForbidden)
	}

	tasks, err := s.store.ListTasksByProject(ctx, oid)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].AssignedTo != nil {
			warnConsistency("project delete (assignee)", s.store.RemoveAssignedTask(ctx, *tasks[i].AssignedTo, tasks[i].ID))
		}
	}
	if err := s.store.DeleteTasksByProject(ctx, oid); err != nil {
		return err
	}

	warnConsistency("project delete (members)", s.ledger.DetachAll(ctx, oid))

	if err := s.store.DeleteProject(ctx, oid); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted by user %s, %d tasks cascaded", oid.Hex(), actor.Hex(), len(tasks))
	return nil
}
