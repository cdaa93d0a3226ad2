package services

import (
	"context"
	"fmt"

	"project-tracker/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipLedger reconciles the denormalized back-references on User
// records (createdProjects, assignedProjects, assignedTasks) whenever the
// authoritative relationship on a Project or Task changes. It is the only
// code path that touches those lists.
//
// Every operation maps to idempotent store primitives, so replaying a call
// after a partial failure converges instead of corrupting the lists further.
type MembershipLedger struct {
	store store.Store
}

func NewMembershipLedger(s store.Store) *MembershipLedger {
	return &MembershipLedger{store: s}
}

// AttachOwner records the project under the owner's createdProjects.
func (l *MembershipLedger) AttachOwner(ctx context.Context, projectID, ownerID primitive.ObjectID) error {
	if err := l.store.AddCreatedProject(ctx, ownerID, projectID); err != nil {
		return fmt.Errorf("attach owner %s to project %s: %w", ownerID.Hex(), projectID.Hex(), err)
	}
	return nil
}

// SetTeam diffs the old and new team and reconciles assignedProjects for the
// users that actually changed. Unchanged members are untouched; removed and
// added sets are disjoint by construction, so ordering does not matter.
func (l *MembershipLedger) SetTeam(ctx context.Context, projectID primitive.ObjectID, oldTeam, newTeam []primitive.ObjectID) error {
	removed := diffIDs(oldTeam, newTeam)
	added := diffIDs(newTeam, oldTeam)

	if err := l.store.RemoveAssignedProject(ctx, removed, projectID); err != nil {
		return fmt.Errorf("detach %d members from project %s: %w", len(removed), projectID.Hex(), err)
	}
	if err := l.store.AddAssignedProject(ctx, added, projectID); err != nil {
		return fmt.Errorf("attach %d members to project %s: %w", len(added), projectID.Hex(), err)
	}
	return nil
}

// DetachAll removes the project id from createdProjects and assignedProjects
// of every user referencing it. Used once, during project deletion.
func (l *MembershipLedger) DetachAll(ctx context.Context, projectID primitive.ObjectID) error {
	if err := l.store.RemoveProjectRefs(ctx, projectID); err != nil {
		return fmt.Errorf("detach users from project %s: %w", projectID.Hex(), err)
	}
	return nil
}

// ReassignTask moves the task id between assignedTasks lists. Either side
// may be nil (assigning a previously unassigned task, or unassigning).
func (l *MembershipLedger) ReassignTask(ctx context.Context, taskID primitive.ObjectID, oldAssignee, newAssignee *primitive.ObjectID) error {
	if oldAssignee != nil {
		if err := l.store.RemoveAssignedTask(ctx, *oldAssignee, taskID); err != nil {
			return fmt.Errorf("pull task %s from user %s: %w", taskID.Hex(), oldAssignee.Hex(), err)
		}
	}
	if newAssignee != nil {
		if err := l.store.AddAssignedTask(ctx, *newAssignee, taskID); err != nil {
			return fmt.Errorf("push task %s to user %s: %w", taskID.Hex(), newAssignee.Hex(), err)
		}
	}
	return nil
}

// DetachTask removes the task from its assignee's list and from the owning
// project's task list, ahead of deleting the task record.
func (l *MembershipLedger) DetachTask(ctx context.Context, taskID, projectID primitive.ObjectID, assignee *primitive.ObjectID) error {
	if assignee != nil {
		if err := l.store.RemoveAssignedTask(ctx, *assignee, taskID); err != nil {
			return fmt.Errorf("pull task %s from user %s: %w", taskID.Hex(), assignee.Hex(), err)
		}
	}
	if err := l.store.RemoveProjectTask(ctx, projectID, taskID); err != nil {
		return fmt.Errorf("pull task %s from project %s: %w", taskID.Hex(), projectID.Hex(), err)
	}
	return nil
}

// diffIDs returns the ids present in a but not in b.
func diffIDs(a, b []primitive.ObjectID) []primitive.ObjectID {
	inB := make(map[primitive.ObjectID]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []primitive.ObjectID
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
