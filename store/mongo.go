package store

import (
	"context"
	"errors"
	"fmt"

	"project-tracker/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps users, projects and tasks in three collections of one
// database. Back-reference updates use $addToSet/$pull so replaying a
// reconciliation step after a partial failure is harmless.
type MongoStore struct {
	users    *mongo.Collection
	projects *mongo.Collection
	tasks    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:    db.Collection("users"),
		projects: db.Collection("projects"),
		tasks:    db.Collection("tasks"),
	}
}

var sortNewestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, sortNewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (s *MongoStore) AddCreatedProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"createdProjects": projectID}})
	return err
}

func (s *MongoStore) AddAssignedProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$addToSet": bson.M{"assignedProjects": projectID}})
	return err
}

func (s *MongoStore) RemoveAssignedProject(ctx context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$pull": bson.M{"assignedProjects": projectID}})
	return err
}

func (s *MongoStore) RemoveProjectRefs(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := s.users.UpdateMany(ctx,
		bson.M{"$or": []bson.M{
			{"createdProjects": projectID},
			{"assignedProjects": projectID},
		}},
		bson.M{"$pull": bson.M{
			"createdProjects":  projectID,
			"assignedProjects": projectID,
		}})
	return err
}

func (s *MongoStore) AddAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"assignedTasks": taskID}})
	return err
}

func (s *MongoStore) RemoveAssignedTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"assignedTasks": taskID}})
	return err
}

func (s *MongoStore) InsertProject(ctx context.Context, project *models.Project) error {
	result, err := s.projects.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	project.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoStore) GetProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: project %s", models.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return &project, nil
}

func (s *MongoStore) ListProjectsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner": userID},
		{"team": userID},
	}}
	cursor, err := s.projects.Find(ctx, filter, sortNewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func (s *MongoStore) UpdateProject(ctx context.Context, project *models.Project) error {
	result, err := s.projects.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: project %s", models.ErrNotFound, project.ID.Hex())
	}
	return nil
}

func (s *MongoStore) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.projects.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: project %s", models.ErrNotFound, id.Hex())
	}
	return nil
}

func (s *MongoStore) AddProjectTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	// $push, not $addToSet: Project.tasks is the authoritative creation
	// order, and task ids are unique by construction.
	_, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$push": bson.M{"tasks": taskID}})
	return err
}

func (s *MongoStore) RemoveProjectTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	_, err := s.projects.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$pull": bson.M{"tasks": taskID}})
	return err
}

func (s *MongoStore) InsertTask(ctx context.Context, task *models.Task) error {
	result, err := s.tasks.InsertOne(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoStore) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: task %s", models.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return &task, nil
}

func (s *MongoStore) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := bson.M{}
	if filter.Projects != nil {
		query["project"] = bson.M{"$in": filter.Projects}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}

	cursor, err := s.tasks.Find(ctx, query, sortNewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func (s *MongoStore) ListTasksByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return s.ListTasks(ctx, TaskFilter{Projects: []primitive.ObjectID{projectID}})
}

func (s *MongoStore) UpdateTask(ctx context.Context, task *models.Task) error {
	result, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: task %s", models.ErrNotFound, task.ID.Hex())
	}
	return nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: task %s", models.ErrNotFound, id.Hex())
	}
	return nil
}

func (s *MongoStore) DeleteTasksByProject(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := s.tasks.DeleteMany(ctx, bson.M{"project": projectID})
	if err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	return nil
}

func (s *MongoStore) PrependComment(ctx context.Context, taskID primitive.ObjectID, comment models.Comment) error {
	result, err := s.tasks.UpdateOne(ctx,
		bson.M{"_id": taskID},
		bson.M{"$push": bson.M{"comments": bson.M{
			"$each":     []models.Comment{comment},
			"$position": 0,
		}}})
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: task %s", models.ErrNotFound, taskID.Hex())
	}
	return nil
}
