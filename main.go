package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"project-tracker/backend/handlers"
	"project-tracker/backend/logging"
	"project-tracker/backend/middleware"
	"project-tracker/backend/services"
	"project-tracker/backend/store"
	"project-tracker/backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting project tracker service...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "project_tracker"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB, database: %s", mongoDBName)

	db := store.NewMongoStore(client.Database(mongoDBName))

	notifier := utils.NewNotifier(utils.NewHTTPClient(), os.Getenv("NOTIFY_WEBHOOK_URL"))

	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db, notifier)

	authHandler := handlers.NewAuthHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := mux.NewRouter()

	// Public identity routes
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Everything else requires an authenticated actor
	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(middleware.JWTAuthMiddleware)

	authed.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	authed.HandleFunc("/auth/users", authHandler.ListUsers).Methods(http.MethodGet)

	authed.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	authed.HandleFunc("/projects", projectHandler.ListProjects).Methods(http.MethodGet)
	authed.HandleFunc("/projects/{id}", projectHandler.GetProjectByID).Methods(http.MethodGet)
	authed.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods(http.MethodPut)
	authed.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods(http.MethodDelete)

	authed.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{id}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	authed.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks/{id}/comment", taskHandler.AddComment).Methods(http.MethodPost)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
