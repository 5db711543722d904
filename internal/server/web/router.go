// Package web exposes the HTTP API: JSON endpoints for auth and task CRUD
// plus a server-sent-events stream carrying live task snapshots.
package web

import (
	"context"
	"io"

	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// UserService is the auth surface the handlers need.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// TaskService is the task surface the handlers need.
type TaskService interface {
	List(ctx context.Context, userID string) ([]models.Task, error)
	Create(ctx context.Context, userID string, task models.Task) (*models.Task, error)
	Get(ctx context.Context, userID, id string) (*models.Task, error)
	Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
	SetStatus(ctx context.Context, userID, id string, status models.Status) (*models.Task, error)
	SetStarred(ctx context.Context, userID, id string, starred bool) (*models.Task, error)
	UploadAttachment(ctx context.Context, userID, taskID, name, contentType string, size int64, body io.Reader) (*models.Task, error)
	RemoveAttachment(ctx context.Context, userID, taskID, attachmentID string) (*models.Task, error)
}

// SnapshotHub is the live-update surface the stream handler needs.
type SnapshotHub interface {
	Subscribe(ctx context.Context, userID string) (<-chan []models.Task, func(), error)
}

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	users     UserService
	tasks     TaskService
	hub       SnapshotHub
	secretKey []byte
	logger    logging.Logger
}

func NewHandler(users UserService, tasks TaskService, hub SnapshotHub, secretKey []byte, logger logging.Logger) *Handler {
	return &Handler{users: users, tasks: tasks, hub: hub, secretKey: secretKey, logger: logger}
}

// Router builds the gin engine with all routes mounted under /api/v1.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/refresh", h.refresh)
	authGroup.POST("/logout", h.logout)
	authGroup.POST("/oauth/google", h.oauthGoogle)

	taskGroup := v1.Group("/tasks", authRequired(h.secretKey))
	taskGroup.GET("", h.listTasks)
	taskGroup.POST("", h.createTask)
	taskGroup.GET("/stream", h.streamTasks)
	taskGroup.GET("/:id", h.getTask)
	taskGroup.PATCH("/:id", h.updateTask)
	taskGroup.DELETE("/:id", h.deleteTask)
	taskGroup.PUT("/:id/status", h.setStatus)
	taskGroup.PUT("/:id/star", h.setStarred)
	taskGroup.POST("/:id/attachments", h.uploadAttachment)
	taskGroup.DELETE("/:id/attachments/:attachmentID", h.removeAttachment)

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
