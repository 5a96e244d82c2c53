package models

import "errors"

// Task is a single entry of the task collection.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
}

// User is a registered account. PasswordHash holds a bcrypt hash, never the raw password.
type User struct {
	Name         string `json:"nombre"`
	PasswordHash string `json:"contrasena"`
}

type TaskRequest struct {
	Title       string `json:"titulo" validate:"required"`
	Description string `json:"descripcion" validate:"required"`
}

type CredentialsRequest struct {
	Name     string `json:"nombre" validate:"required"`
	Password string `json:"contrasena" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"mensaje"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeRedis
	StorageTypeFile
	StorageTypeMemory
)

// Names of the two persisted collections.
const (
	TasksCollection = "tareas"
	UsersCollection = "usuarios"
)

var (
	ErrMissingField       = errors.New("required field is missing")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid user name or password")
	ErrMissingToken       = errors.New("authorization token is missing")
	ErrInvalidToken       = errors.New("authorization token is invalid")
	ErrNotFound           = errors.New("record not found")
	ErrStorageIO          = errors.New("storage I/O failure")
)
