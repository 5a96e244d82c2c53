// Package router exposes the task API over HTTP with chi. Every response
// body is JSON; failures carry a human-readable {"mensaje": ...} and never
// the internal error text.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tareas/internal/auth"
	"github.com/patric-chuzhbe/tareas/internal/gzippedhttp"
	"github.com/patric-chuzhbe/tareas/internal/logger"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

type credentialService interface {
	Register(ctx context.Context, request models.CredentialsRequest) (*models.User, error)
	Authenticate(ctx context.Context, request models.CredentialsRequest) (*models.User, error)
}

type taskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, request models.TaskRequest) (*models.Task, error)
	Update(ctx context.Context, id string, request models.TaskRequest) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type tokenService interface {
	Issue(claims auth.Claims) (string, error)
	AuthenticateUser(h http.Handler) http.Handler
}

type pinger interface {
	Ping(ctx context.Context) error
}

type trustedGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

type metricsCollector interface {
	Middleware(h http.Handler) http.Handler
	Handler() http.Handler
}

// Router holds the collaborators the HTTP handlers dispatch to.
type Router struct {
	credentials credentialService
	tasks       taskRepository
	tokens      tokenService
	db          pinger
}

var errInvalidBody = errors.New("request body is not valid JSON")

// New builds the chi mux with every route of the API. checker guards the
// operational endpoints; metrics may be nil to disable instrumentation.
func New(
	credentials credentialService,
	tasks taskRepository,
	tokens tokenService,
	db pinger,
	checker trustedGuard,
	metrics metricsCollector,
) *chi.Mux {
	myRouter := &Router{
		credentials: credentials,
		tasks:       tasks,
		tokens:      tokens,
		db:          db,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		Recoverer,
	)
	if metrics != nil {
		router.Use(metrics.Middleware)
	}
	router.Use(
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	router.Post(`/registro`, myRouter.PostRegistro)
	router.Post(`/inicio`, myRouter.PostInicio)

	router.Group(func(r chi.Router) {
		r.Use(tokens.AuthenticateUser)
		r.Get(`/tareas`, myRouter.GetTareas)
		r.Post(`/tareas`, myRouter.PostTareas)
		r.Put(`/tareas/{id}`, myRouter.PutTareas)
		r.Delete(`/tareas/{id}`, myRouter.DeleteTareas)
	})

	router.Group(func(r chi.Router) {
		r.Use(checker.TrustedOnly)
		r.Get(`/ping`, myRouter.GetPing)
		if metrics != nil {
			r.Handle(`/metrics`, metrics.Handler())
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Ruta no encontrada")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	return router
}

// Recoverer is the global fallback: a panic anywhere below it is logged and
// answered with a generic 500.
func Recoverer(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}
			logger.Log.Errorln(
				"Internal error: ", recovered,
				"uri", request.RequestURI,
				"stack", string(debug.Stack()),
			)
			writeMessage(response, http.StatusInternalServerError, "Error interno del servidor")
		}()

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// GetTareas returns the whole task list.
func (router *Router) GetTareas(res http.ResponseWriter, req *http.Request) {
	tasks, err := router.tasks.List(req.Context())
	if err != nil {
		logger.Log.Errorln("Error calling the `router.tasks.List()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al leer las tareas")
		return
	}

	writeJSON(res, http.StatusOK, tasks)
}

// PostTareas creates a task from {titulo, descripcion}.
func (router *Router) PostTareas(res http.ResponseWriter, req *http.Request) {
	var request models.TaskRequest
	if err := decodeBody(req, &request); err != nil {
		writeMessage(res, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}

	task, err := router.tasks.Create(req.Context(), request)
	if errors.Is(err, models.ErrMissingField) {
		writeMessage(res, http.StatusBadRequest, "Título y descripción son requeridos")
		return
	}
	if err != nil {
		logger.Log.Errorln("Error calling the `router.tasks.Create()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al agregar la tarea")
		return
	}

	logTaskChange(req, "task created", task.ID)
	writeJSON(res, http.StatusOK, task)
}

// PutTareas replaces title and description of the task named in the path.
func (router *Router) PutTareas(res http.ResponseWriter, req *http.Request) {
	var request models.TaskRequest
	if err := decodeBody(req, &request); err != nil {
		writeMessage(res, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}

	task, err := router.tasks.Update(req.Context(), chi.URLParam(req, "id"), request)
	if errors.Is(err, models.ErrNotFound) {
		writeMessage(res, http.StatusNotFound, "Tarea no encontrada")
		return
	}
	if err != nil {
		logger.Log.Errorln("Error calling the `router.tasks.Update()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al actualizar la tarea")
		return
	}

	logTaskChange(req, "task updated", task.ID)
	writeMessage(res, http.StatusOK, "Tarea actualizada")
}

// DeleteTareas removes the task named in the path.
func (router *Router) DeleteTareas(res http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	err := router.tasks.Delete(req.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeMessage(res, http.StatusNotFound, "Tarea no encontrada")
		return
	}
	if err != nil {
		logger.Log.Errorln("Error calling the `router.tasks.Delete()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al eliminar la tarea")
		return
	}

	logTaskChange(req, "task deleted", id)
	writeMessage(res, http.StatusOK, "Tarea eliminada")
}

// PostRegistro registers a user from {nombre, contrasena}.
func (router *Router) PostRegistro(res http.ResponseWriter, req *http.Request) {
	var request models.CredentialsRequest
	if err := decodeBody(req, &request); err != nil {
		writeMessage(res, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}

	_, err := router.credentials.Register(req.Context(), request)
	switch {
	case err == nil:
		writeMessage(res, http.StatusOK, "Usuario registrado")
	case errors.Is(err, models.ErrMissingField):
		writeMessage(res, http.StatusBadRequest, "Nombre y contraseña son requeridos")
	case errors.Is(err, models.ErrDuplicateUser):
		writeMessage(res, http.StatusBadRequest, "El usuario ya existe")
	default:
		logger.Log.Errorln("Error calling the `router.credentials.Register()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al registrar el usuario")
	}
}

// PostInicio checks {nombre, contrasena} and answers with a bearer token.
func (router *Router) PostInicio(res http.ResponseWriter, req *http.Request) {
	var request models.CredentialsRequest
	if err := decodeBody(req, &request); err != nil {
		writeMessage(res, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}

	usr, err := router.credentials.Authenticate(req.Context(), request)
	switch {
	case errors.Is(err, models.ErrMissingField):
		writeMessage(res, http.StatusBadRequest, "Nombre y contraseña son requeridos")
		return
	case errors.Is(err, models.ErrInvalidCredentials):
		writeMessage(res, http.StatusBadRequest, "Usuario o contraseña incorrectos")
		return
	case err != nil:
		logger.Log.Errorln("Error calling the `router.credentials.Authenticate()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al iniciar sesión")
		return
	}

	token, err := router.tokens.Issue(auth.Claims{Name: usr.Name})
	if err != nil {
		logger.Log.Errorln("Error calling the `router.tokens.Issue()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Error al iniciar sesión")
		return
	}

	writeJSON(res, http.StatusOK, models.LoginResponse{Token: token})
}

// GetPing reports whether the storage backend is reachable.
func (router *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := router.db.Ping(req.Context()); err != nil {
		logger.Log.Errorln("Error calling the `router.db.Ping()`: ", zap.Error(err))
		writeMessage(res, http.StatusInternalServerError, "Almacenamiento no disponible")
		return
	}

	writeMessage(res, http.StatusOK, "OK")
}

// logTaskChange records which authenticated user changed a task.
func logTaskChange(req *http.Request, event string, id any) {
	userName, _ := auth.UserNameFromContext(req.Context())
	logger.Log.Infoln(event, "id", id, "user", userName)
}

// decodeBody reads a JSON object into target. An empty body leaves target
// zero-valued, so missing fields are reported by validation instead.
func decodeBody(req *http.Request, target any) error {
	err := json.NewDecoder(req.Body).Decode(target)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	logger.Log.Debugln("Error calling the `json.NewDecoder().Decode()`: ", zap.Error(err))

	return errInvalidBody
}

func writeJSON(res http.ResponseWriter, status int, payload any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}

func writeMessage(res http.ResponseWriter, status int, message string) {
	writeJSON(res, status, models.MessageResponse{Message: message})
}
