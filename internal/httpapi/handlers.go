package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"taskboard/internal/httpapi/res"
	"taskboard/internal/service"
	"taskboard/internal/view"
)

// Deps are the services behind the API.
type Deps struct {
	Users      *service.UserService
	Categories *service.CategoryService
	Tasks      *service.TaskService
	Seed       *service.SeedService
	Ping       func(context.Context) error
}

// Prefix is the path every API route is served under.
const Prefix = "/api"

// Register mounts the API under Prefix on the root router r and installs
// r's not-found and method-not-allowed handlers: JSON bodies for API paths,
// plain text for anything else.
func Register(r *mux.Router, log *slog.Logger, deps Deps, timeout time.Duration) {
	handle := func(path string, h http.Handler, methods ...string) {
		r.Handle(Prefix+path, WithActor(h)).Methods(methods...)
	}

	handle("/ping", NewPingHandler(log, deps.Ping, timeout), http.MethodGet)

	handle("/users", NewListUsersHandler(log, deps.Users, timeout), http.MethodGet)
	handle("/users", NewCreateUserHandler(log, deps.Users, timeout), http.MethodPost)

	handle("/categories", NewListCategoriesHandler(log, deps.Categories, timeout), http.MethodGet)
	handle("/categories", NewCreateCategoryHandler(log, deps.Categories, timeout), http.MethodPost)

	handle("/tasks", NewListTasksHandler(log, deps.Tasks, timeout), http.MethodGet)
	handle("/tasks", NewCreateTaskHandler(log, deps.Tasks, deps.Users, timeout), http.MethodPost)
	handle("/tasks/{id}", NewGetTaskHandler(log, deps.Tasks, timeout), http.MethodGet)
	handle("/tasks/{id}", NewUpdateTaskHandler(log, deps.Tasks, timeout), http.MethodPut, http.MethodPatch)
	handle("/tasks/{id}", NewDeleteTaskHandler(log, deps.Tasks, timeout), http.MethodDelete)

	handle("/seed", NewSeedHandler(log, deps.Seed, timeout), http.MethodPost)

	r.NotFoundHandler = routingError("route not found", http.StatusNotFound)
	r.MethodNotAllowedHandler = routingError("method not allowed", http.StatusMethodNotAllowed)
}

func routingError(msg string, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			res.Error(w, msg, status)
			return
		}
		http.Error(w, msg, status)
	})
}

func isAPIPath(path string) bool {
	return path == Prefix || strings.HasPrefix(path, Prefix+"/")
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func NewPingHandler(log *slog.Logger, ping func(context.Context) error, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			log.Warn("ping failed", "service", "store", "error", err)
			res.Json(w, map[string]string{"status": "down"}, http.StatusServiceUnavailable)
			return
		}
		res.Json(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

func NewListUsersHandler(log *slog.Logger, svc *service.UserService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		users, err := svc.List(ctx)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, users, http.StatusOK)
	}
}

func NewCreateUserHandler(log *slog.Logger, svc *service.UserService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateUserIn
		if err := decode(r, &in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		u, err := svc.Create(ctx, in.Name, in.Email)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, u, http.StatusCreated)
	}
}

func NewListCategoriesHandler(log *slog.Logger, svc *service.CategoryService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.List(ctx)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, items, http.StatusOK)
	}
}

func NewCreateCategoryHandler(log *slog.Logger, svc *service.CategoryService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateCategoryIn
		if err := decode(r, &in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		c, err := svc.Create(ctx, in.Name, in.Color)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, c, http.StatusCreated)
	}
}

func NewListTasksHandler(log *slog.Logger, svc *service.TaskService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := view.ParseFilter(r.URL.Query())
		if err != nil {
			res.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListTasks(ctx, f)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, items, http.StatusOK)
	}
}

func NewCreateTaskHandler(log *slog.Logger, svc *service.TaskService, users *service.UserService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateTaskIn
		if err := decode(r, &in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		actor, err := users.ResolveActor(ctx, ActorID(ctx))
		if err != nil {
			WriteErr(w, log, err)
			return
		}

		t, err := svc.CreateTask(ctx, actor.ID, in.toInput())
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusCreated)
	}
}

func NewGetTaskHandler(log *slog.Logger, svc *service.TaskService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.GetTask(ctx, mux.Vars(r)["id"])
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewUpdateTaskHandler(log *slog.Logger, svc *service.TaskService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UpdateTaskIn
		if err := decode(r, &in); err != nil {
			res.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.UpdateTask(ctx, mux.Vars(r)["id"], in.toPatch())
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewDeleteTaskHandler(log *slog.Logger, svc *service.TaskService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.DeleteTask(ctx, mux.Vars(r)["id"]); err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, map[string]any{"success": true}, http.StatusOK)
	}
}

func NewSeedHandler(log *slog.Logger, svc *service.SeedService, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out, err := svc.Seed(ctx)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		log.Info("store seeded", "users", out.Users, "categories", out.Categories, "tasks", out.Tasks)
		res.Json(w, map[string]any{
			"message":    "Database seeded successfully",
			"users":      out.Users,
			"categories": out.Categories,
			"tasks":      out.Tasks,
		}, http.StatusOK)
	}
}
