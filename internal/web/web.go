// Package web serves the browser task board: tabs, a filter form, a
// category sidebar and plain HTML forms for every mutation.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"taskboard/internal/model"
	"taskboard/internal/service"
	"taskboard/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the services the board reads and mutates.
type Deps struct {
	Users      *service.UserService
	Categories *service.CategoryService
	Tasks      *service.TaskService
}

type Handler struct {
	log     *slog.Logger
	deps    Deps
	timeout time.Duration
	tmpl    *template.Template
}

func New(log *slog.Logger, deps Deps, timeout time.Duration) (*Handler, error) {
	tmpl, err := template.New("board.html").Funcs(template.FuncMap{
		"date": func(t *time.Time) string { return t.Format("2006-01-02") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{log: log, deps: deps, timeout: timeout, tmpl: tmpl}, nil
}

// Register mounts the board on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.board).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.createTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/complete", h.setCompleted).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/today", h.setToday).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/title", h.renameTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/delete", h.deleteTask).Methods(http.MethodPost)
	r.HandleFunc("/categories", h.createCategory).Methods(http.MethodPost)
}

type tabLink struct {
	Label  string
	Count  int
	Href   string
	Active bool
}

type weekday struct {
	Index int
	Name  string
}

type boardPage struct {
	Tab         view.Tab
	Tabs        []tabLink
	Filter      model.TaskFilter
	Categories  []model.Category
	Users       []model.User
	Tasks       []model.Task
	Priorities  []model.Priority
	RepeatTypes []model.RepeatType
	Weekdays    []weekday
	Return      string
}

func (p boardPage) AllCategoriesHref() string {
	f := p.Filter
	f.CategoryID = ""
	return href(p.Tab, f)
}

func (p boardPage) CategoryHref(id string) string {
	f := p.Filter
	f.CategoryID = id
	return href(p.Tab, f)
}

func href(tab view.Tab, f model.TaskFilter) string {
	if q := view.Query(tab, f).Encode(); q != "" {
		return "/?" + q
	}
	return "/"
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tab := view.ParseTab(q.Get("tab"))
	filter, err := view.ParseFilter(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tasks, err := h.deps.Tasks.ListTasks(ctx, model.TaskFilter{})
	if err != nil {
		h.fail(w, err)
		return
	}
	categories, err := h.deps.Categories.List(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	users, err := h.deps.Users.List(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}

	page := boardPage{
		Tab:         tab,
		Filter:      filter,
		Categories:  categories,
		Users:       users,
		Tasks:       view.Visible(tasks, tab, filter),
		Priorities:  model.Priorities,
		RepeatTypes: model.RepeatTypes,
		Return:      view.Query(tab, filter).Encode(),
	}
	counts := view.Counts(tasks, filter)
	for _, t := range view.Tabs {
		page.Tabs = append(page.Tabs, tabLink{
			Label:  t.Label(),
			Count:  counts[t],
			Href:   href(t, filter),
			Active: t == tab,
		})
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		page.Weekdays = append(page.Weekdays, weekday{Index: int(d), Name: d.String()[:3]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "board.html", page); err != nil {
		h.log.Error("render board", "error", err)
	}
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in, err := taskInputFromForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, err := h.deps.Users.ResolveActor(ctx, r.PostForm.Get("actorId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if _, err := h.deps.Tasks.CreateTask(ctx, actor.ID, in); err != nil {
		h.fail(w, err)
		return
	}
	h.back(w, r)
}

func (h *Handler) setCompleted(w http.ResponseWriter, r *http.Request) {
	completed, err := strconv.ParseBool(r.FormValue("completed"))
	if err != nil {
		http.Error(w, "invalid completed value", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.deps.Tasks.SetCompleted(ctx, mux.Vars(r)["id"], completed); err != nil {
		h.fail(w, err)
		return
	}
	h.back(w, r)
}

func (h *Handler) setToday(w http.ResponseWriter, r *http.Request) {
	today, err := strconv.ParseBool(r.FormValue("today"))
	if err != nil {
		http.Error(w, "invalid today value", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.deps.Tasks.SetToday(ctx, mux.Vars(r)["id"], today); err != nil {
		h.fail(w, err)
		return
	}
	h.back(w, r)
}

func (h *Handler) renameTask(w http.ResponseWriter, r *http.Request) {
	title := r.FormValue("title")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.deps.Tasks.UpdateTask(ctx, mux.Vars(r)["id"], service.TaskPatch{Title: &title}); err != nil {
		h.fail(w, err)
		return
	}
	h.back(w, r)
}

type confirmPage struct {
	Task       *model.Task
	Return     string
	CancelHref string
}

// deleteTask asks for confirmation first; only a form carrying confirm=true
// removes the task.
func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := mux.Vars(r)["id"]
	if confirmed, _ := strconv.ParseBool(r.FormValue("confirm")); !confirmed {
		task, err := h.deps.Tasks.GetTask(ctx, id)
		if err != nil {
			h.fail(w, err)
			return
		}
		target := returnTarget(r)
		page := confirmPage{Task: task, CancelHref: target, Return: strings.TrimPrefix(strings.TrimPrefix(target, "/"), "?")}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.tmpl.ExecuteTemplate(w, "confirm_delete.html", page); err != nil {
			h.log.Error("render delete confirmation", "error", err)
		}
		return
	}

	if err := h.deps.Tasks.DeleteTask(ctx, id); err != nil {
		h.fail(w, err)
		return
	}
	h.back(w, r)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.deps.Categories.Create(ctx, r.FormValue("name"), r.FormValue("color")); err != nil {
		h.fail(w, err)
		return
	}
	h.back(w, r)
}

// back redirects to the board, keeping the tab and filter the form was
// submitted from. The return value is re-encoded so only a query survives.
func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, returnTarget(r), http.StatusSeeOther)
}

func returnTarget(r *http.Request) string {
	if q, err := url.ParseQuery(r.FormValue("return")); err == nil && len(q) > 0 {
		return "/?" + q.Encode()
	}
	return "/"
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBadArguments):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error("board request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func taskInputFromForm(form url.Values) (service.TaskInput, error) {
	in := service.TaskInput{
		Title:       form.Get("title"),
		Priority:    form.Get("priority"),
		AssigneeIDs: form["assigneeIds"],
	}
	if v := strings.TrimSpace(form.Get("description")); v != "" {
		in.Description = &v
	}
	if v := strings.TrimSpace(form.Get("categoryId")); v != "" {
		in.CategoryID = &v
	}
	if v := strings.TrimSpace(form.Get("dueDate")); v != "" {
		due, err := time.Parse("2006-01-02", v)
		if err != nil {
			return in, errors.New("invalid due date")
		}
		in.DueDate = &due
	}
	if v := form.Get("isToday"); v != "" {
		today, err := strconv.ParseBool(v)
		if err != nil {
			return in, errors.New("invalid today value")
		}
		in.IsToday = today
	}

	if rt := strings.TrimSpace(form.Get("repeatType")); rt != "" {
		rule := &service.RepeatRuleInput{Type: rt}
		if v := strings.TrimSpace(form.Get("repeatInterval")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return in, errors.New("invalid repeat interval")
			}
			rule.Interval = n
		}
		for _, v := range form["repeatDays"] {
			d, err := strconv.Atoi(v)
			if err != nil {
				return in, errors.New("invalid repeat day")
			}
			rule.Days = append(rule.Days, d)
		}
		if v := strings.TrimSpace(form.Get("repeatEndDate")); v != "" {
			end, err := time.Parse("2006-01-02", v)
			if err != nil {
				return in, errors.New("invalid repeat end date")
			}
			rule.EndDate = &end
		}
		in.RepeatRule = rule
	}
	return in, nil
}
