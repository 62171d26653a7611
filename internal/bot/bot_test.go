package bot

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/view"
)

type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return f.sent[len(f.sent)-1]
}

const chatID = 4242

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "bot.db"), log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	taskRepo := repository.NewTaskRepository(db)
	deps := Deps{
		Users:      service.NewUserService(repository.NewUserRepository(db)),
		Categories: service.NewCategoryService(repository.NewCategoryRepository(db)),
		Tasks:      service.NewTaskService(taskRepo),
		Digest:     service.NewDigestService(taskRepo),
	}
	fake := &fakeSender{}
	b := newBot(fake, log, deps)
	b.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return b, fake
}

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		From: &tgbotapi.User{ID: chatID, FirstName: "Ann", LastName: "Lee"},
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		From:    &tgbotapi.User{ID: chatID, FirstName: "Ann"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
	}}
}

func (b *Bot) say(t *testing.T, fake *fakeSender, text string) string {
	t.Helper()
	b.handleUpdate(context.Background(), textUpdate(text))
	return fake.last(t).Text
}

func TestNewTaskDialog(t *testing.T) {
	b, fake := newTestBot(t)
	ctx := context.Background()

	if reply := b.say(t, fake, "/newtask"); !strings.Contains(reply, "title") {
		t.Fatalf("unexpected prompt %q", reply)
	}
	b.say(t, fake, "Pay <rent>")
	b.say(t, fake, btnSkip)
	b.say(t, fake, "Home")
	reply := b.say(t, fake, "urgent")
	if !strings.Contains(reply, "Task saved") || !strings.Contains(reply, "Pay &lt;rent&gt;") {
		t.Fatalf("unexpected confirmation %q", reply)
	}

	tasks, err := b.deps.Tasks.ListTasks(ctx, model.TaskFilter{})
	if err != nil || len(tasks) != 1 {
		t.Fatalf("tasks = %+v, %v", tasks, err)
	}
	task := tasks[0]
	if task.Priority != model.PriorityUrgent || task.Description != nil {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Category == nil || task.Category.Name != "Home" {
		t.Fatalf("category = %+v", task.Category)
	}
	if task.Creator == nil || task.Creator.Name != "Ann Lee" || len(task.Assignees) != 1 {
		t.Fatalf("creator/assignees = %+v %+v", task.Creator, task.Assignees)
	}
	if b.hasConversation(chatID) {
		t.Fatal("conversation must end after the last step")
	}

	b.say(t, fake, "/newtask")
	b.say(t, fake, "Second")
	b.say(t, fake, "desc")
	b.say(t, fake, "home")
	b.say(t, fake, "-")
	cats, _ := b.deps.Categories.List(ctx)
	if len(cats) != 1 || cats[0].TaskCount != 2 {
		t.Fatalf("category must be reused case-insensitively: %+v", cats)
	}
}

func TestDialogCancel(t *testing.T) {
	b, fake := newTestBot(t)
	b.say(t, fake, "/newtask")
	b.say(t, fake, "Something")
	if reply := b.say(t, fake, "cancel"); !strings.Contains(reply, "Cancelled") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if b.hasConversation(chatID) {
		t.Fatal("conversation not cleared")
	}
	tasks, _ := b.deps.Tasks.ListTasks(context.Background(), model.TaskFilter{})
	if len(tasks) != 0 {
		t.Fatalf("cancelled dialog created %d tasks", len(tasks))
	}
}

func TestDoneUndoAndDelete(t *testing.T) {
	b, fake := newTestBot(t)
	ctx := context.Background()
	actor, err := b.deps.Users.ResolveActor(ctx, "")
	if err != nil {
		t.Fatalf("actor: %v", err)
	}
	task, err := b.deps.Tasks.CreateTask(ctx, actor.ID, service.TaskInput{Title: "Call the bank", IsToday: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if reply := b.say(t, fake, "/done "+task.ID[:8]); !strings.Contains(reply, "is done") {
		t.Fatalf("unexpected reply %q", reply)
	}
	got, _ := b.deps.Tasks.GetTask(ctx, task.ID)
	if !got.IsCompleted || got.CompletedAt == nil {
		t.Fatalf("task not completed: %+v", got)
	}

	if reply := b.say(t, fake, "/tasks"); !strings.Contains(reply, "Nothing here") {
		t.Fatalf("completed task must be hidden from the all tab: %q", reply)
	}
	if reply := b.say(t, fake, "/tasks completed"); !strings.Contains(reply, "Call the bank") {
		t.Fatalf("completed tab missing the task: %q", reply)
	}

	b.say(t, fake, "/undo "+task.ID)
	got, _ = b.deps.Tasks.GetTask(ctx, task.ID)
	if got.IsCompleted || got.CompletedAt != nil {
		t.Fatalf("task not reopened: %+v", got)
	}

	if reply := b.say(t, fake, "/done"); !strings.Contains(reply, "give the task id") {
		t.Fatalf("missing-id reply %q", reply)
	}
	if reply := b.say(t, fake, "/done zzzz"); !strings.Contains(reply, "not found") {
		t.Fatalf("unknown-id reply %q", reply)
	}

	b.say(t, fake, "/delete "+task.ID)
	b.say(t, fake, "maybe")
	if _, err := b.deps.Tasks.GetTask(ctx, task.ID); err != nil {
		t.Fatal("task deleted without confirmation")
	}
	if reply := b.say(t, fake, btnConfirm); !strings.Contains(reply, "deleted") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if _, err := b.deps.Tasks.GetTask(ctx, task.ID); err == nil {
		t.Fatal("task still present after delete")
	}
}

func TestCallbacks(t *testing.T) {
	b, fake := newTestBot(t)
	ctx := context.Background()
	actor, _ := b.deps.Users.ResolveActor(ctx, "")
	task, err := b.deps.Tasks.CreateTask(ctx, actor.ID, service.TaskInput{Title: "Stretch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b.handleUpdate(ctx, callbackUpdate(cbTodayPrefix+task.ID))
	got, _ := b.deps.Tasks.GetTask(ctx, task.ID)
	if !got.IsToday {
		t.Fatal("today callback did not set the flag")
	}
	b.handleUpdate(ctx, callbackUpdate(cbCompletePrefix+task.ID))
	got, _ = b.deps.Tasks.GetTask(ctx, task.ID)
	if !got.IsCompleted {
		t.Fatal("complete callback did not complete the task")
	}
	b.handleUpdate(ctx, callbackUpdate(cbDeletePrefix+task.ID))
	if _, ok := b.getPendingDelete(chatID); !ok {
		t.Fatal("delete callback must ask for confirmation")
	}
	if fake.requests != 3 {
		t.Fatalf("callbacks acknowledged %d times", fake.requests)
	}
}

func TestReportAndCategories(t *testing.T) {
	b, fake := newTestBot(t)
	if reply := b.say(t, fake, "/categories"); !strings.Contains(reply, "No categories") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if reply := b.say(t, fake, "/report"); !strings.Contains(reply, "2026-03-02") {
		t.Fatalf("unexpected report %q", reply)
	}
	if reply := b.say(t, fake, "hello"); !strings.Contains(reply, "/help") {
		t.Fatalf("unexpected fallback %q", reply)
	}
	if reply := b.say(t, fake, "/unknown"); !strings.Contains(reply, "Unknown command") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestSendDailyReports(t *testing.T) {
	b, fake := newTestBot(t)
	ctx := context.Background()
	b.say(t, fake, "/help")
	if _, err := b.deps.Users.Create(ctx, "Web only", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
	before := len(fake.sent)

	if err := b.SendDailyReports(ctx); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.sent)-before != 1 || fake.last(t).ChatID != chatID {
		t.Fatalf("reports must go only to telegram users, sent %d", len(fake.sent)-before)
	}
}

func TestFormatBoard(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	text, kb := formatBoard(nil, view.TabToday, now)
	if kb != nil || !strings.Contains(text, "Today") {
		t.Fatalf("empty board = %q, %v", text, kb)
	}

	home := &model.Category{ID: "c1", Name: "Home"}
	tasks := []model.Task{
		{ID: "t1", Title: "Dishes", Priority: model.PriorityLow, Category: home},
		{ID: "t2", Title: "Taxes", Priority: model.PriorityHigh},
		{ID: "t3", Title: "Laundry", Priority: model.PriorityMedium, Category: home, IsToday: true},
	}
	text, kb = formatBoard(tasks, view.TabAll, now)
	if kb == nil || len(kb.InlineKeyboard) != 3 {
		t.Fatalf("expected one button row per task, got %+v", kb)
	}
	if strings.Index(text, "Home") > strings.Index(text, noCategory) {
		t.Fatalf("groups must keep first-seen order:\n%s", text)
	}
	if data := kb.InlineKeyboard[0][0].CallbackData; data == nil || *data != cbCompletePrefix+"t1" {
		t.Fatalf("first button data = %v", data)
	}
}

func TestShortTitle(t *testing.T) {
	if got := shortTitle("  short ", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := shortTitle("a very long title indeed", 8); got != "a very …" {
		t.Fatalf("got %q", got)
	}
}
