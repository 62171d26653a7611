package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/model"
	"taskboard/internal/service"
	"taskboard/internal/view"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
)

const (
	cbCompletePrefix = "complete:"
	cbTodayPrefix    = "today:"
	cbDeletePrefix   = "delete:"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// sender is the part of the Telegram client the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the services the bot works with.
type Deps struct {
	Users      *service.UserService
	Categories *service.CategoryService
	Tasks      *service.TaskService
	Digest     *service.DigestService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           sender
	client        *tgbotapi.BotAPI
	log           *slog.Logger
	deps          Deps
	now           func() time.Time
	conversations map[int64]*conversationState
	pendingDelete map[int64]string
	mu            sync.Mutex
}

func New(token string, log *slog.Logger, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", "account", api.Self.UserName)

	b := newBot(api, log, deps)
	b.client = api
	return b, nil
}

func newBot(api sender, log *slog.Logger, deps Deps) *Bot {
	return &Bot{
		api:           api,
		log:           log,
		deps:          deps,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
		pendingDelete: make(map[int64]string),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no telegram client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", "error", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "error", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearPendingDelete(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		b.log.Debug("command", "from", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if taskID, ok := b.getPendingDelete(msg.From.ID); ok {
		return b.handleDeleteConfirmation(ctx, msg, taskID)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg.Chat.ID, view.ParseTab(msg.CommandArguments()))
	case "today":
		return b.handleListTasks(ctx, msg.Chat.ID, view.TabToday)
	case "done":
		return b.handleSetCompleted(ctx, msg, true)
	case "undo":
		return b.handleSetCompleted(ctx, msg, false)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg.Chat.ID)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearPendingDelete(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	text := "ℹ️ <b>Task board</b>\n" +
		"• /tasks [all|today|completed] — show the board\n" +
		"• /today — tasks marked for today\n" +
		"• /newtask — add a task step by step\n" +
		"• /done &lt;id&gt; — mark a task completed\n" +
		"• /undo &lt;id&gt; — reopen a task\n" +
		"• /delete &lt;id&gt; — delete a task\n" +
		"• /categories — categories with task counts\n" +
		"• /report — your today digest\n" +
		"• /cancel — cancel the current input\n\n" +
		"An id may be shortened to its first characters."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, chatID int64, tab view.Tab) error {
	tasks, err := b.deps.Tasks.ListTasks(ctx, model.TaskFilter{})
	if err != nil {
		return b.sendError(chatID, "Could not load tasks", err)
	}
	visible := view.Visible(tasks, tab, model.TaskFilter{})
	text, keyboard := formatBoard(visible, tab, b.now())

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleSetCompleted(ctx context.Context, msg *tgbotapi.Message, completed bool) error {
	task, err := b.findTask(ctx, msg.CommandArguments())
	if err != nil {
		return b.sendError(msg.Chat.ID, "Cannot find the task", err)
	}
	return b.setCompleted(ctx, msg.Chat.ID, task.ID, completed)
}

func (b *Bot) setCompleted(ctx context.Context, chatID int64, taskID string, completed bool) error {
	task, err := b.deps.Tasks.SetCompleted(ctx, taskID, completed)
	if err != nil {
		return b.sendError(chatID, "Could not update the task", err)
	}
	b.log.Info("task completion changed", "task", task.ID, "completed", completed)
	if completed {
		return b.sendText(chatID, fmt.Sprintf("✅ «%s» is done.", escape(task.Title)))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ «%s» is open again.", escape(task.Title)))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	task, err := b.findTask(ctx, msg.CommandArguments())
	if err != nil {
		return b.sendError(msg.Chat.ID, "Cannot find the task", err)
	}
	return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, task)
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, task *model.Task) error {
	b.setPendingDelete(userID, task.ID)
	text := fmt.Sprintf("Delete «%s»? Reply <b>%s</b> or <b>%s</b>.", escape(task.Title), btnConfirm, btnCancel)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleDeleteConfirmation(ctx context.Context, msg *tgbotapi.Message, taskID string) error {
	if !isConfirmInput(msg.Text) {
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
	b.clearPendingDelete(msg.From.ID)

	if err := b.deps.Tasks.DeleteTask(ctx, taskID); err != nil {
		return b.sendError(msg.Chat.ID, "Could not delete the task", err)
	}
	b.log.Info("task deleted", "task", taskID, "telegram_user", msg.From.ID)
	return b.sendText(msg.Chat.ID, "🗑 Task deleted.")
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64) error {
	categories, err := b.deps.Categories.List(ctx)
	if err != nil {
		return b.sendError(chatID, "Could not load categories", err)
	}
	return b.sendText(chatID, formatCategories(categories))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.deps.Digest.TodaySummary(ctx, user.ID, b.now())
	if err != nil {
		return b.sendError(msg.Chat.ID, "Could not build the report", err)
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyReports sends the today digest to every user known from Telegram.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.deps.Users.List(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		if user.TelegramID == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.deps.Digest.TodaySummary(ctx, user.ID, now)
		if err != nil {
			b.log.Warn("build summary", "user", user.ID, "error", err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			b.log.Warn("send summary", "user", user.ID, "error", err)
		}
	}
	return nil
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what is the title?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = &text
		}
		state.stage = stageCategory
		categories, err := b.deps.Categories.List(ctx)
		if err != nil {
			return b.sendError(msg.Chat.ID, "Could not load categories", err)
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category or type a new one (or skip).", categoryKeyboard(categories))
	case stageCategory:
		if !isSkipInput(text) {
			id, err := b.categoryByName(ctx, text)
			if err != nil {
				return b.sendError(msg.Chat.ID, "Could not use that category", err)
			}
			state.input.CategoryID = &id
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡ Priority?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			p, err := model.ParsePriority(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of LOW, MEDIUM, HIGH or URGENT.", priorityKeyboard())
			}
			state.input.Priority = string(p)
		}
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	input.AssigneeIDs = []string{user.ID}

	task, err := b.deps.Tasks.CreateTask(ctx, user.ID, input)
	if err != nil {
		return b.sendError(chatID, "Could not save the task", err)
	}
	b.log.Info("task created", "task", task.ID, "user", user.ID)

	msg := tgbotapi.NewMessage(chatID, "✅ <b>Task saved</b>\n"+service.FormatTaskLine(*task, b.now()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		task, err := b.deps.Tasks.GetTask(ctx, strings.TrimPrefix(data, cbCompletePrefix))
		if err != nil {
			return b.sendError(chatID, "Cannot find the task", err)
		}
		return b.setCompleted(ctx, chatID, task.ID, !task.IsCompleted)
	case strings.HasPrefix(data, cbTodayPrefix):
		task, err := b.deps.Tasks.GetTask(ctx, strings.TrimPrefix(data, cbTodayPrefix))
		if err != nil {
			return b.sendError(chatID, "Cannot find the task", err)
		}
		task, err = b.deps.Tasks.SetToday(ctx, task.ID, !task.IsToday)
		if err != nil {
			return b.sendError(chatID, "Could not update the task", err)
		}
		if task.IsToday {
			return b.sendText(chatID, fmt.Sprintf("⭐ «%s» is on today's list.", escape(task.Title)))
		}
		return b.sendText(chatID, fmt.Sprintf("«%s» is off today's list.", escape(task.Title)))
	case strings.HasPrefix(data, cbDeletePrefix):
		task, err := b.deps.Tasks.GetTask(ctx, strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return b.sendError(chatID, "Cannot find the task", err)
		}
		return b.askDeleteConfirmation(chatID, cb.From.ID, task)
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(msg.Text)) {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg.Chat.ID, view.TabAll)
	case strings.ToLower(menuLabelToday):
		return true, b.handleListTasks(ctx, msg.Chat.ID, view.TabToday)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg.Chat.ID)
	default:
		return false, nil
	}
}

// findTask resolves a full task id or a unique prefix of one.
func (b *Bot) findTask(ctx context.Context, arg string) (*model.Task, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("%w: give the task id, e.g. /done 3f2a", service.ErrBadArguments)
	}
	task, err := b.deps.Tasks.GetTask(ctx, arg)
	if err == nil || !errors.Is(err, service.ErrNotFound) {
		return task, err
	}

	tasks, err := b.deps.Tasks.ListTasks(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	var found *model.Task
	for i := range tasks {
		if strings.HasPrefix(tasks[i].ID, strings.ToLower(arg)) {
			if found != nil {
				return nil, fmt.Errorf("%w: id %q is ambiguous", service.ErrBadArguments, arg)
			}
			found = &tasks[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("task %w", service.ErrNotFound)
	}
	return found, nil
}

// categoryByName returns the id of the category called name, creating it
// when there is none.
func (b *Bot) categoryByName(ctx context.Context, name string) (string, error) {
	categories, err := b.deps.Categories.List(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c.ID, nil
		}
	}
	created, err := b.deps.Categories.Create(ctx, name, "")
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return b.deps.Users.TelegramActor(ctx, from.ID, name)
}

func (b *Bot) sendError(chatID int64, prefix string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrBadArguments), errors.Is(err, service.ErrAlreadyExists):
		return b.sendText(chatID, fmt.Sprintf("%s: %s", prefix, escape(err.Error())))
	default:
		b.log.Error(prefix, "error", err)
		return b.sendText(chatID, prefix+". Try again later.")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getPendingDelete(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.pendingDelete[userID]
	return id, ok
}

func (b *Bot) setPendingDelete(userID int64, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDelete[userID] = taskID
}

func (b *Bot) clearPendingDelete(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pendingDelete, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
