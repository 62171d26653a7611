package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/internal/model"
	"taskboard/internal/service"
	"taskboard/internal/view"
)

const (
	btnSkip             = "⏭️ Skip"
	btnConfirm          = "✅ Confirm"
	btnCancel           = "↩️ Cancel"
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelToday      = "⭐ Today"
	menuLabelCategories = "📂 Categories"
	noCategory          = "No category"
)

// formatBoard renders the tasks of one tab grouped by category, with one
// row of buttons per task. The keyboard is nil when there is nothing to show.
func formatBoard(tasks []model.Task, tab view.Tab, now time.Time) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(tasks) == 0 {
		return fmt.Sprintf("📋 <b>%s</b>\nNothing here. Add a task with /newtask.", tab.Label()), nil
	}

	type group struct {
		name  string
		tasks []model.Task
	}
	var groups []*group
	byKey := make(map[string]*group)
	for _, task := range tasks {
		key, name := "", noCategory
		if task.Category != nil {
			key, name = task.Category.ID, task.Category.Name
		}
		g, ok := byKey[key]
		if !ok {
			g = &group{name: name}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.tasks = append(g.tasks, task)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>%s</b> · %d\n\n", tab.Label(), len(tasks)))

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(g.name)))
		for _, task := range g.tasks {
			sb.WriteString(service.FormatTaskLine(task, now))
			rows = append(rows, taskButtons(task))
		}
		sb.WriteByte('\n')
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(sb.String()), &keyboard
}

func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	done := "✅ " + shortTitle(task.Title, 20)
	if task.IsCompleted {
		done = "↩️ " + shortTitle(task.Title, 20)
	}
	today := "⭐"
	if task.IsToday {
		today = "☆"
	}
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(done, cbCompletePrefix+task.ID),
		tgbotapi.NewInlineKeyboardButtonData(today, cbTodayPrefix+task.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
	)
}

func formatCategories(categories []model.Category) string {
	if len(categories) == 0 {
		return "No categories yet. Type a new one while creating a task."
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("• %s · %d\n", escape(strings.TrimSpace(c.Name)), c.TaskCount))
	}
	return strings.TrimSpace(sb.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelCategories),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for _, p := range model.Priorities {
		row = append(row, tgbotapi.NewKeyboardButton(string(p)))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard offers the existing categories two per row.
func categoryKeyboard(categories []model.Category) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(categories); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(categories[i].Name))
		if i+1 < len(categories) {
			row = append(row, tgbotapi.NewKeyboardButton(categories[i+1].Name))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancel),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
