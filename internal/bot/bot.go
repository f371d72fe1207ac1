// Package bot routes Telegram updates to the expense tracker: command
// handling, the add-expense conversation flow and user-facing replies.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallylabs/expensebot/internal/expense"
	"github.com/tallylabs/expensebot/internal/telegram"
	"github.com/tallylabs/expensebot/pkg/logger"
)

// Messenger is the part of the Telegram client the bot depends on.
type Messenger interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, params telegram.EditMessageTextParams) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// Expenses is the part of the expense service the bot depends on.
type Expenses interface {
	Categories(ctx context.Context) ([]string, error)
	AddExpense(ctx context.Context, category string, entry *expense.Entry) error
	SpreadsheetURL(ctx context.Context) (string, error)
	CurrentMonthTab() string
}

// Bot handles Telegram updates for the expense tracker.
type Bot struct {
	messenger     Messenger
	expenses      Expenses
	conversations *conversations
	logger        *logger.Logger
}

// New creates a bot wired to the given Telegram client and expense service.
func New(messenger Messenger, expenses Expenses, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Default()
	}
	return &Bot{
		messenger:     messenger,
		expenses:      expenses,
		conversations: newConversations(),
		logger:        log,
	}
}

// RegisterCommands advertises the command menu with Telegram.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	return b.messenger.SetMyCommands(ctx, []telegram.BotCommand{
		{Command: "expense", Description: "Add a new expense"},
		{Command: "categories", Description: "View available categories"},
		{Command: "spreadsheet", Description: "Open your expense spreadsheet"},
		{Command: "help", Description: "Get help with using the bot"},
	})
}

// HandleUpdate routes one update. It implements telegram.Handler.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	ctx = logger.ContextWithUpdateID(ctx, update.UpdateID)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage routes text messages: commands, reply keyboard buttons and
// conversation input.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	ctx = logger.ContextWithChatID(ctx, msg.Chat.ID)
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg.Chat.ID, text)
		return
	}

	// Amount input while an expense entry is in progress takes precedence
	// over keyboard button routing.
	conv := b.conversations.get(msg.Chat.ID)
	if conv.State == StateAwaitingAmount && !isKeyboardButton(text) {
		b.handleAmountInput(ctx, msg.Chat.ID, conv.Category, text)
		return
	}

	switch text {
	case buttonAddExpense:
		b.startExpense(ctx, msg.Chat.ID)
	case buttonCategories:
		b.showCategories(ctx, msg.Chat.ID)
	case buttonSpreadsheet:
		b.openSpreadsheet(ctx, msg.Chat.ID)
	case buttonHelp:
		b.showHelp(ctx, msg.Chat.ID)
	default:
		b.reply(ctx, msg.Chat.ID,
			"I don't understand that command. Please use the keyboard or type / to see available commands.")
	}
}

// handleCommand routes slash commands.
func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) {
	command, _, _ := strings.Cut(text, " ")
	// Commands may arrive as /command@botname in group chats.
	command, _, _ = strings.Cut(command, "@")

	b.logger.WithContext(ctx).Info("command received", "command", command)

	switch command {
	case "/start":
		b.showWelcome(ctx, chatID)
	case "/help":
		b.showHelp(ctx, chatID)
	case "/categories":
		b.showCategories(ctx, chatID)
	case "/spreadsheet":
		b.openSpreadsheet(ctx, chatID)
	case "/expense":
		b.startExpense(ctx, chatID)
	case "/cancel":
		b.cancel(ctx, chatID)
	default:
		b.reply(ctx, chatID,
			"I don't understand that command. Please use the keyboard or type / to see available commands.")
	}
}

// handleCallback routes inline keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	ctx = logger.ContextWithChatID(ctx, chatID)

	if err := b.messenger.AnswerCallbackQuery(ctx, query.ID); err != nil {
		b.logger.WithContext(ctx).WithError(err).Warn("answering callback query failed")
	}

	switch {
	case strings.HasPrefix(query.Data, callbackCategoryPrefix):
		category := strings.TrimPrefix(query.Data, callbackCategoryPrefix)
		b.categorySelected(ctx, chatID, query.Message.MessageID, category)
	case query.Data == callbackChangeCategory:
		b.changeCategory(ctx, chatID, query.Message.MessageID)
	case query.Data == callbackCancelExpense:
		b.cancelExpense(ctx, chatID, query.Message.MessageID)
	case query.Data == callbackAddExpense:
		b.startExpense(ctx, chatID)
	}
}

func (b *Bot) showWelcome(ctx context.Context, chatID int64) {
	b.send(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text: "Welcome to the Expense Tracker Bot!\n\n" +
			"Use the keyboard below for quick access to commands or type:\n" +
			"/expense - Add a new expense\n" +
			"/categories - See available categories\n" +
			"/spreadsheet - Open your expense spreadsheet\n" +
			"/help - Get help with using the bot",
		ReplyMarkup: mainKeyboard(),
	})
}

func (b *Bot) showHelp(ctx context.Context, chatID int64) {
	b.send(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text: "🤖 *Expense Tracker Help*\n\n" +
			"*Available Commands:*\n" +
			"/expense - Add a new expense\n" +
			"/categories - View available expense categories\n" +
			"/spreadsheet - Open your expense spreadsheet\n" +
			"/help - Show this help message\n\n" +
			"*How to Add an Expense:*\n" +
			"1. Press 'Add Expense' or use /expense\n" +
			"2. Select a category\n" +
			"3. Enter amount and description\n\n" +
			"*Example:* 25.50 Groceries at Walmart",
		ParseMode:   "Markdown",
		ReplyMarkup: mainKeyboard(),
	})
}

func (b *Bot) showCategories(ctx context.Context, chatID int64) {
	categories, err := b.expenses.Categories(ctx)
	if err != nil {
		b.replyError(ctx, chatID, "Error loading categories", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("Available expense categories:\n\n")
	for _, category := range categories {
		sb.WriteString("• ")
		sb.WriteString(category)
		sb.WriteString("\n")
	}

	b.send(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: mainKeyboard(),
	})
}

func (b *Bot) openSpreadsheet(ctx context.Context, chatID int64) {
	url, err := b.expenses.SpreadsheetURL(ctx)
	if err != nil {
		b.replyError(ctx, chatID, "Error opening spreadsheet", err)
		return
	}

	b.send(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text: fmt.Sprintf("📝 *Your Expense Spreadsheet - %s*\n\n"+
			"Click the button below to open your current month's expense sheet:",
			b.expenses.CurrentMonthTab()),
		ParseMode:   "Markdown",
		ReplyMarkup: spreadsheetKeyboard(url),
	})
}

// startExpense begins the add-expense flow by showing the category keyboard.
func (b *Bot) startExpense(ctx context.Context, chatID int64) {
	categories, err := b.expenses.Categories(ctx)
	if err != nil {
		b.replyError(ctx, chatID, "Error loading categories", err)
		return
	}

	if len(categories) == 0 {
		b.conversations.reset(chatID)
		b.send(ctx, telegram.SendMessageParams{
			ChatID:      chatID,
			Text:        "❌ No categories found in your spreadsheet. Please add category headers in row 1.",
			ReplyMarkup: mainKeyboard(),
		})
		return
	}

	b.conversations.set(chatID, conversation{State: StateAwaitingCategory})
	b.send(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        "Please select the expense category:",
		ReplyMarkup: categoryKeyboard(categories),
	})
}

// categorySelected stores the chosen category and prompts for the amount.
func (b *Bot) categorySelected(ctx context.Context, chatID, messageID int64, category string) {
	b.conversations.set(chatID, conversation{State: StateAwaitingAmount, Category: category})

	err := b.messenger.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text: fmt.Sprintf("✅ Category selected: *%s*\n\n"+
			"Please enter the amount and description in one message.\n"+
			"Format: [amount] [description]\n"+
			"Example: 25.10 street food with family\n\n"+
			"Or use the buttons below:", category),
		ParseMode:   "Markdown",
		ReplyMarkup: amountKeyboard(),
	})
	if err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("editing category message failed")
	}
}

// changeCategory clears the selection and shows the category keyboard again.
func (b *Bot) changeCategory(ctx context.Context, chatID, messageID int64) {
	categories, err := b.expenses.Categories(ctx)
	if err != nil {
		b.replyError(ctx, chatID, "Error loading categories", err)
		return
	}

	b.conversations.set(chatID, conversation{State: StateAwaitingCategory})

	markup := categoryKeyboard(categories)
	err = b.messenger.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        "Please select the expense category:",
		ReplyMarkup: &markup,
	})
	if err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("editing category message failed")
	}
}

// cancelExpense aborts the flow from the inline keyboard.
func (b *Bot) cancelExpense(ctx context.Context, chatID, messageID int64) {
	b.conversations.reset(chatID)

	err := b.messenger.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      "❌ Expense entry cancelled.\n\nWhat would you like to do next?",
	})
	if err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("editing cancel message failed")
	}

	b.send(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        "Use the keyboard below for quick access:",
		ReplyMarkup: mainKeyboard(),
	})
}

// cancel aborts the flow from the /cancel command.
func (b *Bot) cancel(ctx context.Context, chatID int64) {
	b.conversations.reset(chatID)
	b.send(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        "Operation cancelled. What would you like to do next?",
		ReplyMarkup: mainKeyboard(),
	})
}

// handleAmountInput parses the amount message and writes the expense.
func (b *Bot) handleAmountInput(ctx context.Context, chatID int64, category, text string) {
	entry, err := expense.ParseEntry(text)
	if err != nil {
		// Stay in the awaiting-amount state and re-prompt.
		b.reply(ctx, chatID,
			"Please enter a valid amount and description.\n"+
				"Format: [amount] [description]\n"+
				"Example: 25.10 street food with family")
		return
	}

	if err := b.expenses.AddExpense(ctx, category, entry); err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("adding expense failed", "category", category)
		b.conversations.reset(chatID)
		b.send(ctx, telegram.SendMessageParams{
			ChatID:      chatID,
			Text:        fmt.Sprintf("❌ Error saving expense: %v\nPlease try again.", err),
			ReplyMarkup: mainKeyboard(),
		})
		return
	}

	b.conversations.reset(chatID)
	b.send(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text: fmt.Sprintf("✅ Expense added successfully!\n\n"+
			"Category: %s\nEntry: %s\n\n"+
			"Use the keyboard below to continue.", category, entry),
		ReplyMarkup: mainKeyboard(),
	})
}

// reply sends a plain text message without changing the keyboard.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text})
}

// replyError reports a failure to the user and logs it.
func (b *Bot) replyError(ctx context.Context, chatID int64, prefix string, err error) {
	b.logger.WithContext(ctx).WithError(err).Error(strings.ToLower(prefix))
	b.send(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf("❌ %s: %v\nPlease try again.", prefix, err),
		ReplyMarkup: mainKeyboard(),
	})
}

// send delivers a message, logging delivery failures.
func (b *Bot) send(ctx context.Context, params telegram.SendMessageParams) {
	if _, err := b.messenger.SendMessage(ctx, params); err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("sending message failed")
	}
}

// isKeyboardButton reports whether the text matches a reply keyboard label.
func isKeyboardButton(text string) bool {
	switch text {
	case buttonAddExpense, buttonCategories, buttonSpreadsheet, buttonHelp:
		return true
	}
	return false
}
