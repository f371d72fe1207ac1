package bot

import "github.com/tallylabs/expensebot/internal/telegram"

// Reply keyboard button labels. These double as message routes: pressing a
// button sends its label as a plain text message.
const (
	buttonAddExpense  = "➕ Add Expense"
	buttonCategories  = "📊 Categories"
	buttonSpreadsheet = "📝 Open Spreadsheet"
	buttonHelp        = "ℹ️ Help"
)

// Callback data values for inline keyboards.
const (
	callbackCategoryPrefix = "cat_"
	callbackChangeCategory = "change_category"
	callbackCancelExpense  = "cancel_expense"
	callbackAddExpense     = "add_expense"
)

// mainKeyboard is the persistent reply keyboard offering quick access to the
// bot's commands.
func mainKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: buttonAddExpense}, {Text: buttonCategories}},
			{{Text: buttonSpreadsheet}, {Text: buttonHelp}},
		},
		ResizeKeyboard: true,
	}
}

// categoryKeyboard builds an inline keyboard of categories, two per row.
// Categories are expected pre-sorted.
func categoryKeyboard(categories []string) telegram.InlineKeyboardMarkup {
	var keyboard [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton

	for _, category := range categories {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         category,
			CallbackData: callbackCategoryPrefix + category,
		})
		if len(row) == 2 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return telegram.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

// amountKeyboard offers changing the category or cancelling while the bot
// waits for an amount.
func amountKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "🔄 Change Category", CallbackData: callbackChangeCategory}},
			{{Text: "❌ Cancel", CallbackData: callbackCancelExpense}},
		},
	}
}

// spreadsheetKeyboard links to the current month's tab.
func spreadsheetKeyboard(url string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Open Current Month", URL: url}},
		},
	}
}
