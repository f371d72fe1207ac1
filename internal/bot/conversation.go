package bot

import "sync"

// State is the position of a chat in the add-expense conversation.
type State int

const (
	// StateIdle means no expense entry is in progress.
	StateIdle State = iota
	// StateAwaitingCategory means a category keyboard has been shown.
	StateAwaitingCategory
	// StateAwaitingAmount means a category is selected and the bot waits
	// for an "[amount] [description]" message.
	StateAwaitingAmount
)

// conversation is the per-chat state of the add-expense flow.
type conversation struct {
	State    State
	Category string
}

// conversations tracks the add-expense flow per chat. Updates for different
// chats are handled concurrently, so access is mutex-guarded.
type conversations struct {
	mu    sync.Mutex
	chats map[int64]*conversation
}

func newConversations() *conversations {
	return &conversations{chats: make(map[int64]*conversation)}
}

// get returns the conversation for a chat, defaulting to idle.
func (c *conversations) get(chatID int64) conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conv, ok := c.chats[chatID]; ok {
		return *conv
	}
	return conversation{State: StateIdle}
}

// set replaces the conversation state for a chat.
func (c *conversations) set(chatID int64, conv conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats[chatID] = &conv
}

// reset returns a chat to the idle state.
func (c *conversations) reset(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chats, chatID)
}
