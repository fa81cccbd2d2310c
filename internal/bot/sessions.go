package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/session"
)

// chatSession is a logged in chat.
type chatSession struct {
	employee models.Employee
	session  *session.Session
	cancel   context.CancelFunc
}

// Sessions maps Telegram chats to their running sessions.
type Sessions struct {
	mu    sync.RWMutex
	chats map[int64]*chatSession
}

func NewSessions() *Sessions {
	return &Sessions{chats: make(map[int64]*chatSession)}
}

// Get returns the session of a chat.
func (s *Sessions) Get(chatID int64) (*chatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	return chat, ok
}

// Put registers a chat session, closing the one it replaces. It returns the number of sessions.
func (s *Sessions) Put(chatID int64, chat *chatSession) int {
	s.mu.Lock()
	previous := s.chats[chatID]
	s.chats[chatID] = chat
	count := len(s.chats)
	s.mu.Unlock()

	previous.close()
	return count
}

// Remove closes and forgets the session of a chat. It returns the number of remaining sessions.
func (s *Sessions) Remove(chatID int64) (int, bool) {
	s.mu.Lock()
	chat, ok := s.chats[chatID]
	delete(s.chats, chatID)
	count := len(s.chats)
	s.mu.Unlock()

	chat.close()
	return count, ok
}

// CloseAll closes every session.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	chats := s.chats
	s.chats = make(map[int64]*chatSession)
	s.mu.Unlock()

	for _, chat := range chats {
		chat.close()
	}
}

func (c *chatSession) close() {
	if c == nil {
		return
	}
	c.session.Close()
	c.cancel()
}

// startSession opens a session for the employee in the chat and starts its loop.
func (b *Bot) startSession(ctx context.Context, chatID int64, telegramLang string, employee models.Employee) error {
	notifier := &chatNotifier{bot: b, chatID: chatID, telegramLang: telegramLang}
	sess := session.New(b.log, b.metrics, b.orders, notifier, b.clock, session.Employee{
		ID:   employee.ID,
		Name: employee.Name,
	})

	if err := sess.Load(ctx); err != nil {
		sess.Close()
		return fmt.Errorf("failed to load active orders: %w", err)
	}

	runCtx, cancel := context.WithCancel(b.ctx)
	go sess.Run(runCtx)

	count := b.sessions.Put(chatID, &chatSession{employee: employee, session: sess, cancel: cancel})
	b.metrics.ActiveBotSessions.Set(float64(count))

	return nil
}

func (b *Bot) endSession(chatID int64) bool {
	count, ok := b.sessions.Remove(chatID)
	b.metrics.ActiveBotSessions.Set(float64(count))
	return ok
}
