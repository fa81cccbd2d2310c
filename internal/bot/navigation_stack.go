package bot

import "sync"

// NavigationStack remembers the menus a user opened so that "back" returns to the previous one.
// The bottom entry is the user's root menu and is never popped.
type NavigationStack struct {
	mu      sync.RWMutex
	history map[int64][]MenuType
}

func NewNavigationStack() *NavigationStack {
	return &NavigationStack{history: make(map[int64][]MenuType)}
}

// Push records an opened menu. Reopening the current menu does not grow the history.
func (ns *NavigationStack) Push(userID int64, menu MenuType) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	visited := ns.history[userID]
	if n := len(visited); n > 0 && visited[n-1] == menu {
		return
	}
	ns.history[userID] = append(visited, menu)
}

// Back leaves the current menu and returns the one to show. At the root it stays put.
func (ns *NavigationStack) Back(userID int64) MenuType {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	visited := ns.history[userID]
	switch len(visited) {
	case 0:
		return MenuMain
	case 1:
		return visited[0]
	}

	visited = visited[:len(visited)-1]
	ns.history[userID] = visited
	return visited[len(visited)-1]
}

// Current returns the menu the user is looking at, MenuMain when nothing was recorded.
func (ns *NavigationStack) Current(userID int64) MenuType {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if visited := ns.history[userID]; len(visited) > 0 {
		return visited[len(visited)-1]
	}
	return MenuMain
}

// Reset forgets the user's history, on login, logout and /start.
func (ns *NavigationStack) Reset(userID int64) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	delete(ns.history, userID)
}
