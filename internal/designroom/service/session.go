package service

import (
	"errors"
	"sort"
	"sync"

	"design-room/internal/designroom/editor"

	"github.com/google/uuid"
)

// ============================================================
// Session Manager
// ============================================================

var ErrSessionNotFound = errors.New("session not found")

// SessionManager держит открытые сессии редактирования, по одной на сцену.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*editor.Editor // sceneID -> editor
	opts     editor.Options
	loader   editor.BitmapLoader
}

func NewSessionManager(opts editor.Options, loader editor.BitmapLoader) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*editor.Editor),
		opts:     opts,
		loader:   loader,
	}
}

// NewSceneID выдаёт идентификатор для новой сцены.
func (m *SessionManager) NewSceneID() string {
	return uuid.NewString()
}

// New собирает сессию сцены, не регистрируя её: до Attach её никто не видит.
func (m *SessionManager) New(sceneID, name string) *editor.Editor {
	return editor.New(sceneID, name, m.opts, m.loader)
}

// Attach регистрирует уже заполненную сессию. Если сцена открыта,
// возвращается существующая сессия и attached == false.
func (m *SessionManager) Attach(ed *editor.Editor) (current *editor.Editor, attached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.sessions[ed.ID()]; ok {
		return cur, false
	}
	m.sessions[ed.ID()] = ed
	return ed, true
}

func (m *SessionManager) Get(sceneID string) (*editor.Editor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ed, ok := m.sessions[sceneID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ed, nil
}

// Close закрывает сессию и отменяет её загрузки.
func (m *SessionManager) Close(sceneID string) bool {
	m.mu.Lock()
	ed, ok := m.sessions[sceneID]
	delete(m.sessions, sceneID)
	m.mu.Unlock()

	if ok {
		ed.Close()
	}
	return ok
}

// IDs: открытые сцены в стабильном порядке.
func (m *SessionManager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
