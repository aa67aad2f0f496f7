package ui

import "sync"

// ModalTypeGoal tags modal content that holds a core.Goal.
const ModalTypeGoal = "Goal"

// ModalController owns the lifecycle of the shared detail/edit surface.
type ModalController interface {
	SetContent(content any)
	SetType(kind string)
	SetIsOpen(open bool)
}

type ModalSnapshot struct {
	Content any
	Type    string
	IsOpen  bool
}

// ModalState is an in-memory ModalController safe for concurrent use.
type ModalState struct {
	mu      sync.Mutex
	content any
	kind    string
	open    bool
}

func (m *ModalState) SetContent(content any) {
	m.mu.Lock()
	m.content = content
	m.mu.Unlock()
}

func (m *ModalState) SetType(kind string) {
	m.mu.Lock()
	m.kind = kind
	m.mu.Unlock()
}

func (m *ModalState) SetIsOpen(open bool) {
	m.mu.Lock()
	m.open = open
	m.mu.Unlock()
}

// Close hides the modal and drops its content.
func (m *ModalState) Close() {
	m.mu.Lock()
	m.open = false
	m.content = nil
	m.kind = ""
	m.mu.Unlock()
}

func (m *ModalState) Snapshot() ModalSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ModalSnapshot{Content: m.content, Type: m.kind, IsOpen: m.open}
}
