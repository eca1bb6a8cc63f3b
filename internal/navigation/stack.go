// Package navigation tracks per-chat screen history for "back" navigation.
// The stacks are memory-resident; losing them on restart is non-fatal since
// the user can simply re-navigate.
package navigation

import "sync"

// MaxDepth bounds each chat's stack; the oldest entry is evicted beyond it.
const MaxDepth = 10

// Stack holds bounded per-chat screen stacks keyed by chat id.
type Stack struct {
	mu     sync.Mutex
	stacks map[int64][]string
}

// New creates an empty navigation stack registry.
func New() *Stack {
	return &Stack{stacks: make(map[int64][]string)}
}

// Push records entry into a screen. Pushing the screen already on top is a
// no-op, which keeps "re-render current screen" paths from stacking
// duplicates.
func (s *Stack) Push(chatID int64, screen string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stack := s.stacks[chatID]
	if len(stack) > 0 && stack[len(stack)-1] == screen {
		return
	}

	stack = append(stack, screen)
	if len(stack) > MaxDepth {
		stack = stack[len(stack)-MaxDepth:]
	}
	s.stacks[chatID] = stack
}

// Pop removes and returns the top screen. Returns ("", false) when the chat
// has no history.
func (s *Stack) Pop(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stack := s.stacks[chatID]
	if len(stack) == 0 {
		return "", false
	}

	top := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if len(stack) == 0 {
		delete(s.stacks, chatID)
	} else {
		s.stacks[chatID] = stack
	}
	return top, true
}

// Peek returns the current screen without removing it.
func (s *Stack) Peek(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stack := s.stacks[chatID]
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1], true
}

// Depth returns the number of screens recorded for a chat.
func (s *Stack) Depth(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stacks[chatID])
}

// Clear drops the chat's entire history. Returns whether anything was
// removed.
func (s *Stack) Clear(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.stacks[chatID]
	delete(s.stacks, chatID)
	return existed
}
