// Package history implements a browser-style session history stack.
//
// Entries are plain path strings. A Stack never holds views or resolved
// routes, so it can be replayed against any route table.
package history

// Stack is an ordered list of visited paths with a cursor. The zero value
// is an empty, unbounded stack.
// It is not safe for concurrent use; each navigation session owns one.
type Stack struct {
	entries []string

	// pos is the cursor index plus one, so the zero value means "empty".
	pos int

	// MaxEntries bounds the stack. When a push would exceed it, the oldest
	// entries are dropped. Zero means unbounded.
	MaxEntries int
}

// New creates an empty stack holding at most max entries (0 for unbounded).
func New(max int) *Stack {
	return &Stack{MaxEntries: max}
}

// Push appends path after the cursor, discarding any forward entries, and
// moves the cursor onto it.
func (s *Stack) Push(path string) {
	s.entries = append(s.entries[:s.pos], path)
	s.pos = len(s.entries)

	if s.MaxEntries > 0 && len(s.entries) > s.MaxEntries {
		drop := len(s.entries) - s.MaxEntries
		s.entries = append([]string(nil), s.entries[drop:]...)
		s.pos -= drop
	}
}

// Replace overwrites the entry under the cursor. On an empty stack it pushes.
func (s *Stack) Replace(path string) {
	if s.pos == 0 {
		s.Push(path)
		return
	}
	s.entries[s.pos-1] = path
}

// Current returns the entry under the cursor.
func (s *Stack) Current() (string, bool) {
	if s.pos == 0 {
		return "", false
	}
	return s.entries[s.pos-1], true
}

// Peek returns the entry delta steps from the cursor without moving it.
func (s *Stack) Peek(delta int) (string, bool) {
	i := s.pos - 1 + delta
	if s.pos == 0 || i < 0 || i >= len(s.entries) {
		return "", false
	}
	return s.entries[i], true
}

// Go moves the cursor by delta. It reports false, leaving the cursor in
// place, when the target is out of range.
func (s *Stack) Go(delta int) (string, bool) {
	path, ok := s.Peek(delta)
	if !ok {
		return "", false
	}
	s.pos += delta
	return path, true
}

// Back moves the cursor one entry back.
func (s *Stack) Back() (string, bool) { return s.Go(-1) }

// Forward moves the cursor one entry forward.
func (s *Stack) Forward() (string, bool) { return s.Go(1) }

// CanGoBack reports whether Back would succeed.
func (s *Stack) CanGoBack() bool { return s.pos > 1 }

// CanGoForward reports whether Forward would succeed.
func (s *Stack) CanGoForward() bool { return s.pos > 0 && s.pos < len(s.entries) }

// Len returns the number of entries.
func (s *Stack) Len() int { return len(s.entries) }

// Index returns the cursor position, or -1 for an empty stack.
func (s *Stack) Index() int { return s.pos - 1 }

// Entries returns a copy of all entries.
func (s *Stack) Entries() []string {
	return append([]string(nil), s.entries...)
}
