package memstream

// DialogueWindow keeps a sliding window of the most recent conversational
// turns. It feeds the reflection step and prompt assembly; long-term recall
// goes through the Stream instead.
//
// DialogueWindow is not safe for concurrent use; the Engine guards it with
// its own mutex.
type DialogueWindow struct {
	turns   []string
	maxSize int
}

// NewDialogueWindow creates a window holding at most maxSize turns. A
// non-positive maxSize falls back to DefaultWindowSize.
func NewDialogueWindow(maxSize int) *DialogueWindow {
	if maxSize <= 0 {
		maxSize = DefaultWindowSize
	}
	return &DialogueWindow{maxSize: maxSize}
}

// Append adds a turn, evicting the oldest once the window is full.
func (w *DialogueWindow) Append(turn string) {
	w.turns = append(w.turns, turn)
	if len(w.turns) > w.maxSize {
		w.turns = w.turns[len(w.turns)-w.maxSize:]
	}
}

// Last returns up to n most recent turns in chronological order. The result
// is a copy.
func (w *DialogueWindow) Last(n int) []string {
	if n <= 0 || len(w.turns) == 0 {
		return nil
	}
	if n > len(w.turns) {
		n = len(w.turns)
	}
	out := make([]string, n)
	copy(out, w.turns[len(w.turns)-n:])
	return out
}

// Len returns the number of turns currently held.
func (w *DialogueWindow) Len() int {
	return len(w.turns)
}

// Reset discards all turns.
func (w *DialogueWindow) Reset() {
	w.turns = nil
}
