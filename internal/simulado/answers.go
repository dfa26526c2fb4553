package simulado

// AnswerStore maps question ids to the selected answer of one attempt.
// It is not safe for concurrent use; the owning Session serialises access.
type AnswerStore struct {
	entries map[string]string
}

// NewAnswerStore creates an empty AnswerStore.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{entries: make(map[string]string)}
}

// Set records value as the answer for questionID, replacing any earlier one.
// The value is not checked against the question's options.
func (s *AnswerStore) Set(questionID, value string) {
	s.entries[questionID] = value
}

// Get returns the stored answer. ok is false when the question is unanswered.
func (s *AnswerStore) Get(questionID string) (value string, ok bool) {
	value, ok = s.entries[questionID]
	return value, ok
}

// Len returns the number of answered questions.
func (s *AnswerStore) Len() int {
	return len(s.entries)
}

// Snapshot returns a copy of all entries.
func (s *AnswerStore) Snapshot() map[string]string {
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
