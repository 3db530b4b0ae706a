package matching

import "fmt"

// DefaultMaxAttempts bounds the number of shuffles per Assign call. The
// expected number of shuffles approaches e, so the cap is never reached
// in practice.
const DefaultMaxAttempts = 1000

// Engine draws derangements by rejection sampling: shuffle uniformly,
// discard shuffles with a fixed point, repeat.
type Engine struct {
	src         Source
	maxAttempts int
	observe     func(attempts int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithObserver registers fn to be called with the shuffle count of every
// successful Assign.
func WithObserver(fn func(attempts int)) Option {
	return func(e *Engine) {
		e.observe = fn
	}
}

// NewEngine creates an Engine drawing randomness from src.
func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:         src,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Matcher = (*Engine)(nil)

// Assign returns one assignment per participant, in input order of the
// givers. The input slice is not modified.
func (e *Engine) Assign(participants []Participant) ([]Assignment, error) {
	n := len(participants)
	if n < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrInsufficientParticipants, n)
	}
	if err := validate(participants); err != nil {
		return nil, err
	}

	receivers := make([]Participant, n)
	copy(receivers, participants)

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		e.shuffle(receivers)
		if hasFixedPoint(participants, receivers) {
			continue
		}

		if e.observe != nil {
			e.observe(attempt)
		}

		assignments := make([]Assignment, n)
		for k := range participants {
			assignments[k] = Assignment{
				GiverID:    participants[k].ID,
				ReceiverID: receivers[k].ID,
			}
		}
		return assignments, nil
	}

	return nil, fmt.Errorf("%w after %d attempts for %d participants", ErrInternalFailure, e.maxAttempts, n)
}

// shuffle is Fisher-Yates over the whole slice.
func (e *Engine) shuffle(w []Participant) {
	for i := len(w) - 1; i > 0; i-- {
		j := e.src.IntN(i + 1)
		w[i], w[j] = w[j], w[i]
	}
}

func hasFixedPoint(givers, receivers []Participant) bool {
	for k := range givers {
		if givers[k].ID == receivers[k].ID {
			return true
		}
	}
	return false
}

func validate(participants []Participant) error {
	seen := make(map[string]struct{}, len(participants))
	for i, p := range participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant at index %d has an empty id", ErrInvalidInput, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant id %q", ErrInvalidInput, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
