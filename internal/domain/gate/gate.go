package gate

// ID is the fixed disclosure id of the vault gate.
const ID = "vault"

// Result is the outcome of an unlock attempt.
type Result string

const (
	// Unlocked means the passphrase matched.
	Unlocked Result = "unlocked"
	// Rejected means the passphrase did not match. It is a normal outcome, not an error.
	Rejected Result = "rejected"
)

// Status is the observable gate state.
type Status string

// Gate states.
const (
	StatusLocked   Status = "locked"
	StatusUnlocked Status = "unlocked"
)

// Verifier decides whether an input matches the expected passphrase.
type Verifier interface {
	Verify(input string) bool
}

// Gate guards a single process-local "unlocked" flag. It is never persisted:
// a new Gate (one per mounted vault screen) always starts locked.
type Gate struct {
	verifier Verifier
	unlocked bool
	input    string
}

// New creates a locked gate.
func New(v Verifier) *Gate {
	return &Gate{verifier: v}
}

// SetInput replaces the passphrase field buffer.
func (g *Gate) SetInput(text string) { g.input = text }

// Input returns the passphrase field buffer.
func (g *Gate) Input() string { return g.input }

// AttemptUnlock compares input against the expected passphrase.
// On success the gate unlocks. On failure the flag is left as it was and the input is cleared.
func (g *Gate) AttemptUnlock(input string) Result {
	g.input = input
	if g.verifier != nil && g.verifier.Verify(input) {
		g.unlocked = true
		return Unlocked
	}
	g.input = ""
	return Rejected
}

// Lock re-locks the gate and clears the input.
func (g *Gate) Lock() {
	g.unlocked = false
	g.input = ""
}

// IsUnlocked reports the flag.
func (g *Gate) IsUnlocked() bool { return g.unlocked }

// Status returns the gate state.
func (g *Gate) Status() Status {
	if g.unlocked {
		return StatusUnlocked
	}
	return StatusLocked
}
