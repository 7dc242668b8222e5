package otp

import (
	"context"
	"errors"
	"sync"
)

// CodeLength is the number of digit slots.
const CodeLength = 6

// State of a verification flow.
type State string

const (
	StateCollecting State = "collecting"
	StateVerifying  State = "verifying"
	StateVerified   State = "verified"
	StateRejected   State = "rejected"
)

var (
	ErrVerificationInFlight = errors.New("verification already in progress")
	ErrAlreadyVerified      = errors.New("code already verified")
	ErrInvalidDigit         = errors.New("invalid digit")
	ErrIncompleteCode       = errors.New("code is incomplete")
)

const rejectedMessage = "The code could not be verified. Please try again."

// VerificationError is a rejected code. It never fails the payment by
// itself; the payer may resend and retry.
type VerificationError struct {
	Message string
	Err     error
}

func (e *VerificationError) Error() string {
	return e.Message
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// VerifyFunc checks a complete code. A nil error means verified.
type VerifyFunc func(ctx context.Context, code string) error

// Snapshot is the observable state of a flow.
type Snapshot struct {
	State    State    `json:"state"`
	Digits   []string `json:"digits"`
	Error    string   `json:"error,omitempty"`
	Attempts int      `json:"attempts"`
}

// Option configures a Flow.
type Option func(*Flow)

// WithResend sets the callback that asks the backend for a new code.
func WithResend(fn func(ctx context.Context) error) Option {
	return func(f *Flow) { f.resend = fn }
}

// OnVerified is called once, after the code is accepted.
func OnVerified(fn func(ctx context.Context)) Option {
	return func(f *Flow) { f.onVerified = fn }
}

// OnChange receives a snapshot after every state change.
func OnChange(fn func(Snapshot)) Option {
	return func(f *Flow) { f.onChange = fn }
}

// Flow collects a 6-digit code and verifies it. At most one verification is
// in flight, and none starts after the code has been accepted.
type Flow struct {
	mu       sync.Mutex
	digits   [CodeLength]string
	state    State
	err      *VerificationError
	attempts int

	verify     VerifyFunc
	resend     func(ctx context.Context) error
	onVerified func(ctx context.Context)
	onChange   func(Snapshot)
}

// New creates a flow in the collecting state.
func New(verify VerifyFunc, opts ...Option) *Flow {
	f := &Flow{verify: verify, state: StateCollecting}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetDigit fills or clears one slot. Filling the last empty slot submits the
// code.
func (f *Flow) SetDigit(ctx context.Context, index int, value string) error {
	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if index < 0 || index >= CodeLength {
		f.mu.Unlock()
		return ErrInvalidDigit
	}
	if value != "" && !isDigit(value) {
		f.mu.Unlock()
		return ErrInvalidDigit
	}

	f.digits[index] = value
	f.reopenLocked()
	if !f.completeLocked() {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.notify(snap)
		return nil
	}
	return f.startLocked(ctx)
}

// Paste fills every slot from a pasted code and submits it. Anything that
// does not reduce to exactly 6 digits is ignored.
func (f *Flow) Paste(ctx context.Context, code string) error {
	var digits []string
	for _, r := range code {
		if r >= '0' && r <= '9' {
			digits = append(digits, string(r))
		}
	}
	if len(digits) != CodeLength {
		return ErrIncompleteCode
	}

	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	copy(f.digits[:], digits)
	f.reopenLocked()
	return f.startLocked(ctx)
}

// Submit verifies the current code explicitly.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if !f.completeLocked() {
		f.mu.Unlock()
		return ErrIncompleteCode
	}
	return f.startLocked(ctx)
}

// Resend clears every slot, returns to collecting and requests a new code.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.digits = [CodeLength]string{}
	f.state = StateCollecting
	f.err = nil
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	if f.resend != nil {
		return f.resend(ctx)
	}
	return nil
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns a copy of the observable state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// startLocked must be called with f.mu held; it releases it.
func (f *Flow) startLocked(ctx context.Context) error {
	code := ""
	for _, d := range f.digits {
		code += d
	}
	f.state = StateVerifying
	f.attempts++
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)

	err := f.verify(ctx, code)

	f.mu.Lock()
	var verr *VerificationError
	if err != nil {
		if !errors.As(err, &verr) {
			verr = &VerificationError{Message: rejectedMessage, Err: err}
		}
		f.state = StateRejected
		f.err = verr
	} else {
		f.state = StateVerified
		f.err = nil
	}
	snap = f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	if verr != nil {
		return verr
	}
	if f.onVerified != nil {
		f.onVerified(ctx)
	}
	return nil
}

func (f *Flow) editableLocked() error {
	switch f.state {
	case StateVerifying:
		return ErrVerificationInFlight
	case StateVerified:
		return ErrAlreadyVerified
	}
	return nil
}

// Editing after a rejection re-enables auto-submit.
func (f *Flow) reopenLocked() {
	if f.state == StateRejected {
		f.state = StateCollecting
		f.err = nil
	}
}

func (f *Flow) completeLocked() bool {
	for _, d := range f.digits {
		if d == "" {
			return false
		}
	}
	return true
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    f.state,
		Digits:   append([]string(nil), f.digits[:]...),
		Attempts: f.attempts,
	}
	if f.err != nil {
		s.Error = f.err.Message
	}
	return s
}

func (f *Flow) notify(s Snapshot) {
	if f.onChange != nil {
		f.onChange(s)
	}
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}
