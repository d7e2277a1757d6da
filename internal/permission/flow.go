package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"expense-cli/internal/i18n"
	"expense-cli/internal/logging"
)

// FlowState is where the controller is between a trigger and its outcome.
type FlowState string

const (
	StateIdle       FlowState = "idle"
	StateChecking   FlowState = "checking"
	StatePrompt     FlowState = "prompt"
	StateRequesting FlowState = "requesting"
)

var (
	// ErrFlowBusy is returned when a status query or request is already in flight.
	ErrFlowBusy = errors.New("permission flow already in progress")
	// ErrNoPrompt is returned by prompt actions while no prompt is visible.
	ErrNoPrompt = errors.New("no permission prompt visible")
)

// Handlers receive the outcomes of a flow. Any of them may be nil.
type Handlers struct {
	OnGrant func()
	OnDeny  func()
	// OnReset runs when the flow ends without an outcome (backdrop dismiss or
	// the settings hand-off). Owners usually drop their trigger here.
	OnReset func()
	// OnInitialCheckCompleted runs once per activation with the queried status.
	OnInitialCheckCompleted func(Status)
}

// Prompt is everything a renderer needs for the confirmation modal.
type Prompt struct {
	Visible    bool   `json:"visible"`
	HasError   bool   `json:"hasError"`
	Loading    bool   `json:"loading"`
	TitleKey   string `json:"titleKey"`
	MessageKey string `json:"messageKey"`
	ConfirmKey string `json:"confirmKey"`
	CancelKey  string `json:"cancelKey"`
}

type Option func(*Flow)

func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.log = logging.OrDiscard(l) }
}

// Flow is the permission-flow controller. Methods are safe to call from
// multiple goroutines; handlers are invoked without the internal lock held.
type Flow struct {
	perm     Permission
	settings SettingsOpener
	h        Handlers
	log      *slog.Logger

	mu       sync.Mutex
	state    FlowState
	hasError bool
	loading  bool
	trigger  bool
}

// New builds a controller. settings may be nil when the platform has no way to
// open privacy settings.
func New(p Permission, settings SettingsOpener, h Handlers, opts ...Option) *Flow {
	f := &Flow{
		perm:     p,
		settings: settings,
		h:        h,
		log:      logging.Discard(),
		state:    StateIdle,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// SetTrigger records the owner's "start" flag and starts the flow on a rising
// edge. Holding the flag high does not start another activation.
func (f *Flow) SetTrigger(ctx context.Context, on bool) error {
	f.mu.Lock()
	rising := on && !f.trigger
	f.trigger = on
	f.mu.Unlock()
	if !rising {
		return nil
	}
	return f.Start(ctx)
}

// Start queries the current status. Allowed statuses resolve to OnGrant at once;
// anything else shows the prompt, with the error copy when access is blocked.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return ErrFlowBusy
	}
	f.state = StateChecking
	f.hasError = false
	f.mu.Unlock()

	st, err := f.perm.Status(ctx)
	if err != nil {
		f.setState(StateIdle, false)
		f.log.Warn("permission status query failed", "err", err)
		return fmt.Errorf("query permission status: %w", err)
	}
	f.log.Debug("permission status", "status", st)

	if f.h.OnInitialCheckCompleted != nil {
		f.h.OnInitialCheckCompleted(st)
	}
	if st.Allowed() {
		f.setState(StateIdle, false)
		call(f.h.OnGrant)
		return nil
	}
	f.setState(StatePrompt, st == Blocked)
	return nil
}

// Confirm is the prompt's primary button. In the error sub-state it hands off
// to the OS settings and resets; otherwise it issues the permission request.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case StateRequesting, StateChecking:
		f.mu.Unlock()
		return ErrFlowBusy
	case StateIdle:
		f.mu.Unlock()
		return ErrNoPrompt
	}

	if f.hasError {
		f.state = StateIdle
		f.hasError = false
		f.mu.Unlock()

		var openErr error
		if f.settings != nil && f.settings.Available() {
			if openErr = f.settings.OpenSettings(ctx); openErr != nil {
				f.log.Warn("open settings failed", "err", openErr)
				openErr = fmt.Errorf("open settings: %w", openErr)
			}
		} else {
			f.log.Info("settings opener unavailable; resetting permission flow")
		}
		call(f.h.OnReset)
		return openErr
	}

	f.state = StateRequesting
	f.loading = true
	f.mu.Unlock()

	st, err := f.perm.Request(ctx)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.state = StatePrompt
		f.mu.Unlock()
		f.log.Warn("permission request failed", "err", err)
		return fmt.Errorf("request permission: %w", err)
	}
	switch {
	case st.Allowed():
		f.state, f.hasError = StateIdle, false
		f.mu.Unlock()
		call(f.h.OnGrant)
	case st == Blocked:
		f.state, f.hasError = StatePrompt, true
		f.mu.Unlock()
	default:
		f.state, f.hasError = StateIdle, false
		f.mu.Unlock()
		call(f.h.OnDeny)
	}
	f.log.Debug("permission request resolved", "status", st)
	return nil
}

// Cancel is the explicit "not now": it denies without touching settings.
func (f *Flow) Cancel() error {
	if err := f.closePrompt(); err != nil {
		return err
	}
	call(f.h.OnDeny)
	return nil
}

// Dismiss closes the prompt from the backdrop. It resolves neither way.
func (f *Flow) Dismiss() error {
	if err := f.closePrompt(); err != nil {
		return err
	}
	call(f.h.OnReset)
	return nil
}

func (f *Flow) closePrompt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StatePrompt:
		f.state, f.hasError = StateIdle, false
		return nil
	case StateIdle:
		return ErrNoPrompt
	default:
		return ErrFlowBusy
	}
}

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Prompt returns the modal as it should currently render.
func (f *Flow) Prompt() Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := Prompt{
		Visible:    f.state == StatePrompt || f.state == StateRequesting,
		HasError:   f.hasError,
		Loading:    f.loading,
		TitleKey:   i18n.ReceiptLocationAccessTitle,
		MessageKey: i18n.ReceiptLocationAccessMessage,
		ConfirmKey: i18n.CommonContinue,
		CancelKey:  i18n.CommonNotNow,
	}
	if f.hasError {
		p.TitleKey = i18n.ReceiptLocationErrorTitle
		p.MessageKey = i18n.ReceiptLocationErrorMessage
		p.ConfirmKey = i18n.CommonSettings
	}
	return p
}

func (f *Flow) setState(s FlowState, hasError bool) {
	f.mu.Lock()
	f.state = s
	f.hasError = hasError
	f.mu.Unlock()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
