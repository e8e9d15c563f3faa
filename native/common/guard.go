package common

import "errors"

var (
	ErrModulePaused  = errors.New("module paused")
	ErrReentrantCall = errors.New("reentrant call into guarded module")
)

// PauseView reports whether a named module is administratively paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view means pausing
// is not wired and the call proceeds.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// CallGuard is a call-depth flag protecting a module's state-mutating entry
// points against nested re-entry from external calls made mid-operation.
// It is not a mutex: concurrent callers are serialized by the embedding
// server, so the flag only ever trips for a same-call re-entry.
type CallGuard struct {
	entered bool
}

// Enter marks the guarded section as active. It fails when the section is
// already active, which means an external collaborator called back into the
// module before the current operation finished.
func (g *CallGuard) Enter() error {
	if g.entered {
		return ErrReentrantCall
	}
	g.entered = true
	return nil
}

// Exit releases the guard. It must run on every exit path, including aborts.
func (g *CallGuard) Exit() {
	g.entered = false
}
