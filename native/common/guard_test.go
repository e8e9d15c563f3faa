package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuardPaused(t *testing.T) {
	if err := Guard(nil, "collateral"); err != nil {
		t.Fatalf("nil view should pass: %v", err)
	}
	view := pauseMap{"collateral": true}
	if err := Guard(view, "collateral"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(view, "token"); err != nil {
		t.Fatalf("unpaused module should pass: %v", err)
	}
}

func TestCallGuardRejectsNestedEntry(t *testing.T) {
	var g CallGuard
	if err := g.Enter(); err != nil {
		t.Fatalf("first enter: %v", err)
	}
	if err := g.Enter(); !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("expected ErrReentrantCall, got %v", err)
	}
	g.Exit()
	if err := g.Enter(); err != nil {
		t.Fatalf("enter after exit: %v", err)
	}
}
