package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/thermal"
)

func newEngine(t *testing.T, src string) *Engine {
	t.Helper()
	dir := t.TempDir()
	if src != "" {
		if err := os.WriteFile(filepath.Join(dir, "policy.lua"), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestShouldRecoverCallsLua(t *testing.T) {
	e := newEngine(t, `
function should_recover(ctx)
    return ctx.state == THERMAL_COOL and ctx.stable_frames >= 10
end`)
	if !e.Has("should_recover") {
		t.Fatal("expected should_recover to be loaded")
	}
	ctx := quality.RecoveryContext{State: thermal.Cool, FPS: 60, TargetFPS: 60, StableFrames: 9, RequiredFrames: 300}
	if e.ShouldRecover(ctx) {
		t.Error("expected no recovery at 9 frames")
	}
	ctx.StableFrames = 10
	if !e.ShouldRecover(ctx) {
		t.Error("expected recovery at 10 frames")
	}
}

func TestShouldRecoverFallsBackWithoutScript(t *testing.T) {
	e := newEngine(t, "")
	ctx := quality.RecoveryContext{State: thermal.Cool, StableFrames: 299, RequiredFrames: 300}
	if e.ShouldRecover(ctx) {
		t.Error("built-in rule should wait for 300 frames")
	}
	ctx.StableFrames = 300
	if !e.ShouldRecover(ctx) {
		t.Error("built-in rule should recover at 300 frames")
	}
}

func TestShouldRecoverFallsBackOnError(t *testing.T) {
	e := newEngine(t, `function should_recover(ctx) error("boom") end`)
	ctx := quality.RecoveryContext{State: thermal.Cool, StableFrames: 300, RequiredFrames: 300}
	if !e.ShouldRecover(ctx) {
		t.Error("expected built-in decision after lua error")
	}
	if !e.failed["should_recover"] {
		t.Error("expected failure to be recorded")
	}
}

func TestShippedRecoveryScript(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts", "quality"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	base := quality.RecoveryContext{State: thermal.Cool, FPS: 60, TargetFPS: 60, RequiredFrames: 300}

	ctx := base
	ctx.StableFrames = 299
	if e.ShouldRecover(ctx) {
		t.Error("at target fps the full wait applies")
	}
	ctx.StableFrames = 300
	if !e.ShouldRecover(ctx) {
		t.Error("expected recovery after the full wait")
	}

	ctx = base
	ctx.FPS = 75
	ctx.StableFrames = 150
	if !e.ShouldRecover(ctx) {
		t.Error("headroom should halve the wait")
	}

	ctx.State = thermal.Warm
	if e.ShouldRecover(ctx) {
		t.Error("warm state must not recover")
	}
}

func TestLoadErrorClosesEngine(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("this is not lua"), 0o644)
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Error("expected load error")
	}
}
