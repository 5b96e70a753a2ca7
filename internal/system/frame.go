package system

import (
	"time"

	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/governor"
	"github.com/mindland/governor/internal/telemetry"
)

// RunFrame runs one governed frame: open, all systems in phase order, then
// close with a fresh telemetry sample.
func RunFrame(g *governor.Governor, r *coresys.Runner, src telemetry.Source, dt time.Duration) (governor.FrameReport, error) {
	if err := g.BeginFrame(); err != nil {
		return governor.FrameReport{}, err
	}
	r.Tick(dt)
	return g.EndFrame(src.Sample())
}
