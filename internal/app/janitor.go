/**
 * @description
 * Cron-driven janitor that sweeps resolved settlement sessions out of the
 * engine's in-memory table once they age past the retention window. Pending
 * sessions are untouched; their own timers resolve them.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor owns the sweep schedule.
type Janitor struct {
	cron      *cron.Cron
	engine    *Engine
	retention time.Duration
}

// NewJanitor wires the sweep job onto a cron schedule.
func NewJanitor(engine *Engine, schedule string, retention time.Duration) (*Janitor, error) {
	cronLogger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	j := &Janitor{cron: c, engine: engine, retention: retention}
	if _, err := c.AddFunc(schedule, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) sweep() {
	if removed := j.engine.SweepResolved(j.retention); removed > 0 {
		log.Printf("level=info component=janitor msg=\"resolved sessions swept\" removed=%d", removed)
	}
}

// Start begins the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop gracefully stops the scheduler; the returned context is done once any
// in-flight sweep finishes.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}
