package batch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Schedule runs fn on every tick of a cron spec until ctx is done. The spec
// accepts five-field cron expressions and descriptors such as "@every 5m".
// Ticks that fire while a previous run is still going are skipped.
func Schedule(ctx context.Context, spec string, fn func(context.Context)) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { fn(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	log.Info().Str("schedule", spec).Msg("Batch scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("Batch scheduler stopped")
	return nil
}
