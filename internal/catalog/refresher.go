package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher rebuilds the catalog on a cron schedule so row-count statistics
// and embeddings track the store without manual intervention. A failed
// rebuild keeps the previous snapshot in place.
type Refresher struct {
	catalog *Catalog
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

// NewRefresher schedules periodic rebuilds. schedule uses cron syntax
// (e.g. "@daily"). Call Start to begin and Stop to drain.
func NewRefresher(c *Catalog, schedule string, timeout time.Duration, logger *slog.Logger) (*Refresher, error) {
	r := &Refresher{
		catalog: c,
		cron:    cron.New(),
		logger:  logger,
		timeout: timeout,
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.catalog.Rebuild(ctx); err != nil {
		r.logger.Warn("scheduled catalog rebuild failed, keeping previous snapshot", "error", err)
	}
}

// Start begins the schedule in its own goroutine.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for a running rebuild to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
