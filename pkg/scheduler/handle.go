package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
)

type cronHandle struct {
	cron   *cron.Cron
	entry  cron.EntryID
	cancel context.CancelFunc
}

func (h *cronHandle) Stop() {
	h.cron.Remove(h.entry)
	h.cancel()
}

type intervalHandle struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (h *intervalHandle) Stop() {
	h.once.Do(h.cancel)
}
