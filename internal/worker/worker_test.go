package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"eshop/internal/config"
	"eshop/internal/logger"

	"github.com/stretchr/testify/assert"
)

type fakePoller struct {
	interval atomic.Int64
	stopped  atomic.Bool
}

func (f *fakePoller) Run(ctx context.Context, interval time.Duration) {
	f.interval.Store(int64(interval))
	<-ctx.Done()
	f.stopped.Store(true)
}

func TestStartWithoutKafkaOnlyPolls(t *testing.T) {
	poller := &fakePoller{}
	w := &Worker{
		config: &config.Config{},
		logger: logger.NewNop(),
		poller: poller,
	}

	w.Start(context.Background())
	assert.Eventually(t, func() bool { return poller.interval.Load() != 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, defaultPollInterval, time.Duration(poller.interval.Load()))

	w.Stop()
	assert.True(t, poller.stopped.Load())
}
