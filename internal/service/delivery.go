package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Deepx7/otp_market_bot/config"
)

// deliveryPool is a bounded worker pool that simulates OTP delivery:
// each job waits a random delay and then rolls the configured success
// probability before resolving its order. A fixed set of workers over a
// buffered channel keeps one slow burst of purchases from spawning an
// unbounded number of goroutines.
type deliveryPool struct {
	service *Service
	jobs    chan uint
	workers int

	delayMin    time.Duration
	delayMax    time.Duration
	successRate float64

	startOnce sync.Once
}

func newDeliveryPool(s *Service, cfg *config.Config) *deliveryPool {
	workers := cfg.DeliveryWorkers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.DeliveryQueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	return &deliveryPool{
		service:     s,
		jobs:        make(chan uint, queueSize),
		workers:     workers,
		delayMin:    time.Duration(cfg.DeliveryDelayMinSec) * time.Second,
		delayMax:    time.Duration(cfg.DeliveryDelayMaxSec) * time.Second,
		successRate: cfg.DeliverySuccessRate,
	}
}

func (p *deliveryPool) start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.worker(ctx)
		}
		p.service.logger.Infof("Started %d delivery workers", p.workers)
	})
}

// enqueue never blocks the purchase path: if the buffer is full the
// send moves to its own goroutine, so a burst bigger than the queue
// delays that delivery instead of stalling the caller.
func (p *deliveryPool) enqueue(orderID uint) {
	select {
	case p.jobs <- orderID:
	default:
		p.service.logger.Warnf("Delivery queue full, deferring order %d", orderID)
		go func() {
			p.jobs <- orderID
		}()
	}
}

func (p *deliveryPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case orderID := <-p.jobs:
			if !p.wait(ctx) {
				return
			}
			p.service.resolveDelivery(ctx, orderID, rand.Float64() < p.successRate)
		}
	}
}

// wait sleeps the simulated delivery latency, returning false if the
// pool is shutting down.
func (p *deliveryPool) wait(ctx context.Context) bool {
	delay := p.delayMin
	if p.delayMax > p.delayMin {
		delay += time.Duration(rand.Int63n(int64(p.delayMax - p.delayMin)))
	}
	if delay <= 0 {
		return true
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
