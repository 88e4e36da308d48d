package storage

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cleaner deletes images from the store in the background once the rows that
// referenced them are gone. The queue is bounded; when it is full, URLs are
// dropped and logged rather than blocking the request.
type Cleaner struct {
	store        ImageStore
	queue        chan string
	timeout      time.Duration
	drainTimeout time.Duration
}

func NewCleaner(store ImageStore, capacity int) *Cleaner {
	return &Cleaner{
		store:        store,
		queue:        make(chan string, capacity),
		timeout:      30 * time.Second,
		drainTimeout: 10 * time.Second,
	}
}

func (c *Cleaner) Enqueue(urls ...string) {
	for _, url := range urls {
		select {
		case c.queue <- url:
		default:
			log.WithField("url", url).Warn("Image cleanup queue full, dropping")
		}
	}
}

// Run drains the queue until ctx is cancelled, then deletes whatever is
// still queued before returning.
func (c *Cleaner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.drain()
			return
		case url := <-c.queue:
			c.remove(context.Background(), url)
		}
	}
}

// drain empties the queue without waiting for new URLs, giving up once
// drainTimeout has passed.
func (c *Cleaner) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), c.drainTimeout)
	defer cancel()

	removed := 0
	for {
		if ctx.Err() != nil {
			log.WithFields(log.Fields{
				"removed": removed,
				"pending": len(c.queue),
			}).Warn("Image cleaner stopped before the queue was empty")
			return
		}
		select {
		case url := <-c.queue:
			c.remove(ctx, url)
			removed++
		default:
			log.WithField("removed", removed).Info("Image cleaner stopped")
			return
		}
	}
}

func (c *Cleaner) remove(parent context.Context, url string) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	if err := c.store.Delete(ctx, url); err != nil {
		log.WithFields(log.Fields{
			"url":   url,
			"error": err,
		}).Error("Failed to delete image")
		return
	}
	log.WithField("url", url).Debug("Deleted image")
}
