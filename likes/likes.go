// Package likes keeps post likes in Redis sets and periodically copies the
// set sizes into the feeds table.
package likes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "feeds:likes:"

func key(postID int64) string {
	return keyPrefix + strconv.FormatInt(postID, 10)
}

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Add reports whether memberID was newly added to the post's likes.
func (s *Store) Add(ctx context.Context, postID, memberID int64) (bool, error) {
	n, err := s.rdb.SAdd(ctx, key(postID), memberID).Result()
	if err != nil {
		return false, fmt.Errorf("add like: %w", err)
	}
	return n == 1, nil
}

// Remove reports whether memberID had liked the post.
func (s *Store) Remove(ctx context.Context, postID, memberID int64) (bool, error) {
	n, err := s.rdb.SRem(ctx, key(postID), memberID).Result()
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}
	return n == 1, nil
}

func (s *Store) Count(ctx context.Context, postID int64) (int64, error) {
	n, err := s.rdb.SCard(ctx, key(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// Counts returns the like count of every post in postIDs with one round trip.
func (s *Store) Counts(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	cmds := make([]*redis.IntCmd, len(postIDs))
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range postIDs {
			cmds[i] = pipe.SCard(ctx, key(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	for i, id := range postIDs {
		counts[id] = cmds[i].Val()
	}
	return counts, nil
}

func (s *Store) Liked(ctx context.Context, postID, memberID int64) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, key(postID), memberID).Result()
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return ok, nil
}

func (s *Store) Clear(ctx context.Context, postID int64) error {
	if err := s.rdb.Del(ctx, key(postID)).Err(); err != nil {
		return fmt.Errorf("clear likes: %w", err)
	}
	return nil
}

type CountWriter interface {
	UpdateLikeCount(ctx context.Context, postID int64, count int64) error
}

// Syncer copies like counts from Redis into the database on a fixed interval.
type Syncer struct {
	rdb      *redis.Client
	feeds    CountWriter
	interval time.Duration
}

func NewSyncer(rdb *redis.Client, feeds CountWriter, interval time.Duration) *Syncer {
	return &Syncer{rdb: rdb, feeds: feeds, interval: interval}
}

func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Like sync stopped")
			return
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				log.WithField("error", err).Error("Like sync failed")
			}
		}
	}
}

// SyncOnce writes every like set's size to its feed row and returns how many
// feeds were updated. A failing feed is logged and skipped.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	start := time.Now()
	synced := 0

	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		postID, err := strconv.ParseInt(strings.TrimPrefix(k, keyPrefix), 10, 64)
		if err != nil {
			continue
		}

		count, err := s.rdb.SCard(ctx, k).Result()
		if err != nil {
			log.WithFields(log.Fields{"key": k, "error": err}).Warn("Failed to count likes")
			continue
		}
		if err := s.feeds.UpdateLikeCount(ctx, postID, count); err != nil {
			log.WithFields(log.Fields{"postId": postID, "error": err}).Warn("Failed to store like count")
			continue
		}
		synced++
	}
	if err := iter.Err(); err != nil {
		return synced, fmt.Errorf("scan like keys: %w", err)
	}

	log.WithFields(log.Fields{
		"synced":  synced,
		"elapsed": time.Since(start),
	}).Debug("Like counts synced")
	return synced, nil
}
