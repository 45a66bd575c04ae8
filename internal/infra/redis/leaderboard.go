package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gurukulx/internal/domain"
)

const leaderboardKey = "gurukulx:leaderboard"

// LeaderboardMirror projects the local leaderboard into a Redis sorted set.
// The local list stays authoritative; the mirror exists for cheap top-N and
// rank reads by other consumers and is strictly best-effort.
type LeaderboardMirror struct {
	client *redis.Client
}

func NewLeaderboardMirror(client *redis.Client) *LeaderboardMirror {
	return &LeaderboardMirror{client: client}
}

// Publish replaces the mirrored set with the given entries.
func (m *LeaderboardMirror) Publish(ctx context.Context, entries []domain.LeaderboardEntry) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, leaderboardKey)
	for _, e := range entries {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(e.Score), Member: e.Name})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish leaderboard: %w", err)
	}
	return nil
}

// Top returns the n highest-scored names from the mirror.
func (m *LeaderboardMirror) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	members, err := m.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for _, z := range members {
		name, _ := z.Member.(string)
		entries = append(entries, domain.LeaderboardEntry{Name: name, Score: int(z.Score)})
	}
	return entries, nil
}

// Rank reports the positional rank of name: 1 plus the count of members with
// a strictly greater score, matching the local projection's semantics.
func (m *LeaderboardMirror) Rank(ctx context.Context, name string) (int, error) {
	score, err := m.client.ZScore(ctx, leaderboardKey, name).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrProfileNotFound
		}
		return 0, fmt.Errorf("rank lookup: %w", err)
	}
	greater, err := m.client.ZCount(ctx, leaderboardKey, fmt.Sprintf("(%d", int(score)), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("rank count: %w", err)
	}
	return int(greater) + 1, nil
}
