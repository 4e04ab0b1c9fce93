package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ScoreRepository - the persisted per-room scoreboard. The in-memory session
// stays authoritative; redis holds the derived score table used to resync
// late joiners and rejoining players.
type ScoreRepository interface {
	SetScore(ctx context.Context, roomID, playerID string, score int) error
	GetScores(ctx context.Context, roomID string) (map[string]int, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

func scoreKey(roomID string) string {
	return "scores:" + roomID
}

func (that *dbScore) SetScore(ctx context.Context, roomID, playerID string, score int) error {
	if err := that.client.HSet(ctx, scoreKey(roomID), playerID, score).Err(); err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}

	return nil
}

func (that *dbScore) GetScores(ctx context.Context, roomID string) (map[string]int, error) {
	fields, err := that.client.HGetAll(ctx, scoreKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}

	scores := make(map[string]int, len(fields))
	for playerID, raw := range fields {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse score for %s: %w", playerID, err)
		}
		scores[playerID] = score
	}

	return scores, nil
}

func (that *dbScore) DeleteRoom(ctx context.Context, roomID string) error {
	if err := that.client.Del(ctx, scoreKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete room scores: %w", err)
	}

	return nil
}
