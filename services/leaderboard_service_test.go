package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urjafest/sportsfest-backend/models"
)

type fakeLeaderboardRepo struct {
	entries map[string]*models.LeaderboardEntry
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{entries: make(map[string]*models.LeaderboardEntry)}
}

func (r *fakeLeaderboardRepo) AwardMedal(_ context.Context, className string, medal models.Medal) (*models.LeaderboardEntry, error) {
	entry, ok := r.entries[className]
	if !ok {
		entry = &models.LeaderboardEntry{ID: len(r.entries) + 1, ClassName: className}
		r.entries[className] = entry
	}
	switch medal {
	case models.MedalGold:
		entry.Gold++
	case models.MedalSilver:
		entry.Silver++
	case models.MedalBronze:
		entry.Bronze++
	}
	entry.Points += medal.Points()
	entry.UpdatedAt = time.Now()
	copied := *entry
	return &copied, nil
}

func (r *fakeLeaderboardRepo) List(_ context.Context) ([]*models.LeaderboardEntry, error) {
	var out []*models.LeaderboardEntry
	for _, e := range r.entries {
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

type fakeLeaderboardBroadcaster struct {
	payloads [][]byte
}

func (b *fakeLeaderboardBroadcaster) BroadcastToLeaderboard(message []byte) error {
	b.payloads = append(b.payloads, message)
	return nil
}

func TestAwardMedal(t *testing.T) {
	t.Run("medals accumulate points", func(t *testing.T) {
		repo := newFakeLeaderboardRepo()
		broadcaster := &fakeLeaderboardBroadcaster{}
		svc := NewLeaderboardService(repo, broadcaster, nil)

		_, err := svc.AwardMedal(context.Background(), "XII-A", models.MedalGold)
		require.NoError(t, err)
		entry, err := svc.AwardMedal(context.Background(), "XII-A", models.MedalBronze)
		require.NoError(t, err)

		assert.Equal(t, 1, entry.Gold)
		assert.Equal(t, 1, entry.Bronze)
		assert.Equal(t, 6, entry.Points)
		assert.Len(t, broadcaster.payloads, 2)

		var event struct {
			Type  string                   `json:"type"`
			Entry *models.LeaderboardEntry `json:"entry"`
		}
		require.NoError(t, json.Unmarshal(broadcaster.payloads[1], &event))
		assert.Equal(t, "LEADERBOARD_UPDATED", event.Type)
		assert.Equal(t, "XII-A", event.Entry.ClassName)
	})

	t.Run("class name is trimmed and required", func(t *testing.T) {
		svc := NewLeaderboardService(newFakeLeaderboardRepo(), nil, nil)

		_, err := svc.AwardMedal(context.Background(), "   ", models.MedalGold)
		assert.ErrorIs(t, err, ErrValidationFailed)

		entry, err := svc.AwardMedal(context.Background(), "  XI-B  ", models.MedalSilver)
		require.NoError(t, err)
		assert.Equal(t, "XI-B", entry.ClassName)
	})

	t.Run("unknown medal", func(t *testing.T) {
		svc := NewLeaderboardService(newFakeLeaderboardRepo(), nil, nil)
		_, err := svc.AwardMedal(context.Background(), "XII-A", models.Medal("platinum"))
		assert.ErrorIs(t, err, ErrInvalidMedal)
	})
}
