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

func TestCreateMatch(t *testing.T) {
	cricket := &models.Sport{ID: 1, Name: "Cricket", Category: models.SportCategoryTeam, Status: models.SportStatusOpen}
	chess := &models.Sport{ID: 2, Name: "Chess", Category: models.SportCategorySolo, Status: models.SportStatusOpen}
	football := &models.Sport{ID: 3, Name: "Football", Category: models.SportCategoryTeam, Status: models.SportStatusOpen}

	strikers := &models.Team{ID: 5, Name: "Strikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusLocked}
	blasters := &models.Team{ID: 6, Name: "Blasters", SportID: 1, CaptainID: 11, Status: models.TeamStatusLocked}
	openTeam := &models.Team{ID: 7, Name: "Unready", SportID: 1, CaptainID: 12, Status: models.TeamStatusOpen}
	kickers := &models.Team{ID: 8, Name: "Kickers", SportID: 3, CaptainID: 13, Status: models.TeamStatusLocked}
	roses := &models.Team{ID: 9, Name: "Roses", SportID: 1, CaptainID: 14, Status: models.TeamStatusLocked}

	rohan := &models.User{ID: 10, FirstName: "Rohan", LastName: "Mehta", Gender: models.GenderMale}
	vikram := &models.User{ID: 11, FirstName: "Vikram", LastName: "Naik", Gender: models.GenderMale}
	priya := &models.User{ID: 14, FirstName: "Priya", LastName: "Kulkarni", Gender: models.GenderFemale}

	alice := &models.User{ID: 20, FirstName: "Alice", LastName: "Fernandes", Gender: models.GenderFemale}
	bina := &models.User{ID: 21, FirstName: "Bina", LastName: "Shah", Gender: models.GenderFemale}
	carl := &models.User{ID: 22, FirstName: "Carl", LastName: "D'Souza", Gender: models.GenderMale}

	start := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)

	newSvc := func() (MatchService, *fakeBroadcaster) {
		broadcaster := &fakeBroadcaster{}
		svc := NewMatchService(
			newFakeMatchRepo(),
			newFakeSportRepo(cricket, chess, football),
			newFakeTeamRepo(strikers, blasters, openTeam, kickers, roses),
			newFakeUserRepo(rohan, vikram, priya, alice, bina, carl),
			broadcaster,
			nil,
		)
		return svc, broadcaster
	}

	t.Run("two locked teams of the sport", func(t *testing.T) {
		svc, _ := newSvc()
		match, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(6),
			Venue: "Main Ground", StartTime: start,
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusUpcoming, match.Status)
		assert.Equal(t, "Strikers", match.HomeName)
		assert.Equal(t, "Blasters", match.AwayName)
	})

	t.Run("team cannot play itself", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(5),
			Venue: "Main Ground", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrInvalidOpponentPair)
	})

	t.Run("open team is not schedulable", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(7),
			Venue: "Main Ground", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrTeamNotReady)
	})

	t.Run("captains' genders must match", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(9),
			Venue: "Main Ground", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrGenderMismatch)
	})

	t.Run("team from another sport", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(8),
			Venue: "Main Ground", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrInvalidOpponentPair)
	})

	t.Run("solo pairing by full names", func(t *testing.T) {
		svc, _ := newSvc()
		match, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 2, HomeUserID: intPtr(20), AwayUserID: intPtr(21),
			Venue: "Hall B", StartTime: start,
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice Fernandes", match.HomeName)
		assert.Equal(t, "Bina Shah", match.AwayName)
	})

	t.Run("solo gender mismatch", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 2, HomeUserID: intPtr(20), AwayUserID: intPtr(22),
			Venue: "Hall B", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrGenderMismatch)
	})

	t.Run("player cannot play self", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 2, HomeUserID: intPtr(20), AwayUserID: intPtr(20),
			Venue: "Hall B", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrInvalidOpponentPair)
	})

	t.Run("venue and start time required", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(6), StartTime: start,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)

		_, err = svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeTeamID: intPtr(5), AwayTeamID: intPtr(6), Venue: "Main Ground",
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("teams are required for a team sport", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
			SportID: 1, HomeUserID: intPtr(20), AwayUserID: intPtr(21),
			Venue: "Main Ground", StartTime: start,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestUpdateScore(t *testing.T) {
	live := &models.Match{ID: 1, SportID: 1, HomeName: "Strikers", AwayName: "Blasters", Status: models.MatchStatusLive}
	done := &models.Match{ID: 2, SportID: 1, HomeName: "A", AwayName: "B", Status: models.MatchStatusCompleted}

	broadcaster := &fakeBroadcaster{}
	svc := NewMatchService(newFakeMatchRepo(live, done), newFakeSportRepo(), newFakeTeamRepo(), newFakeUserRepo(), broadcaster, nil)

	t.Run("free text score with broadcast", func(t *testing.T) {
		match, err := svc.UpdateScore(context.Background(), 1, "124/7", "98/4")
		require.NoError(t, err)
		assert.Equal(t, "124/7", match.HomeScore)
		assert.Equal(t, "98/4", match.AwayScore)

		require.Equal(t, 1, broadcaster.count())
		var event struct {
			Type  string        `json:"type"`
			Match *models.Match `json:"match"`
		}
		require.NoError(t, json.Unmarshal(broadcaster.events[0].Payload, &event))
		assert.Equal(t, "MATCH_SCORE_UPDATED", event.Type)
		assert.Equal(t, 1, event.Match.ID)
	})

	t.Run("completed match is frozen", func(t *testing.T) {
		_, err := svc.UpdateScore(context.Background(), 2, "1", "0")
		assert.ErrorIs(t, err, ErrMatchCompleted)
	})
}

func TestUpdateMatchStatus(t *testing.T) {
	newSvc := func(status models.MatchStatus) (MatchService, *fakeMatchRepo, *fakeBroadcaster) {
		match := &models.Match{ID: 1, SportID: 1, HomeName: "A", AwayName: "B", Status: status}
		matchRepo := newFakeMatchRepo(match)
		broadcaster := &fakeBroadcaster{}
		svc := NewMatchService(matchRepo, newFakeSportRepo(), newFakeTeamRepo(), newFakeUserRepo(), broadcaster, nil)
		return svc, matchRepo, broadcaster
	}

	t.Run("forward transitions", func(t *testing.T) {
		svc, matchRepo, broadcaster := newSvc(models.MatchStatusUpcoming)

		match, err := svc.UpdateStatus(context.Background(), 1, models.MatchStatusLive)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusLive, match.Status)

		match, err = svc.UpdateStatus(context.Background(), 1, models.MatchStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, match.Status)

		stored, err := matchRepo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, stored.Status)
		assert.Equal(t, 2, broadcaster.count())
	})

	t.Run("skipping live is allowed", func(t *testing.T) {
		svc, _, _ := newSvc(models.MatchStatusUpcoming)
		match, err := svc.UpdateStatus(context.Background(), 1, models.MatchStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, match.Status)
	})

	t.Run("backwards transition is rejected", func(t *testing.T) {
		svc, _, broadcaster := newSvc(models.MatchStatusCompleted)
		_, err := svc.UpdateStatus(context.Background(), 1, models.MatchStatusLive)
		assert.ErrorIs(t, err, ErrMatchStatusTransition)
		assert.Zero(t, broadcaster.count())
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		svc, _, broadcaster := newSvc(models.MatchStatusLive)
		match, err := svc.UpdateStatus(context.Background(), 1, models.MatchStatusLive)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusLive, match.Status)
		assert.Zero(t, broadcaster.count())
	})
}

func TestDeleteMatch(t *testing.T) {
	upcoming := &models.Match{ID: 1, SportID: 1, Status: models.MatchStatusUpcoming}
	live := &models.Match{ID: 2, SportID: 1, Status: models.MatchStatusLive}
	matchRepo := newFakeMatchRepo(upcoming, live)
	svc := NewMatchService(matchRepo, newFakeSportRepo(), newFakeTeamRepo(), newFakeUserRepo(), nil, nil)

	t.Run("upcoming match is deletable", func(t *testing.T) {
		require.NoError(t, svc.DeleteMatch(context.Background(), 1))
		_, err := matchRepo.GetByID(context.Background(), 1)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("started match is not", func(t *testing.T) {
		err := svc.DeleteMatch(context.Background(), 2)
		assert.ErrorIs(t, err, ErrMatchNotUpcoming)
	})
}

func TestAutoStartDueMatches(t *testing.T) {
	now := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	due := &models.Match{ID: 1, SportID: 1, Status: models.MatchStatusUpcoming, StartTime: now.Add(-5 * time.Minute)}
	alsoDue := &models.Match{ID: 2, SportID: 1, Status: models.MatchStatusUpcoming, StartTime: now}
	future := &models.Match{ID: 3, SportID: 1, Status: models.MatchStatusUpcoming, StartTime: now.Add(time.Hour)}
	alreadyLive := &models.Match{ID: 4, SportID: 1, Status: models.MatchStatusLive, StartTime: now.Add(-time.Hour)}

	matchRepo := newFakeMatchRepo(due, alsoDue, future, alreadyLive)
	broadcaster := &fakeBroadcaster{}
	svc := NewMatchService(matchRepo, newFakeSportRepo(), newFakeTeamRepo(), newFakeUserRepo(), broadcaster, nil)

	started, err := svc.AutoStartDueMatches(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, started)
	assert.Equal(t, 2, broadcaster.count())

	for _, id := range []int{1, 2} {
		match, err := matchRepo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusLive, match.Status)
	}
	stillUpcoming, err := matchRepo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusUpcoming, stillUpcoming.Status)
}
