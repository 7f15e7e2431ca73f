package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urjafest/sportsfest-backend/models"
)

func intPtr(v int) *int { return &v }

func newTeamServiceForTest(
	teamRepo *fakeTeamRepo,
	membershipRepo *fakeMembershipRepo,
	registrationRepo *fakeRegistrationRepo,
	sportRepo *fakeSportRepo,
	userRepo *fakeUserRepo,
) TeamService {
	return NewTeamService(fakeTxManager{}, teamRepo, membershipRepo, registrationRepo, sportRepo, userRepo, nil, nil, nil)
}

func TestCreateTeam(t *testing.T) {
	cricket := &models.Sport{ID: 1, Name: "Cricket", Category: models.SportCategoryTeam, Status: models.SportStatusOpen}
	chess := &models.Sport{ID: 2, Name: "Chess", Category: models.SportCategorySolo, Status: models.SportStatusOpen}
	closed := &models.Sport{ID: 3, Name: "Football", Category: models.SportCategoryTeam, Status: models.SportStatusClosed}

	t.Run("captain becomes accepted member", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		membershipRepo := newFakeMembershipRepo(teamRepo)
		regRepo := newFakeRegistrationRepo()
		regRepo.add(10, 1)
		svc := newTeamServiceForTest(teamRepo, membershipRepo, regRepo, newFakeSportRepo(cricket), newFakeUserRepo())

		team, err := svc.CreateTeam(context.Background(), 10, 1, "Class XII-A Strikers")
		require.NoError(t, err)
		assert.Equal(t, models.TeamStatusOpen, team.Status)
		assert.Equal(t, 10, team.CaptainID)

		members, err := membershipRepo.ListByTeam(context.Background(), team.ID, nil)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, models.MemberRoleCaptain, members[0].Role)
		assert.Equal(t, models.MembershipStatusAccepted, members[0].Status)
	})

	t.Run("name is required", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), newFakeRegistrationRepo(), newFakeSportRepo(cricket), newFakeUserRepo())

		_, err := svc.CreateTeam(context.Background(), 10, 1, "   ")
		assert.ErrorIs(t, err, ErrTeamNameRequired)
	})

	t.Run("solo sports have no teams", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		regRepo := newFakeRegistrationRepo()
		regRepo.add(10, 2)
		svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), regRepo, newFakeSportRepo(chess), newFakeUserRepo())

		_, err := svc.CreateTeam(context.Background(), 10, 2, "Knights")
		assert.ErrorIs(t, err, ErrSportNotTeamCategory)
	})

	t.Run("closed sport rejects team creation", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		regRepo := newFakeRegistrationRepo()
		regRepo.add(10, 3)
		svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), regRepo, newFakeSportRepo(closed), newFakeUserRepo())

		_, err := svc.CreateTeam(context.Background(), 10, 3, "Late Bloomers")
		assert.ErrorIs(t, err, ErrSportClosed)
	})

	t.Run("sport registration is a prerequisite", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), newFakeRegistrationRepo(), newFakeSportRepo(cricket), newFakeUserRepo())

		_, err := svc.CreateTeam(context.Background(), 10, 1, "Strikers")
		assert.ErrorIs(t, err, ErrRegistrationRequired)
	})

	t.Run("one team per user per sport", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		membershipRepo := newFakeMembershipRepo(teamRepo)
		regRepo := newFakeRegistrationRepo()
		regRepo.add(10, 1)
		svc := newTeamServiceForTest(teamRepo, membershipRepo, regRepo, newFakeSportRepo(cricket), newFakeUserRepo())

		_, err := svc.CreateTeam(context.Background(), 10, 1, "Strikers")
		require.NoError(t, err)

		_, err = svc.CreateTeam(context.Background(), 10, 1, "Second Wind")
		assert.ErrorIs(t, err, ErrAlreadyInTeamForSport)
	})

	t.Run("team name unique per sport", func(t *testing.T) {
		teamRepo := newFakeTeamRepo()
		membershipRepo := newFakeMembershipRepo(teamRepo)
		regRepo := newFakeRegistrationRepo()
		regRepo.add(10, 1)
		regRepo.add(11, 1)
		svc := newTeamServiceForTest(teamRepo, membershipRepo, regRepo, newFakeSportRepo(cricket), newFakeUserRepo())

		_, err := svc.CreateTeam(context.Background(), 10, 1, "Strikers")
		require.NoError(t, err)

		_, err = svc.CreateTeam(context.Background(), 11, 1, "Strikers")
		assert.ErrorIs(t, err, ErrTeamNameConflict)
	})
}

func TestGetTeamByID_PendingVisibility(t *testing.T) {
	cricket := &models.Sport{ID: 1, Name: "Cricket", Category: models.SportCategoryTeam, Status: models.SportStatusOpen}
	team := &models.Team{ID: 5, Name: "Strikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusOpen}
	teamRepo := newFakeTeamRepo(team)
	membershipRepo := newFakeMembershipRepo(teamRepo,
		&models.TeamMember{ID: 1, TeamID: 5, UserID: 10, Status: models.MembershipStatusAccepted, Role: models.MemberRoleCaptain},
		&models.TeamMember{ID: 2, TeamID: 5, UserID: 11, Status: models.MembershipStatusPending, Role: models.MemberRolePlayer},
		&models.TeamMember{ID: 3, TeamID: 5, UserID: 12, Status: models.MembershipStatusRejected, Role: models.MemberRolePlayer},
	)
	svc := newTeamServiceForTest(teamRepo, membershipRepo, newFakeRegistrationRepo(), newFakeSportRepo(cricket), newFakeUserRepo())

	t.Run("captain sees pending requests", func(t *testing.T) {
		got, err := svc.GetTeamByID(context.Background(), 5, 10)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)
		for _, m := range got.Members {
			assert.NotEqual(t, models.MembershipStatusRejected, m.Status)
		}
	})

	t.Run("others see accepted only", func(t *testing.T) {
		got, err := svc.GetTeamByID(context.Background(), 5, 99)
		require.NoError(t, err)
		require.Len(t, got.Members, 1)
		assert.Equal(t, models.MembershipStatusAccepted, got.Members[0].Status)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := svc.GetTeamByID(context.Background(), 404, 10)
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})
}

func TestLockTeam(t *testing.T) {
	volleyball := &models.Sport{ID: 1, Name: "Volleyball", Category: models.SportCategoryTeam, Status: models.SportStatusOpen, RosterSize: intPtr(2)}

	setup := func(accepted int) (TeamService, *fakeTeamRepo) {
		team := &models.Team{ID: 5, Name: "Spikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusOpen}
		teamRepo := newFakeTeamRepo(team)
		var members []*models.TeamMember
		for i := 0; i < accepted; i++ {
			members = append(members, &models.TeamMember{
				ID: i + 1, TeamID: 5, UserID: 10 + i,
				Status: models.MembershipStatusAccepted, Role: models.MemberRolePlayer,
			})
		}
		membershipRepo := newFakeMembershipRepo(teamRepo, members...)
		svc := newTeamServiceForTest(teamRepo, membershipRepo, newFakeRegistrationRepo(), newFakeSportRepo(volleyball), newFakeUserRepo())
		return svc, teamRepo
	}

	t.Run("full roster locks", func(t *testing.T) {
		svc, teamRepo := setup(2)
		locked, err := svc.LockTeam(context.Background(), 5, 10)
		require.NoError(t, err)
		assert.Equal(t, models.TeamStatusLocked, locked.Status)

		stored, err := teamRepo.GetByID(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, models.TeamStatusLocked, stored.Status)
	})

	t.Run("incomplete roster cannot lock", func(t *testing.T) {
		svc, _ := setup(1)
		_, err := svc.LockTeam(context.Background(), 5, 10)
		assert.ErrorIs(t, err, ErrRosterIncomplete)
	})

	t.Run("only captain can lock", func(t *testing.T) {
		svc, _ := setup(2)
		_, err := svc.LockTeam(context.Background(), 5, 99)
		assert.ErrorIs(t, err, ErrCaptainActionForbidden)
	})

	t.Run("repeated lock is a no-op", func(t *testing.T) {
		svc, _ := setup(2)
		_, err := svc.LockTeam(context.Background(), 5, 10)
		require.NoError(t, err)

		again, err := svc.LockTeam(context.Background(), 5, 10)
		require.NoError(t, err)
		assert.Equal(t, models.TeamStatusLocked, again.Status)
	})
}

func TestDeleteTeam(t *testing.T) {
	t.Run("open team is removed with its memberships", func(t *testing.T) {
		team := &models.Team{ID: 5, Name: "Strikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusOpen}
		teamRepo := newFakeTeamRepo(team)
		membershipRepo := newFakeMembershipRepo(teamRepo,
			&models.TeamMember{ID: 1, TeamID: 5, UserID: 10, Status: models.MembershipStatusAccepted, Role: models.MemberRoleCaptain},
			&models.TeamMember{ID: 2, TeamID: 5, UserID: 11, Status: models.MembershipStatusPending, Role: models.MemberRolePlayer},
		)
		svc := newTeamServiceForTest(teamRepo, membershipRepo, newFakeRegistrationRepo(), newFakeSportRepo(), newFakeUserRepo())

		require.NoError(t, svc.DeleteTeam(context.Background(), 5, 10))

		_, err := teamRepo.GetByID(context.Background(), 5)
		assert.ErrorIs(t, err, ErrTeamNotFound, "team row should be gone")
		members, err := membershipRepo.ListByTeam(context.Background(), 5, nil)
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("locked team cannot be deleted", func(t *testing.T) {
		team := &models.Team{ID: 5, Name: "Strikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusLocked}
		teamRepo := newFakeTeamRepo(team)
		svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), newFakeRegistrationRepo(), newFakeSportRepo(), newFakeUserRepo())

		err := svc.DeleteTeam(context.Background(), 5, 10)
		assert.ErrorIs(t, err, ErrTeamLocked)
	})

	t.Run("only captain can delete", func(t *testing.T) {
		team := &models.Team{ID: 5, Name: "Strikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusOpen}
		teamRepo := newFakeTeamRepo(team)
		svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), newFakeRegistrationRepo(), newFakeSportRepo(), newFakeUserRepo())

		err := svc.DeleteTeam(context.Background(), 5, 11)
		assert.ErrorIs(t, err, ErrCaptainActionForbidden)
	})
}

func TestUploadLogoWithoutStorage(t *testing.T) {
	team := &models.Team{ID: 5, Name: "Strikers", SportID: 1, CaptainID: 10, Status: models.TeamStatusOpen}
	teamRepo := newFakeTeamRepo(team)
	svc := newTeamServiceForTest(teamRepo, newFakeMembershipRepo(teamRepo), newFakeRegistrationRepo(), newFakeSportRepo(), newFakeUserRepo())

	_, err := svc.UploadLogo(context.Background(), 5, 10, "image/png", nil)
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestGetTeamByID_MissingSport(t *testing.T) {
	// GetTeamByID не должен падать, если вид спорта уже удалён:
	// состав отдаётся и без карточки спорта.
	team := &models.Team{ID: 5, Name: "Strikers", SportID: 42, CaptainID: 10, Status: models.TeamStatusOpen}
	teamRepo := newFakeTeamRepo(team)
	membershipRepo := newFakeMembershipRepo(teamRepo,
		&models.TeamMember{ID: 1, TeamID: 5, UserID: 10, Status: models.MembershipStatusAccepted, Role: models.MemberRoleCaptain},
	)
	svc := newTeamServiceForTest(teamRepo, membershipRepo, newFakeRegistrationRepo(), newFakeSportRepo(), newFakeUserRepo())

	got, err := svc.GetTeamByID(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Nil(t, got.Sport)
	assert.Len(t, got.Members, 1)
}
