package services

import (
	"context"
	"sync"
	"time"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/repositories"
)

// Фейки хранилищ для юнит-тестов сервисов. Транзакционный менеджер
// просто вызывает колбэк без живой базы: репозитории-фейки игнорируют exec.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeSportRepo struct {
	sports map[int]*models.Sport
}

func newFakeSportRepo(sports ...*models.Sport) *fakeSportRepo {
	r := &fakeSportRepo{sports: make(map[int]*models.Sport)}
	for _, s := range sports {
		r.sports[s.ID] = s
	}
	return r
}

func (r *fakeSportRepo) Create(_ context.Context, sport *models.Sport) error {
	sport.ID = len(r.sports) + 1
	r.sports[sport.ID] = sport
	return nil
}

func (r *fakeSportRepo) GetByID(_ context.Context, id int) (*models.Sport, error) {
	sport, ok := r.sports[id]
	if !ok {
		return nil, repositories.ErrSportNotFound
	}
	copied := *sport
	return &copied, nil
}

func (r *fakeSportRepo) GetAll(_ context.Context, statusFilter *models.SportStatus) ([]models.Sport, error) {
	var out []models.Sport
	for _, s := range r.sports {
		if statusFilter != nil && s.Status != *statusFilter {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSportRepo) Update(_ context.Context, sport *models.Sport) error {
	if _, ok := r.sports[sport.ID]; !ok {
		return repositories.ErrSportNotFound
	}
	r.sports[sport.ID] = sport
	return nil
}

func (r *fakeSportRepo) UpdateStatus(_ context.Context, id int, status models.SportStatus) error {
	sport, ok := r.sports[id]
	if !ok {
		return repositories.ErrSportNotFound
	}
	sport.Status = status
	return nil
}

func (r *fakeSportRepo) UpdateIconKey(_ context.Context, id int, iconKey *string) error {
	sport, ok := r.sports[id]
	if !ok {
		return repositories.ErrSportNotFound
	}
	sport.IconKey = iconKey
	return nil
}

func (r *fakeSportRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.sports[id]; !ok {
		return repositories.ErrSportNotFound
	}
	delete(r.sports, id)
	return nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateMobileIfEmpty(_ context.Context, userID int, mobile string) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if user.Mobile == nil || *user.Mobile == "" {
		user.Mobile = &mobile
	}
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(_ context.Context, userID int, avatarKey *string) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarKey = avatarKey
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) { return len(r.users), nil }

type fakeRegistrationRepo struct {
	registered map[[2]int]bool // {userID, sportID}
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{registered: make(map[[2]int]bool)}
}

func (r *fakeRegistrationRepo) add(userID, sportID int) {
	r.registered[[2]int{userID, sportID}] = true
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	key := [2]int{reg.UserID, reg.SportID}
	if r.registered[key] {
		return repositories.ErrRegistrationConflict
	}
	r.registered[key] = true
	reg.ID = len(r.registered)
	return nil
}

func (r *fakeRegistrationRepo) ExistsByUserAndSport(_ context.Context, userID, sportID int) (bool, error) {
	return r.registered[[2]int{userID, sportID}], nil
}

func (r *fakeRegistrationRepo) ListByUser(_ context.Context, _ int) ([]*models.Registration, error) {
	return nil, nil
}

func (r *fakeRegistrationRepo) ListBySport(_ context.Context, _ int) ([]*models.Registration, error) {
	return nil, nil
}

func (r *fakeRegistrationRepo) Count(_ context.Context) (int, error) {
	return len(r.registered), nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
	for _, t := range teams {
		r.teams[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.SportID == team.SportID && t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.nextID
	r.nextID++
	team.CreatedAt = time.Now()
	copied := *team
	r.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) GetByIDForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTeamRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, from, to models.TeamStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if team.Status != from {
		return repositories.ErrTeamStatusConflict
	}
	team.Status = to
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, teamID int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = logoKey
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) ListOpenByCaptainGender(_ context.Context, _ models.Gender) ([]*repositories.OpenTeamListing, error) {
	return nil, nil
}

func (r *fakeTeamRepo) Count(_ context.Context) (int, error) { return len(r.teams), nil }

func (r *fakeTeamRepo) CountByStatus(_ context.Context, status models.TeamStatus) (int, error) {
	n := 0
	for _, t := range r.teams {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeMembershipRepo struct {
	mu      sync.Mutex
	members map[int]*models.TeamMember
	teams   *fakeTeamRepo // для резолва команда -> вид спорта
	nextID  int

	// afterGetByID, если задан, вызывается после каждого чтения заявки.
	// Тесты подменяют им состояние между чтением и перечитыванием,
	// как это сделала бы параллельная закоммиченная транзакция.
	afterGetByID func()
}

func newFakeMembershipRepo(teams *fakeTeamRepo, members ...*models.TeamMember) *fakeMembershipRepo {
	r := &fakeMembershipRepo{members: make(map[int]*models.TeamMember), teams: teams, nextID: 1}
	for _, m := range members {
		r.members[m.ID] = m
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	}
	return r
}

func (r *fakeMembershipRepo) Create(_ context.Context, _ repositories.SQLExecutor, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.TeamID == member.TeamID && m.UserID == member.UserID {
			return repositories.ErrMembershipConflict
		}
	}
	member.ID = r.nextID
	r.nextID++
	member.CreatedAt = time.Now()
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeMembershipRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamMember, error) {
	r.mu.Lock()
	member, ok := r.members[id]
	if !ok {
		r.mu.Unlock()
		return nil, repositories.ErrMembershipNotFound
	}
	copied := *member
	r.mu.Unlock()
	if r.afterGetByID != nil {
		r.afterGetByID()
	}
	return &copied, nil
}

func (r *fakeMembershipRepo) ListByTeam(_ context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeamMember
	for _, m := range r.members {
		if m.TeamID != teamID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMembershipRepo) ListByUser(_ context.Context, userID int) ([]*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeamMember
	for _, m := range r.members {
		if m.UserID == userID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) CountActiveByUserAndSport(_ context.Context, _ repositories.SQLExecutor, userID, sportID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.members {
		if m.UserID != userID || m.Status == models.MembershipStatusRejected {
			continue
		}
		team, ok := r.teams.teams[m.TeamID]
		if ok && team.SportID == sportID {
			n++
		}
	}
	return n, nil
}

func (r *fakeMembershipRepo) CountByTeamAndStatus(_ context.Context, _ repositories.SQLExecutor, teamID int, status models.MembershipStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countByTeamAndStatusLocked(teamID, status), nil
}

func (r *fakeMembershipRepo) countByTeamAndStatusLocked(teamID int, status models.MembershipStatus) int {
	n := 0
	for _, m := range r.members {
		if m.TeamID == teamID && m.Status == status {
			n++
		}
	}
	return n
}

func (r *fakeMembershipRepo) AcceptWithinCapacity(_ context.Context, _ repositories.SQLExecutor, membershipID, teamID, capacity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[membershipID]
	if !ok || member.TeamID != teamID || member.Status != models.MembershipStatusPending {
		return false, nil
	}
	if r.countByTeamAndStatusLocked(teamID, models.MembershipStatusAccepted) >= capacity {
		return false, nil
	}
	member.Status = models.MembershipStatusAccepted
	return true, nil
}

func (r *fakeMembershipRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MembershipStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[id]
	if !ok {
		return repositories.ErrMembershipNotFound
	}
	member.Status = status
	return nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return repositories.ErrMembershipNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeMembershipRepo) DeleteByTeam(_ context.Context, _ repositories.SQLExecutor, teamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.members {
		if m.TeamID == teamID {
			delete(r.members, id)
		}
	}
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
	for _, m := range matches {
		r.matches[m.ID] = m
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	}
	return r
}

func (r *fakeMatchRepo) Create(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	r.nextID++
	match.CreatedAt = time.Now()
	copied := *match
	r.matches[match.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) List(_ context.Context, sportID *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if sportID != nil && m.SportID != *sportID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateScore(_ context.Context, id int, homeScore, awayScore string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.HomeScore = homeScore
	match.AwayScore = awayScore
	return nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, id int, from, to models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Status != from {
		return repositories.ErrMatchStatusConflict
	}
	match.Status = to
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

func (r *fakeMatchRepo) ListDueForLive(_ context.Context, now time.Time) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.Status == models.MatchStatusUpcoming && !m.StartTime.After(now) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) Count(_ context.Context) (int, error) { return len(r.matches), nil }

func (r *fakeMatchRepo) CountByStatus(_ context.Context, status models.MatchStatus) (int, error) {
	n := 0
	for _, m := range r.matches {
		if m.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []fakeBroadcastEvent
}

type fakeBroadcastEvent struct {
	MatchID int
	Payload []byte
}

func (b *fakeBroadcaster) BroadcastToMatch(matchID int, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, fakeBroadcastEvent{MatchID: matchID, Payload: message})
	return nil
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
