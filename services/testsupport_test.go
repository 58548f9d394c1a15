package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/lanhub/partyhub/events"
	"github.com/lanhub/partyhub/models"
	"github.com/lanhub/partyhub/repositories"
)

// In-memory fakes for the repository interfaces. They ignore the executor
// argument; transactional behavior is not simulated, only commit counting.

type memStore struct {
	nextID int
	clock  time.Time

	tournaments  map[int]*models.Tournament
	participants map[int]*models.Participant
	teams        map[int]*models.Team
	matches      map[int]*models.Match
	contestants  map[int]*models.MatchContestant
	comments     map[int]*models.MatchComment
}

func newMemStore() *memStore {
	return &memStore{
		clock:        time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		tournaments:  make(map[int]*models.Tournament),
		participants: make(map[int]*models.Participant),
		teams:        make(map[int]*models.Team),
		matches:      make(map[int]*models.Match),
		contestants:  make(map[int]*models.MatchContestant),
		comments:     make(map[int]*models.MatchComment),
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

// tick returns strictly increasing timestamps so registration order is
// deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type fakeTx struct {
	beginner *fakeTxBeginner
	done     bool
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	panic("unexpected raw SQL in fake transaction")
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	panic("unexpected raw SQL in fake transaction")
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	panic("unexpected raw SQL in fake transaction")
}

func (t *fakeTx) Commit() error {
	if !t.done {
		t.done = true
		t.beginner.commits++
	}
	return nil
}

func (t *fakeTx) Rollback() error {
	if !t.done {
		t.done = true
		t.beginner.rollbacks++
	}
	return nil
}

type fakeTxBeginner struct {
	begun     int
	commits   int
	rollbacks int
}

func (b *fakeTxBeginner) BeginTx(context.Context) (repositories.Tx, error) {
	b.begun++
	return &fakeTx{beginner: b}, nil
}

// tournaments

type memTournamentRepo struct{ store *memStore }

func (r *memTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	t.ID = r.store.id()
	t.CreatedAt = r.store.tick()
	cp := *t
	r.store.tournaments[t.ID] = &cp
	return nil
}

func (r *memTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *memTournamentRepo) ListByParty(_ context.Context, partyID int) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.store.tournaments {
		if t.PartyID == partyID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	if _, ok := r.store.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	cp := *t
	r.store.tournaments[t.ID] = &cp
	return nil
}

func (r *memTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *memTournamentRepo) UpdateImageKey(_ context.Context, id int, imageKey *string) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ImageKey = imageKey
	return nil
}

func (r *memTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.store.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.store.tournaments, id)
	return nil
}

// participants

type memParticipantRepo struct{ store *memStore }

func (r *memParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	p.ID = r.store.id()
	p.CreatedAt = r.store.tick()
	cp := *p
	r.store.participants[p.ID] = &cp
	return nil
}

func (r *memParticipantRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Participant, error) {
	p, ok := r.store.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memParticipantRepo) FindByUserAndTournament(_ context.Context, _ repositories.SQLExecutor, userID, tournamentID int) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.UserID == userID && p.TournamentID == tournamentID && p.RemovedAt == nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memParticipantRepo) FindRemovedByUserAndTournament(_ context.Context, _ repositories.SQLExecutor, userID, tournamentID int) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.UserID == userID && p.TournamentID == tournamentID && p.RemovedAt != nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memParticipantRepo) Reactivate(_ context.Context, _ repositories.SQLExecutor, participantID int, rejoinedAt time.Time) error {
	p, ok := r.store.participants[participantID]
	if !ok || p.RemovedAt == nil {
		return repositories.ErrParticipantNotFound
	}
	p.RemovedAt = nil
	p.TeamID = nil
	p.Substitute = false
	p.CreatedAt = rejoinedAt
	return nil
}

func (r *memParticipantRepo) activeSorted(filter func(*models.Participant) bool) []*models.Participant {
	var out []*models.Participant
	for _, p := range r.store.participants {
		if p.RemovedAt == nil && filter(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memParticipantRepo) ListActiveByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	return r.activeSorted(func(p *models.Participant) bool { return p.TournamentID == tournamentID }), nil
}

func (r *memParticipantRepo) ListActiveByTeam(_ context.Context, _ repositories.SQLExecutor, teamID int) ([]*models.Participant, error) {
	return r.activeSorted(func(p *models.Participant) bool { return p.TeamID != nil && *p.TeamID == teamID }), nil
}

func (r *memParticipantRepo) CountActiveByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	list, _ := r.ListActiveByTournament(ctx, exec, tournamentID)
	return len(list), nil
}

func (r *memParticipantRepo) UpdateTeam(_ context.Context, _ repositories.SQLExecutor, participantID int, teamID *int) error {
	p, ok := r.store.participants[participantID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.TeamID = teamID
	return nil
}

func (r *memParticipantRepo) SoftRemove(_ context.Context, _ repositories.SQLExecutor, participantID int, removedAt time.Time) error {
	p, ok := r.store.participants[participantID]
	if !ok || p.RemovedAt != nil {
		return repositories.ErrParticipantNotFound
	}
	p.RemovedAt = &removedAt
	return nil
}

func (r *memParticipantRepo) Delete(_ context.Context, _ repositories.SQLExecutor, participantID int) error {
	if _, ok := r.store.participants[participantID]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.store.participants, participantID)
	return nil
}

func (r *memParticipantRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, p := range r.store.participants {
		if p.TournamentID == tournamentID {
			delete(r.store.participants, id)
		}
	}
	return nil
}

// teams

type memTeamRepo struct{ store *memStore }

func (r *memTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Team) error {
	t.ID = r.store.id()
	t.CreatedAt = r.store.tick()
	cp := *t
	r.store.teams[t.ID] = &cp
	return nil
}

func (r *memTeamRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	t, ok := r.store.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *memTeamRepo) FindActiveByName(_ context.Context, _ repositories.SQLExecutor, tournamentID int, name string) (*models.Team, error) {
	for _, t := range r.store.teams {
		if t.TournamentID == tournamentID && t.RemovedAt == nil && strings.EqualFold(t.Name, name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTeamRepo) FindActiveByTag(_ context.Context, _ repositories.SQLExecutor, tournamentID int, tag string) (*models.Team, error) {
	for _, t := range r.store.teams {
		if t.TournamentID == tournamentID && t.RemovedAt == nil && t.Tag != nil && strings.EqualFold(*t.Tag, tag) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTeamRepo) ListActiveByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Team, error) {
	var out []*models.Team
	for _, t := range r.store.teams {
		if t.TournamentID == tournamentID && t.RemovedAt == nil {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memTeamRepo) CountActiveByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	list, _ := r.ListActiveByTournament(ctx, exec, tournamentID)
	return len(list), nil
}

func (r *memTeamRepo) ActiveMemberCounts(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (map[int]int, error) {
	counts := make(map[int]int)
	for _, t := range r.store.teams {
		if t.TournamentID == tournamentID && t.RemovedAt == nil {
			counts[t.ID] = 0
		}
	}
	for _, p := range r.store.participants {
		if p.RemovedAt == nil && p.TeamID != nil {
			if _, ok := counts[*p.TeamID]; ok {
				counts[*p.TeamID]++
			}
		}
	}
	return counts, nil
}

func (r *memTeamRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Team) error {
	if _, ok := r.store.teams[t.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	cp := *t
	r.store.teams[t.ID] = &cp
	return nil
}

func (r *memTeamRepo) UpdateCaptain(_ context.Context, _ repositories.SQLExecutor, teamID, captainUserID int) error {
	t, ok := r.store.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.CaptainUserID = captainUserID
	return nil
}

func (r *memTeamRepo) SoftRemove(_ context.Context, _ repositories.SQLExecutor, teamID int, removedAt time.Time) error {
	t, ok := r.store.teams[teamID]
	if !ok || t.RemovedAt != nil {
		return repositories.ErrTeamNotFound
	}
	t.RemovedAt = &removedAt
	return nil
}

func (r *memTeamRepo) Delete(_ context.Context, _ repositories.SQLExecutor, teamID int) error {
	if _, ok := r.store.teams[teamID]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.store.teams, teamID)
	return nil
}

func (r *memTeamRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, t := range r.store.teams {
		if t.TournamentID == tournamentID {
			delete(r.store.teams, id)
		}
	}
	return nil
}

// matches

type memMatchRepo struct{ store *memStore }

func (r *memMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	m.ID = r.store.id()
	m.CreatedAt = r.store.tick()
	cp := *m
	r.store.matches[m.ID] = &cp
	return nil
}

func (r *memMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.store.matches {
		if m.TournamentID == tournamentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].MatchOrder < out[j].MatchOrder
	})
	return out, nil
}

func (r *memMatchRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	list, _ := r.ListByTournament(ctx, exec, tournamentID)
	return len(list), nil
}

func (r *memMatchRepo) SetConfirmedBy(_ context.Context, _ repositories.SQLExecutor, matchID int, confirmedBy *int) error {
	m, ok := r.store.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ConfirmedBy = confirmedBy
	return nil
}

func (r *memMatchRepo) Delete(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	if _, ok := r.store.matches[matchID]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.store.matches, matchID)
	return nil
}

func (r *memMatchRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, m := range r.store.matches {
		if m.TournamentID == tournamentID {
			delete(r.store.matches, id)
		}
	}
	return nil
}

// match contestants

type memContestantRepo struct{ store *memStore }

func (r *memContestantRepo) Create(_ context.Context, _ repositories.SQLExecutor, c *models.MatchContestant) error {
	c.ID = r.store.id()
	c.CreatedAt = r.store.tick()
	cp := *c
	r.store.contestants[c.ID] = &cp
	return nil
}

func (r *memContestantRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.MatchContestant, error) {
	var out []*models.MatchContestant
	for _, c := range r.store.contestants {
		if c.MatchID == matchID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memContestantRepo) FindByMatchAndRef(_ context.Context, _ repositories.SQLExecutor, matchID int, ref models.ContestantRef) (*models.MatchContestant, error) {
	for _, c := range r.store.contestants {
		if c.MatchID == matchID && c.Ref == ref {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memContestantRepo) ListUnconfirmedEntriesByRef(_ context.Context, _ repositories.SQLExecutor, tournamentID int, ref models.ContestantRef) ([]repositories.ContestantEntry, error) {
	var out []repositories.ContestantEntry
	for _, c := range r.store.contestants {
		if c.Ref != ref {
			continue
		}
		m, ok := r.store.matches[c.MatchID]
		if !ok || m.TournamentID != tournamentID || m.ConfirmedBy != nil {
			continue
		}
		out = append(out, repositories.ContestantEntry{Contestant: *c, Match: *m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Match.ID < out[j].Match.ID })
	return out, nil
}

func (r *memContestantRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, contestantID int, score int) error {
	c, ok := r.store.contestants[contestantID]
	if !ok {
		return repositories.ErrContestantNotFound
	}
	c.Score = &score
	return nil
}

func (r *memContestantRepo) DeleteByMatchAndRef(_ context.Context, _ repositories.SQLExecutor, matchID int, ref models.ContestantRef) error {
	for id, c := range r.store.contestants {
		if c.MatchID == matchID && c.Ref == ref {
			delete(r.store.contestants, id)
			return nil
		}
	}
	return repositories.ErrContestantNotFound
}

func (r *memContestantRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	for id, c := range r.store.contestants {
		if c.MatchID == matchID {
			delete(r.store.contestants, id)
		}
	}
	return nil
}

func (r *memContestantRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, c := range r.store.contestants {
		m, ok := r.store.matches[c.MatchID]
		if ok && m.TournamentID == tournamentID {
			delete(r.store.contestants, id)
		}
	}
	return nil
}

// comments

type memCommentRepo struct{ store *memStore }

func (r *memCommentRepo) Create(_ context.Context, _ repositories.SQLExecutor, c *models.MatchComment) error {
	c.ID = r.store.id()
	c.CreatedAt = r.store.tick()
	cp := *c
	r.store.comments[c.ID] = &cp
	return nil
}

func (r *memCommentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.MatchComment, error) {
	c, ok := r.store.comments[id]
	if !ok {
		return nil, repositories.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCommentRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.MatchComment, error) {
	var out []*models.MatchComment
	for _, c := range r.store.comments {
		if c.MatchID == matchID {
			cp := *c
			cp.Author = &models.User{ID: c.CreatedBy}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCommentRepo) UpdateText(_ context.Context, _ repositories.SQLExecutor, commentID int, comment string, updatedAt time.Time) error {
	c, ok := r.store.comments[commentID]
	if !ok {
		return repositories.ErrCommentNotFound
	}
	c.Comment = comment
	c.UpdatedAt = &updatedAt
	return nil
}

func (r *memCommentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, commentID int) error {
	if _, ok := r.store.comments[commentID]; !ok {
		return repositories.ErrCommentNotFound
	}
	delete(r.store.comments, commentID)
	return nil
}

func (r *memCommentRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	for id, c := range r.store.comments {
		if c.MatchID == matchID {
			delete(r.store.comments, id)
		}
	}
	return nil
}

func (r *memCommentRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, c := range r.store.comments {
		m, ok := r.store.matches[c.MatchID]
		if ok && m.TournamentID == tournamentID {
			delete(r.store.comments, id)
		}
	}
	return nil
}

// tickets

type ticketKey struct{ partyID, userID int }

type fakeTicketRepo struct {
	valid map[ticketKey]bool
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{valid: make(map[ticketKey]bool)}
}

func (r *fakeTicketRepo) grant(partyID, userID int) {
	r.valid[ticketKey{partyID, userID}] = true
}

func (r *fakeTicketRepo) revoke(partyID, userID int) {
	delete(r.valid, ticketKey{partyID, userID})
}

func (r *fakeTicketRepo) HasValidTicket(_ context.Context, partyID, userID int) (bool, error) {
	return r.valid[ticketKey{partyID, userID}], nil
}

func (r *fakeTicketRepo) FilterTicketHolders(_ context.Context, partyID int, userIDs []int) (map[int]bool, error) {
	out := make(map[int]bool, len(userIDs))
	for _, id := range userIDs {
		if r.valid[ticketKey{partyID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

// events

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *recordingPublisher) countOf(eventType string) int {
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) reset() {
	p.events = nil
}

// testEnv wires all fakes into real services.

type testEnv struct {
	store      *memStore
	beginner   *fakeTxBeginner
	publisher  *recordingPublisher
	tickets    *fakeTicketRepo
	tournament *memTournamentRepo
	parts      *memParticipantRepo
	teams      *memTeamRepo
	matches    *memMatchRepo
	conts      *memContestantRepo
	comments   *memCommentRepo

	tournaments  *TournamentService
	brackets     *BracketService
	matchSvc     *MatchService
	participants *ParticipantService
	teamSvc      *TeamService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	env := &testEnv{
		store:      store,
		beginner:   &fakeTxBeginner{},
		publisher:  &recordingPublisher{},
		tickets:    newFakeTicketRepo(),
		tournament: &memTournamentRepo{store: store},
		parts:      &memParticipantRepo{store: store},
		teams:      &memTeamRepo{store: store},
		matches:    &memMatchRepo{store: store},
		conts:      &memContestantRepo{store: store},
		comments:   &memCommentRepo{store: store},
	}
	env.tournaments = NewTournamentService(
		env.beginner, env.tournament, env.parts, env.teams,
		env.matches, env.conts, env.comments, nil, env.publisher,
	)
	env.brackets = NewBracketService(
		env.beginner, env.tournament, env.parts, env.teams,
		env.matches, env.conts, env.comments, env.publisher,
	)
	env.matchSvc = NewMatchService(
		env.beginner, env.tournament, env.parts, env.teams,
		env.matches, env.conts, env.comments, env.publisher,
	)
	env.participants = NewParticipantService(
		env.beginner, env.tournament, env.parts, env.teams,
		env.matches, env.conts, env.tickets, env.publisher,
	)
	env.teamSvc = NewTeamService(
		env.beginner, env.tournament, env.teams, env.parts,
		env.matches, env.conts, nil, env.publisher,
	)
	return env
}

func (e *testEnv) addTournament(partyID int, kind models.ContestantKind, status models.TournamentStatus) *models.Tournament {
	t := &models.Tournament{
		PartyID:        partyID,
		Name:           "Test Cup",
		ContestantKind: &kind,
		Mode:           models.ModeSingleElimination,
	}
	_ = e.tournament.Create(context.Background(), nil, t)
	e.store.tournaments[t.ID].Status = status
	t.Status = status
	return t
}

func (e *testEnv) addParticipant(tournamentID, userID int) *models.Participant {
	p := &models.Participant{UserID: userID, TournamentID: tournamentID}
	_ = e.parts.Create(context.Background(), nil, p)
	return p
}

func (e *testEnv) addTeam(tournamentID, captainUserID int, name string) *models.Team {
	team := &models.Team{TournamentID: tournamentID, Name: name, CaptainUserID: captainUserID}
	_ = e.teams.Create(context.Background(), nil, team)
	return team
}

func (e *testEnv) assignTeam(participantID, teamID int) {
	_ = e.parts.UpdateTeam(context.Background(), nil, participantID, &teamID)
}

// matchesByPosition maps (round, order) to match ID for readable assertions.
func (e *testEnv) matchesByPosition(tournamentID int) map[[2]int]*models.Match {
	out := make(map[[2]int]*models.Match)
	for _, m := range e.store.matches {
		if m.TournamentID == tournamentID {
			cp := *m
			out[[2]int{m.Round, m.MatchOrder}] = &cp
		}
	}
	return out
}

func (e *testEnv) contestantRefs(matchID int) []models.ContestantRef {
	list, _ := e.conts.ListByMatch(context.Background(), nil, matchID)
	out := make([]models.ContestantRef, 0, len(list))
	for _, c := range list {
		out = append(out, c.Ref)
	}
	return out
}
