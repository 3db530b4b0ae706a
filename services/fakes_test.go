package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePhotoKey(_ context.Context, id string, photoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PhotoKey = photoKey
	return nil
}

// fakeOccasionRepo also owns assignments so SaveMatching can flip the
// matched flag atomically under one mutex.
type fakeOccasionRepo struct {
	mu          sync.Mutex
	occasions   map[string]*models.Occasion
	members     map[string][]models.OccasionMember
	assignments map[string][]models.SecretSantaAssignment
	clock       time.Time
}

func newFakeOccasionRepo() *fakeOccasionRepo {
	return &fakeOccasionRepo{
		occasions:   map[string]*models.Occasion{},
		members:     map[string][]models.OccasionMember{},
		assignments: map[string][]models.SecretSantaAssignment{},
		clock:       time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeOccasionRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeOccasionRepo) Create(_ context.Context, occasion *models.Occasion, creator models.OccasionMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if occasion.ID == "" {
		occasion.ID = uuid.NewString()
	}
	occasion.CreatedAt = r.tick()
	creator.OccasionID = occasion.ID
	creator.JoinedAt = r.tick()
	cp := *occasion
	r.occasions[occasion.ID] = &cp
	r.members[occasion.ID] = []models.OccasionMember{creator}
	occasion.Members = []models.OccasionMember{creator}
	return nil
}

func (r *fakeOccasionRepo) GetByID(_ context.Context, id string) (*models.Occasion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occasions[id]
	if !ok {
		return nil, repositories.ErrOccasionNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOccasionRepo) ListByMember(_ context.Context, userID string) ([]*models.Occasion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Occasion
	for id, members := range r.members {
		for _, m := range members {
			if m.UserID == userID {
				cp := *r.occasions[id]
				out = append(out, &cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOccasionRepo) Update(_ context.Context, occasion *models.Occasion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.occasions[occasion.ID]; !ok {
		return repositories.ErrOccasionNotFound
	}
	cp := *occasion
	r.occasions[occasion.ID] = &cp
	return nil
}

func (r *fakeOccasionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.occasions[id]; !ok {
		return repositories.ErrOccasionNotFound
	}
	delete(r.occasions, id)
	delete(r.members, id)
	delete(r.assignments, id)
	return nil
}

func (r *fakeOccasionRepo) ListMembers(_ context.Context, occasionID string) ([]models.OccasionMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OccasionMember(nil), r.members[occasionID]...), nil
}

func (r *fakeOccasionRepo) IsMember(_ context.Context, occasionID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[occasionID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOccasionRepo) AddMember(_ context.Context, _ repositories.SQLExecutor, member *models.OccasionMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occasions[member.OccasionID]
	if !ok {
		return repositories.ErrOccasionNotFound
	}
	if o.Matched {
		return repositories.ErrOccasionAlreadyMatched
	}
	for _, m := range r.members[member.OccasionID] {
		if m.UserID == member.UserID {
			return repositories.ErrMemberConflict
		}
	}
	member.JoinedAt = r.tick()
	r.members[member.OccasionID] = append(r.members[member.OccasionID], *member)
	return nil
}

func (r *fakeOccasionRepo) RemoveMember(_ context.Context, occasionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occasions[occasionID]
	if !ok {
		return repositories.ErrOccasionNotFound
	}
	if o.Matched {
		return repositories.ErrOccasionAlreadyMatched
	}
	members := r.members[occasionID]
	for i, m := range members {
		if m.UserID == userID {
			r.members[occasionID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMemberNotFound
}

// assignmentStore adapts fakeOccasionRepo to AssignmentRepository.
type assignmentStore struct {
	*fakeOccasionRepo
}

func (r assignmentStore) SaveMatching(_ context.Context, occasionID string, pairs []models.SecretSantaAssignment) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occasions[occasionID]
	if !ok {
		return time.Time{}, repositories.ErrOccasionNotFound
	}
	if o.Matched {
		return time.Time{}, repositories.ErrOccasionAlreadyMatched
	}
	if len(r.members[occasionID]) != len(pairs) {
		return time.Time{}, repositories.ErrMembershipChanged
	}
	now := r.tick()
	o.Matched = true
	o.MatchedAt = &now
	r.assignments[occasionID] = append([]models.SecretSantaAssignment(nil), pairs...)
	return now, nil
}

func (r assignmentStore) GetReceiver(_ context.Context, occasionID, giverID string) (*models.MyAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occasions[occasionID]
	if !ok {
		return nil, repositories.ErrOccasionNotFound
	}
	if !o.Matched {
		return nil, repositories.ErrOccasionNotMatched
	}
	for _, a := range r.assignments[occasionID] {
		if a.GiverID != giverID {
			continue
		}
		res := &models.MyAssignment{OccasionID: occasionID, ReceiverID: a.ReceiverID}
		for _, m := range r.members[occasionID] {
			if m.UserID == a.ReceiverID {
				res.ReceiverName = m.Name
			}
		}
		return res, nil
	}
	return nil, repositories.ErrAssignmentNotFound
}

func (r assignmentStore) Reset(_ context.Context, occasionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occasions[occasionID]
	if !ok {
		return repositories.ErrOccasionNotFound
	}
	if !o.Matched {
		return repositories.ErrOccasionNotMatched
	}
	o.Matched = false
	o.MatchedAt = nil
	delete(r.assignments, occasionID)
	return nil
}

type fakeInviteRepo struct {
	mu             sync.Mutex
	invites        map[string]*models.OccasionInvite
	tokenConflicts int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[string]*models.OccasionInvite{}}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *models.OccasionInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokenConflicts > 0 {
		r.tokenConflicts--
		return repositories.ErrInviteTokenConflict
	}
	for _, i := range r.invites {
		if i.OccasionID == invite.OccasionID && i.InvitedUserEmail == invite.InvitedUserEmail && i.Status == models.InviteStatusPending {
			return repositories.ErrInvitePendingExists
		}
	}
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	invite.CreatedAt = time.Now()
	cp := *invite
	r.invites[invite.ID] = &cp
	return nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, id string) (*models.OccasionInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.invites[id]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeInviteRepo) GetByToken(_ context.Context, token string) (*models.OccasionInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.invites {
		if i.Token == token {
			cp := *i
			return &cp, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (r *fakeInviteRepo) ListPendingByEmail(_ context.Context, email string) ([]*models.OccasionInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OccasionInvite
	for _, i := range r.invites {
		if i.InvitedUserEmail == email && i.Status == models.InviteStatusPending && !i.Expired(time.Now()) {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) ListByOccasion(_ context.Context, occasionID string) ([]*models.OccasionInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OccasionInvite
	for _, i := range r.invites {
		if i.OccasionID == occasionID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id string, status models.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.invites[id]
	if !ok || i.Status != models.InviteStatusPending {
		return repositories.ErrInviteNotPending
	}
	i.Status = status
	return nil
}

func (r *fakeInviteRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, i := range r.invites {
		if i.Status == models.InviteStatusPending && i.Expired(time.Now()) {
			delete(r.invites, id)
			n++
		}
	}
	return n, nil
}

type fakeWishlistRepo struct {
	mu    sync.Mutex
	items map[string]*models.WishlistItem
}

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{items: map[string]*models.WishlistItem{}}
}

func (r *fakeWishlistRepo) Create(_ context.Context, item *models.WishlistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeWishlistRepo) GetByID(_ context.Context, id string) (*models.WishlistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrItemNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeWishlistRepo) filter(keep func(*models.WishlistItem) bool) []*models.WishlistItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.WishlistItem, 0)
	for _, i := range r.items {
		if keep(i) {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeWishlistRepo) ListByOwnerAndOccasion(_ context.Context, userID, occasionID string) ([]*models.WishlistItem, error) {
	return r.filter(func(i *models.WishlistItem) bool { return i.UserID == userID && i.OccasionID == occasionID }), nil
}

func (r *fakeWishlistRepo) ListByOccasion(_ context.Context, occasionID string) ([]*models.WishlistItem, error) {
	return r.filter(func(i *models.WishlistItem) bool { return i.OccasionID == occasionID }), nil
}

func (r *fakeWishlistRepo) ListByOwner(_ context.Context, userID string) ([]*models.WishlistItem, error) {
	return r.filter(func(i *models.WishlistItem) bool { return i.UserID == userID }), nil
}

func (r *fakeWishlistRepo) Update(_ context.Context, item *models.WishlistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return repositories.ErrItemNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeWishlistRepo) UpdateImage(_ context.Context, id string, imageKey, imageURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return repositories.ErrItemNotFound
	}
	i.ProductImageKey, i.ProductImage = imageKey, imageURL
	return nil
}

func (r *fakeWishlistRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeWishlistRepo) MarkPurchased(_ context.Context, id, userID, userName string) (*models.WishlistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrItemNotFound
	}
	if i.IsPurchased {
		return nil, repositories.ErrItemAlreadyPurchased
	}
	now := time.Now()
	i.IsPurchased, i.PurchasedBy, i.PurchasedByName, i.PurchasedAt = true, &userID, &userName, &now
	cp := *i
	return &cp, nil
}

func (r *fakeWishlistRepo) UnmarkPurchased(_ context.Context, id, userID string) (*models.WishlistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrItemNotFound
	}
	if !i.IsPurchased || i.PurchasedBy == nil || *i.PurchasedBy != userID {
		return nil, repositories.ErrItemNotPurchasedByUser
	}
	i.IsPurchased, i.PurchasedBy, i.PurchasedByName, i.PurchasedAt = false, nil, nil, nil
	cp := *i
	return &cp, nil
}

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type publishedEvent struct {
	OccasionID string
	Type       string
	Payload    interface{}
	// JSON is the payload as clients receive it, marshalled at publish time.
	JSON []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishOccasionEvent(occasionID, eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{OccasionID: occasionID, Type: eventType, Payload: payload, JSON: raw})
}

func (p *fakePublisher) last(eventType string) (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == eventType {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeMailer struct {
	sent []InviteEmailData
	to   []string
	err  error
}

func (m *fakeMailer) SendInviteEmail(to string, data InviteEmailData) error {
	m.to = append(m.to, to)
	m.sent = append(m.sent, data)
	return m.err
}

// fixture wires every service over shared fakes with three users.
type fixture struct {
	users     *fakeUserRepo
	occasions *fakeOccasionRepo
	invites   *fakeInviteRepo
	items     *fakeWishlistRepo
	events    *fakePublisher
	mailer    *fakeMailer

	alice, bob, carol *models.User
}

func newFixture() *fixture {
	f := &fixture{
		alice: &models.User{ID: "alice", Email: "alice@example.com", DisplayName: "Alice"},
		bob:   &models.User{ID: "bob", Email: "bob@example.com", DisplayName: "Bob"},
		carol: &models.User{ID: "carol", Email: "carol@example.com", DisplayName: "Carol"},
	}
	f.users = newFakeUserRepo(f.alice, f.bob, f.carol)
	f.occasions = newFakeOccasionRepo()
	f.invites = newFakeInviteRepo()
	f.items = newFakeWishlistRepo()
	f.events = &fakePublisher{}
	f.mailer = &fakeMailer{}
	return f
}

func (f *fixture) occasionService() OccasionService {
	return NewOccasionService(f.occasions, f.users, assignmentStore{f.occasions}, f.events, discardLogger())
}

func (f *fixture) inviteService() InviteService {
	return NewInviteService(f.invites, f.occasions, f.users, fakeTx{}, f.mailer, f.events, "https://wishly.test", discardLogger())
}

func (f *fixture) wishlistService() WishlistService {
	return NewWishlistService(f.items, f.occasions, f.users, nil, f.events, "wishly-20", discardLogger())
}

// occasionWith creates an occasion owned by alice and adds the other users as members.
func (f *fixture) occasionWith(others ...*models.User) *models.Occasion {
	ctx := context.Background()
	occ, err := f.occasionService().CreateOccasion(ctx, f.alice.ID, CreateOccasionInput{Name: "Xmas", Type: models.OccasionSecretSanta})
	if err != nil {
		panic(err)
	}
	for _, u := range others {
		if err := f.occasions.AddMember(ctx, nil, &models.OccasionMember{OccasionID: occ.ID, UserID: u.ID, Name: u.DisplayName, Email: u.Email}); err != nil {
			panic(err)
		}
	}
	return occ
}
