package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/property-market/internal/domain"
)

// memState is the shared data behind every view of an in-memory store.
type memState struct {
	mu         sync.Mutex
	seq        int64
	properties map[string]memRecord[domain.Property]
	offers     map[string]memRecord[domain.Offer]
	payments   map[string]memRecord[domain.Payment]
	users      map[string]memRecord[domain.User]
}

// memRecord keeps insertion order so equal timestamps still sort stably.
type memRecord[T any] struct {
	seq int64
	val T
}

type memSnapshot struct {
	seq        int64
	properties map[string]memRecord[domain.Property]
	offers     map[string]memRecord[domain.Offer]
	payments   map[string]memRecord[domain.Payment]
	users      map[string]memRecord[domain.User]
}

type memStore struct {
	state *memState
	inTx  bool
}

// NewMemoryStore returns a process-local Store. It serializes transactions
// with a single mutex and restores a snapshot when a transaction fails.
func NewMemoryStore() Store {
	return &memStore{state: &memState{
		properties: map[string]memRecord[domain.Property]{},
		offers:     map[string]memRecord[domain.Offer]{},
		payments:   map[string]memRecord[domain.Payment]{},
		users:      map[string]memRecord[domain.User]{},
	}}
}

func (s *memStore) Properties() PropertyRepository { return &memPropertyRepository{s} }

func (s *memStore) Offers() OfferRepository { return &memOfferRepository{s} }

func (s *memStore) Payments() PaymentRepository { return &memPaymentRepository{s} }

func (s *memStore) Users() UserRepository { return &memUserRepository{s} }

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	snap := s.state.snapshot()
	err := ctx.Err()
	if err == nil {
		err = fn(&memStore{state: s.state, inTx: true})
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.state.restore(snap)
		return err
	}
	return nil
}

// lock guards single operations outside a transaction.
func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.state.mu.Lock()
	return s.state.mu.Unlock
}

func (st *memState) next() int64 {
	st.seq++
	return st.seq
}

func (st *memState) snapshot() memSnapshot {
	return memSnapshot{
		seq:        st.seq,
		properties: cloneMap(st.properties),
		offers:     cloneMap(st.offers),
		payments:   cloneMap(st.payments),
		users:      cloneMap(st.users),
	}
}

func (st *memState) restore(snap memSnapshot) {
	st.seq = snap.seq
	st.properties = snap.properties
	st.offers = snap.offers
	st.payments = snap.payments
	st.users = snap.users
}

func cloneMap[T any](in map[string]memRecord[T]) map[string]memRecord[T] {
	out := make(map[string]memRecord[T], len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func collect[T any](in map[string]memRecord[T], keep func(T) bool, newestFirst bool) []T {
	records := make([]memRecord[T], 0, len(in))
	for _, rec := range in {
		if keep(rec.val) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if newestFirst {
			return records[i].seq > records[j].seq
		}
		return records[i].seq < records[j].seq
	})
	out := make([]T, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.val)
	}
	return out
}

func cloneOffer(o domain.Offer) domain.Offer {
	if o.Images != nil {
		o.Images = append([]string(nil), o.Images...)
	}
	if o.TransactionID != nil {
		txID := *o.TransactionID
		o.TransactionID = &txID
	}
	return o
}

type memPropertyRepository struct{ s *memStore }

func (r *memPropertyRepository) Create(_ context.Context, property *domain.Property) error {
	defer r.s.lock()()
	now := time.Now().UTC()
	property.ID = uuid.NewString()
	property.CreatedAt = now
	property.UpdatedAt = now
	r.s.state.properties[property.ID] = memRecord[domain.Property]{seq: r.s.state.next(), val: *property}
	return nil
}

func (r *memPropertyRepository) Update(_ context.Context, property *domain.Property) error {
	defer r.s.lock()()
	rec, ok := r.s.state.properties[property.ID]
	if !ok {
		return ErrNotFound
	}
	property.UpdatedAt = time.Now().UTC()
	property.CreatedAt = rec.val.CreatedAt
	property.AgentEmail = rec.val.AgentEmail
	property.AgentName = rec.val.AgentName
	rec.val = *property
	r.s.state.properties[property.ID] = rec
	return nil
}

func (r *memPropertyRepository) GetByID(_ context.Context, id string) (*domain.Property, error) {
	defer r.s.lock()()
	rec, ok := r.s.state.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := rec.val
	return &p, nil
}

func (r *memPropertyRepository) ListByAgent(_ context.Context, agentEmail string) ([]domain.Property, error) {
	defer r.s.lock()()
	return collect(r.s.state.properties, func(p domain.Property) bool { return p.AgentEmail == agentEmail }, true), nil
}

func (r *memPropertyRepository) DeleteByAgent(_ context.Context, agentEmail string) ([]string, error) {
	defer r.s.lock()()
	ids := []string{}
	for id, rec := range r.s.state.properties {
		if rec.val.AgentEmail == agentEmail {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		delete(r.s.state.properties, id)
	}
	return ids, nil
}

type memOfferRepository struct{ s *memStore }

func (r *memOfferRepository) Create(_ context.Context, offer *domain.Offer) error {
	defer r.s.lock()()
	now := time.Now().UTC()
	offer.ID = uuid.NewString()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	r.s.state.offers[offer.ID] = memRecord[domain.Offer]{seq: r.s.state.next(), val: cloneOffer(*offer)}
	return nil
}

func (r *memOfferRepository) GetByID(_ context.Context, id string) (*domain.Offer, error) {
	defer r.s.lock()()
	rec, ok := r.s.state.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	o := cloneOffer(rec.val)
	return &o, nil
}

func (r *memOfferRepository) ListByPropertyForUpdate(_ context.Context, propertyID string) ([]domain.Offer, error) {
	defer r.s.lock()()
	return r.cloned(collect(r.s.state.offers, func(o domain.Offer) bool { return o.PropertyID == propertyID }, false)), nil
}

func (r *memOfferRepository) FindByPropertyAndBuyer(_ context.Context, propertyID, buyerEmail string) ([]domain.Offer, error) {
	defer r.s.lock()()
	return r.cloned(collect(r.s.state.offers, func(o domain.Offer) bool {
		return o.PropertyID == propertyID && o.BuyerEmail == buyerEmail
	}, false)), nil
}

func (r *memOfferRepository) UpdateStatus(_ context.Context, id string, status domain.OfferStatus) error {
	defer r.s.lock()()
	rec, ok := r.s.state.offers[id]
	if !ok {
		return ErrNotFound
	}
	rec.val.Status = status
	rec.val.UpdatedAt = time.Now().UTC()
	r.s.state.offers[id] = rec
	return nil
}

func (r *memOfferRepository) RejectSiblings(_ context.Context, propertyID, exceptID string) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, rec := range r.s.state.offers {
		if id == exceptID || rec.val.PropertyID != propertyID || rec.val.Status == domain.OfferStatusRejected {
			continue
		}
		rec.val.Status = domain.OfferStatusRejected
		rec.val.UpdatedAt = time.Now().UTC()
		r.s.state.offers[id] = rec
		n++
	}
	return n, nil
}

func (r *memOfferRepository) MarkBought(_ context.Context, id, transactionID string) (int64, int64, error) {
	defer r.s.lock()()
	rec, ok := r.s.state.offers[id]
	if !ok {
		return 0, 0, nil
	}
	if rec.val.Status == domain.OfferStatusBought && rec.val.TransactionID != nil && *rec.val.TransactionID == transactionID {
		return 1, 0, nil
	}
	rec.val.Status = domain.OfferStatusBought
	rec.val.TransactionID = &transactionID
	rec.val.UpdatedAt = time.Now().UTC()
	r.s.state.offers[id] = rec
	return 1, 1, nil
}

func (r *memOfferRepository) RejectLiveByProperties(_ context.Context, propertyIDs []string) ([]domain.Offer, error) {
	defer r.s.lock()()
	wanted := make(map[string]struct{}, len(propertyIDs))
	for _, id := range propertyIDs {
		wanted[id] = struct{}{}
	}
	changed := map[string]memRecord[domain.Offer]{}
	for id, rec := range r.s.state.offers {
		if _, ok := wanted[rec.val.PropertyID]; !ok || rec.val.Status.Terminal() {
			continue
		}
		rec.val.Status = domain.OfferStatusRejected
		rec.val.UpdatedAt = time.Now().UTC()
		r.s.state.offers[id] = rec
		changed[id] = rec
	}
	return collect(changed, func(domain.Offer) bool { return true }, false), nil
}

func (r *memOfferRepository) ListByBuyer(_ context.Context, buyerEmail string) ([]domain.Offer, error) {
	defer r.s.lock()()
	return r.cloned(collect(r.s.state.offers, func(o domain.Offer) bool { return o.BuyerEmail == buyerEmail }, true)), nil
}

func (r *memOfferRepository) ListByAgent(_ context.Context, agentEmail string) ([]domain.Offer, error) {
	defer r.s.lock()()
	return r.cloned(collect(r.s.state.offers, func(o domain.Offer) bool { return o.AgentEmail == agentEmail }, true)), nil
}

func (r *memOfferRepository) cloned(offers []domain.Offer) []domain.Offer {
	for i := range offers {
		offers[i] = cloneOffer(offers[i])
	}
	return offers
}

type memPaymentRepository struct{ s *memStore }

func (r *memPaymentRepository) Create(_ context.Context, payment *domain.Payment) error {
	defer r.s.lock()()
	for _, rec := range r.s.state.payments {
		if rec.val.TransactionID == payment.TransactionID {
			return ErrDuplicate
		}
	}
	payment.ID = uuid.NewString()
	payment.PaidAt = time.Now().UTC()
	r.s.state.payments[payment.ID] = memRecord[domain.Payment]{seq: r.s.state.next(), val: *payment}
	return nil
}

func (r *memPaymentRepository) LinkOffer(_ context.Context, paymentID, offerID string) error {
	defer r.s.lock()()
	rec, ok := r.s.state.payments[paymentID]
	if !ok || rec.val.OfferID != nil {
		return ErrNotFound
	}
	rec.val.OfferID = &offerID
	r.s.state.payments[paymentID] = rec
	return nil
}

func (r *memPaymentRepository) ListSoldByAgent(_ context.Context, agentEmail string) ([]domain.Payment, error) {
	defer r.s.lock()()
	return collect(r.s.state.payments, func(p domain.Payment) bool {
		return p.AgentEmail == agentEmail && p.Status == domain.PaymentStatusBought
	}, true), nil
}

func (r *memPaymentRepository) ListUnlinked(_ context.Context, after PaymentCursor, limit int) ([]domain.Payment, error) {
	defer r.s.lock()()
	if limit <= 0 {
		limit = 100
	}
	out := collect(r.s.state.payments, func(p domain.Payment) bool {
		return p.OfferID == nil && after.After(p)
	}, false)
	sort.SliceStable(out, func(i, j int) bool {
		return CursorAt(out[i]).After(out[j])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUserRepository struct{ s *memStore }

func (r *memUserRepository) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	for _, rec := range r.s.state.users {
		if rec.val.Email == user.Email {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.state.users[user.ID] = memRecord[domain.User]{seq: r.s.state.next(), val: *user}
	return nil
}

func (r *memUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	rec, ok := r.s.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := rec.val
	return &u, nil
}

func (r *memUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, rec := range r.s.state.users {
		if rec.val.Email == email {
			u := rec.val
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUserRepository) UpdateRole(_ context.Context, id string, role domain.UserRole) error {
	return r.mutate(id, func(u *domain.User) { u.Role = role })
}

func (r *memUserRepository) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	return r.mutate(id, func(u *domain.User) { u.Status = status })
}

func (r *memUserRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.state.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.state.users, id)
	return nil
}

func (r *memUserRepository) mutate(id string, fn func(*domain.User)) error {
	defer r.s.lock()()
	rec, ok := r.s.state.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&rec.val)
	rec.val.UpdatedAt = time.Now().UTC()
	r.s.state.users[id] = rec
	return nil
}
