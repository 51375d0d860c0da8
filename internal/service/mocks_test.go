package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"github.com/Eursukkul/restaurant-reservation/internal/repository"
	"gorm.io/gorm"
)

// --- Fake ReservationRepository ---

// fakeReservationRepo keeps rows in memory. Transaction restores the previous
// rows when fn fails, like a rollback.
type fakeReservationRepo struct {
	mu     sync.Mutex
	rows   map[uint]models.Reservation
	nextID uint
	calls  int

	createErr error
	updateErr error
	findErr   error
	deleteErr error
}

func newFakeReservationRepo(seed ...models.Reservation) *fakeReservationRepo {
	r := &fakeReservationRepo{rows: map[uint]models.Reservation{}, nextID: 1}
	for _, s := range seed {
		if s.ID >= r.nextID {
			r.nextID = s.ID + 1
		}
		r.rows[s.ID] = s
	}
	return r
}

func (r *fakeReservationRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	snapshot := make(map[uint]models.Reservation, len(r.rows))
	for k, v := range r.rows {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if err := fn(nil); err != nil {
		r.mu.Lock()
		r.rows = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeReservationRepo) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	reservation.ID = r.nextID
	r.nextID++
	reservation.CreatedAt = time.Now()
	reservation.UpdatedAt = reservation.CreatedAt
	r.rows[reservation.ID] = *reservation
	return nil
}

func (r *fakeReservationRepo) Update(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.rows[reservation.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rows[reservation.ID] = *reservation
	return nil
}

func (r *fakeReservationRepo) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeReservationRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	return r.FindByID(ctx, id)
}

// FindActiveByTable returns every live row of the table; window filtering is
// left to the caller.
func (r *fakeReservationRepo) FindActiveByTable(ctx context.Context, tx *gorm.DB, tableID uint, start, end time.Time, excludeID uint) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []models.Reservation
	for _, row := range r.rows {
		if row.TableID != tableID || row.IsCancelled {
			continue
		}
		if excludeID != 0 && row.ID == excludeID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeReservationRepo) FindByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []models.Reservation
	for _, row := range r.rows {
		if row.CustomerID == customerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeReservationRepo) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var n int64
	for _, row := range r.rows {
		if row.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r *fakeReservationRepo) MarkCancelled(ctx context.Context, tx *gorm.DB, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.IsCancelled = true
	r.rows[id] = row
	return nil
}

func (r *fakeReservationRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeReservationRepo) get(id uint) (models.Reservation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	return row, ok
}

func (r *fakeReservationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *fakeReservationRepo) all() []models.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Reservation, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out
}

// --- Fake TableRepository ---

type fakeTableRepo struct {
	tables      map[uint]models.Table
	restaurants map[uint]models.Restaurant
	findErr     error
}

func (r *fakeTableRepo) FindByID(ctx context.Context, id uint) (*models.Table, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	t, ok := r.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *fakeTableRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Table, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTableRepo) FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Table, error) {
	var out []models.Table
	for _, t := range r.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (r *fakeTableRepo) FindRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	restaurant, ok := r.restaurants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &restaurant, nil
}

// --- Fake UserRepository ---

type fakeUserRepo struct {
	customers map[uint]models.Customer
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	for _, c := range r.customers {
		if c.User != nil && c.User.ID == id {
			u := *c.User
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindCustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	for _, c := range r.customers {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindCustomer(ctx context.Context, customerID uint) (*models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := r.customers[customerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeUserRepo) FindCapabilities(ctx context.Context, userID uint) ([]string, error) {
	return nil, nil
}

// --- Recording publisher ---

type publishedMessage struct {
	routingKey string
	payload    any
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.messages = append(p.messages, publishedMessage{routingKey: routingKey, payload: payload})
	return nil
}

func (p *recordingPublisher) sent() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

// cancelOnCommit ends the caller's context once the transaction commits, like
// a client hanging up right after its booking is stored.
type cancelOnCommit struct {
	*fakeReservationRepo
	cancel context.CancelFunc
}

func (r *cancelOnCommit) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.fakeReservationRepo.Transaction(ctx, fn)
	if err == nil {
		r.cancel()
	}
	return err
}
