package testutil

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/repository"
)

// Store is an in-memory stand-in for the bistro database. Its repositories
// share one lock so cross-collection reads such as order stats see a
// consistent view. Setting Err makes every call fail with it.
type Store struct {
	mu       sync.Mutex
	users    []models.User
	menu     []models.MenuItem
	reviews  []models.Review
	carts    []models.CartItem
	payments []models.Payment

	Err error
	// Writes counts every successful mutation.
	Writes int

	failCartPurge error
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Users() *FakeUserRepository {
	return &FakeUserRepository{s}
}

func (s *Store) Menu() *FakeMenuRepository {
	return &FakeMenuRepository{s}
}

func (s *Store) Reviews() *FakeReviewRepository {
	return &FakeReviewRepository{s}
}

func (s *Store) Carts() *FakeCartRepository {
	return &FakeCartRepository{s}
}

func (s *Store) Payments() *FakePaymentRepository {
	return &FakePaymentRepository{s}
}

// FailCartPurge makes DeleteOwned fail with err while other calls succeed.
// A nil err restores normal behaviour.
func (s *Store) FailCartPurge(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCartPurge = err
}

// SeedUser inserts u directly and returns it with an id assigned.
func (s *Store) SeedUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users = append(s.users, u)
	return u
}

func (s *Store) SeedMenuItem(m models.MenuItem) models.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	s.menu = append(s.menu, m)
	return m
}

func (s *Store) SeedReview(r models.Review) models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.reviews = append(s.reviews, r)
	return r
}

func (s *Store) SeedCartItem(c models.CartItem) models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.carts = append(s.carts, c)
	return c
}

func (s *Store) SeedPayment(p models.Payment) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.payments = append(s.payments, p)
	return p
}

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Payment returns the stored payment with id.
func (s *Store) Payment(id primitive.ObjectID) (models.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ID == id {
			return p, true
		}
	}
	return models.Payment{}, false
}

func inserted(id primitive.ObjectID) *models.InsertResult {
	return &models.InsertResult{Acknowledged: true, InsertedID: id.Hex()}
}

type FakeUserRepository struct{ s *Store }

func (r *FakeUserRepository) FindAll(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return append(make([]models.User, 0, len(r.s.users)), r.s.users...), nil
}

func (r *FakeUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepository) Create(_ context.Context, user *models.User) (*models.InsertResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users = append(r.s.users, *user)
	r.s.Writes++
	return inserted(user.ID), nil
}

func (r *FakeUserRepository) PromoteToAdmin(_ context.Context, id primitive.ObjectID) (*models.UpdateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	res := &models.UpdateResult{Acknowledged: true}
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			res.MatchedCount = 1
			if r.s.users[i].Role != models.RoleAdmin {
				r.s.users[i].Role = models.RoleAdmin
				res.ModifiedCount = 1
				r.s.Writes++
			}
		}
	}
	return res, nil
}

func (r *FakeUserRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return int64(len(r.s.users)), nil
}

type FakeMenuRepository struct{ s *Store }

func (r *FakeMenuRepository) FindAll(_ context.Context) ([]models.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return append(make([]models.MenuItem, 0, len(r.s.menu)), r.s.menu...), nil
}

func (r *FakeMenuRepository) Create(_ context.Context, item *models.MenuItem) (*models.InsertResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	r.s.menu = append(r.s.menu, *item)
	r.s.Writes++
	return inserted(item.ID), nil
}

func (r *FakeMenuRepository) Delete(_ context.Context, id primitive.ObjectID) (*models.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	res := &models.DeleteResult{Acknowledged: true}
	for i, m := range r.s.menu {
		if m.ID == id {
			r.s.menu = append(r.s.menu[:i], r.s.menu[i+1:]...)
			res.DeletedCount = 1
			r.s.Writes++
			break
		}
	}
	return res, nil
}

func (r *FakeMenuRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return int64(len(r.s.menu)), nil
}

type FakeReviewRepository struct{ s *Store }

func (r *FakeReviewRepository) FindAll(_ context.Context) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	return append(make([]models.Review, 0, len(r.s.reviews)), r.s.reviews...), nil
}

type FakeCartRepository struct{ s *Store }

func (r *FakeCartRepository) FindByEmail(_ context.Context, email string) ([]models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	items := make([]models.CartItem, 0)
	for _, c := range r.s.carts {
		if c.Email == email {
			items = append(items, c)
		}
	}
	return items, nil
}

func (r *FakeCartRepository) Create(_ context.Context, item *models.CartItem) (*models.InsertResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	r.s.carts = append(r.s.carts, *item)
	r.s.Writes++
	return inserted(item.ID), nil
}

func (r *FakeCartRepository) Delete(_ context.Context, id primitive.ObjectID) (*models.DeleteResult, error) {
	return r.deleteWhere(func(c models.CartItem) bool { return c.ID == id }, false)
}

// DeleteOwned fails on a done context the way the driver does.
func (r *FakeCartRepository) DeleteOwned(ctx context.Context, email string, ids []primitive.ObjectID) (*models.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.deleteWhere(func(c models.CartItem) bool { return want[c.ID] && c.Email == email }, true)
}

func (r *FakeCartRepository) deleteWhere(match func(models.CartItem) bool, purge bool) (*models.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if purge && r.s.failCartPurge != nil {
		return nil, r.s.failCartPurge
	}
	kept := r.s.carts[:0]
	var deleted int64
	for _, c := range r.s.carts {
		if match(c) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	r.s.carts = kept
	if deleted > 0 {
		r.s.Writes++
	}
	return &models.DeleteResult{Acknowledged: true, DeletedCount: deleted}, nil
}

type FakePaymentRepository struct{ s *Store }

func (r *FakePaymentRepository) Create(_ context.Context, payment *models.Payment) (*models.InsertResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	r.s.payments = append(r.s.payments, *payment)
	r.s.Writes++
	return inserted(payment.ID), nil
}

func (r *FakePaymentRepository) FindByEmail(_ context.Context, email string) ([]models.Payment, error) {
	return r.filter(func(p models.Payment) bool { return p.Email == email })
}

func (r *FakePaymentRepository) FindPendingCleanup(_ context.Context) ([]models.Payment, error) {
	return r.filter(func(p models.Payment) bool { return p.CartCleanup == models.CartCleanupPending })
}

func (r *FakePaymentRepository) filter(match func(models.Payment) bool) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]models.Payment, 0)
	for _, p := range r.s.payments {
		if match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *FakePaymentRepository) SetCartCleanup(ctx context.Context, id primitive.ObjectID, state string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for i := range r.s.payments {
		if r.s.payments[i].ID == id {
			r.s.payments[i].CartCleanup = state
			r.s.Writes++
		}
	}
	return nil
}

func (r *FakePaymentRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return int64(len(r.s.payments)), nil
}

func (r *FakePaymentRepository) TotalRevenue(_ context.Context) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	var total float64
	for _, p := range r.s.payments {
		total += p.Price
	}
	return total, nil
}

// OrderStats mirrors repository.OrderStatsPipeline: one row per matched
// menu item per payment, grouped by category and sorted by category.
func (r *FakePaymentRepository) OrderStats(_ context.Context) ([]models.CategoryStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	byID := make(map[primitive.ObjectID]models.MenuItem, len(r.s.menu))
	for _, m := range r.s.menu {
		byID[m.ID] = m
	}

	groups := make(map[string]*models.CategoryStat)
	for _, p := range r.s.payments {
		for _, id := range p.MenuItems {
			item, ok := byID[id]
			if !ok {
				continue
			}
			g, ok := groups[item.Category]
			if !ok {
				g = &models.CategoryStat{Category: item.Category}
				groups[item.Category] = g
			}
			g.Count++
			g.Total += item.Price
		}
	}

	stats := make([]models.CategoryStat, 0, len(groups))
	for _, g := range groups {
		g.Total = round2(g.Total)
		stats = append(stats, *g)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Category < stats[j].Category
	})
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	_ repository.UserRepository    = (*FakeUserRepository)(nil)
	_ repository.MenuRepository    = (*FakeMenuRepository)(nil)
	_ repository.ReviewRepository  = (*FakeReviewRepository)(nil)
	_ repository.CartRepository    = (*FakeCartRepository)(nil)
	_ repository.PaymentRepository = (*FakePaymentRepository)(nil)
)
