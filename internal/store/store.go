package store

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Ciriously/bookarchive/internal/analytics"
)

const (
	// DefaultToastTTL is how long a toast stays visible before the
	// auto-hide timer fires.
	DefaultToastTTL = 3 * time.Second

	identityPrefix = "USER_"

	persistTimeout = 3 * time.Second
)

// Config wires the store's collaborators. Repo and Sink may be nil; the
// store then skips persistence / analytics respectively.
type Config struct {
	Snapshot *Snapshot
	Repo     Repository
	Sink     analytics.Sink
	Logger   *log.Logger
	ToastTTL time.Duration
	Now      func() time.Time
}

// Store is the single authoritative state container for session, cart and
// toast. All mutations are synchronous in-process calls; none of them can
// fail from the caller's point of view. Snapshot saves and analytics calls
// happen underneath and are logged-and-swallowed on error.
type Store struct {
	mu    sync.Mutex
	user  *Session
	cart  []CartLine
	toast Toast

	repo     Repository
	sink     analytics.Sink
	logger   *log.Logger
	toastTTL time.Duration
	now      func() time.Time
}

func New(cfg Config) *Store {
	s := &Store{
		repo:     cfg.Repo,
		sink:     cfg.Sink,
		logger:   cfg.Logger,
		toastTTL: cfg.ToastTTL,
		now:      cfg.Now,
	}
	if s.sink == nil {
		s.sink = analytics.NopSink{}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.toastTTL <= 0 {
		s.toastTTL = DefaultToastTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.Snapshot != nil && cfg.Snapshot.Version == SnapshotVersion {
		s.user = cfg.Snapshot.User
		s.cart = append(s.cart, cfg.Snapshot.Cart...)
	}
	return s
}

// Restore loads the persisted snapshot, tolerating every failure mode: a
// missing row, a load error or an unknown version all yield empty state.
func Restore(ctx context.Context, repo Repository, logger *log.Logger) *Snapshot {
	if repo == nil {
		return nil
	}
	snap, err := repo.Load(ctx)
	if err != nil {
		logger.Printf("snapshot load failed, starting empty: %v", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	if snap.Version != SnapshotVersion {
		logger.Printf("snapshot version %d unsupported, starting empty", snap.Version)
		return nil
	}
	return snap
}

// Login replaces the session unconditionally. There is no validation and no
// duplicate-login guard: this is an identity claim, not authentication.
// The analytics profile push is fire-and-forget.
func (s *Store) Login(name, email, countryCode, phone string) {
	cleanPhone := digitsOnly(phone)
	fullPhone := countryCode + cleanPhone
	identity := fmt.Sprintf("%s%d", identityPrefix, s.now().UnixMilli())

	s.mu.Lock()
	s.user = &Session{
		Name:            name,
		Email:           email,
		Phone:           fullPhone,
		Identity:        identity,
		IsAuthenticated: true,
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Printf("login: %s", identity)
	s.persist(snap)

	analytics.EmitIdentify(s.sink, s.logger, analytics.Profile{
		Name:        name,
		Email:       email,
		Identity:    identity,
		Phone:       fullPhone,
		CountryCode: countryCode,
	})
}

// Logout clears session and cart together; the cart belongs to the member,
// not to an anonymous identity.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.cart = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Printf("logout")
	s.persist(snap)
}

// AddToCart merges by id: an existing line has its quantity incremented by
// one (the incoming quantity is ignored), a new id is appended verbatim.
// Always shows the confirmation toast.
func (s *Store) AddToCart(line CartLine) {
	s.mu.Lock()
	merged := false
	for i := range s.cart {
		if s.cart[i].ID == line.ID {
			s.cart[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		s.cart = append(s.cart, line)
	}
	s.showToastLocked("Added to Archive: " + line.Title)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snap)
}

// RemoveFromCart is a silent no-op when the id is absent.
func (s *Store) RemoveFromCart(id string) {
	s.mu.Lock()
	kept := s.cart[:0]
	for _, line := range s.cart {
		if line.ID != id {
			kept = append(kept, line)
		}
	}
	s.cart = kept
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snap)
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	s.cart = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snap)
}

// ShowToast makes the toast visible and arms a fresh auto-hide timer.
// Earlier timers are deliberately not cancelled: a pending one will still
// fire and hide a newer toast. Known race, kept to match the storefront's
// observed behavior.
func (s *Store) ShowToast(message string) {
	s.mu.Lock()
	s.showToastLocked(message)
	s.mu.Unlock()
}

func (s *Store) showToastLocked(message string) {
	s.toast = Toast{Message: message, Visible: true}
	time.AfterFunc(s.toastTTL, func() {
		s.mu.Lock()
		s.toast = Toast{}
		s.mu.Unlock()
	})
}

// HideToast clears the toast immediately, regardless of pending timers.
func (s *Store) HideToast() {
	s.mu.Lock()
	s.toast = Toast{}
	s.mu.Unlock()
}

// User returns a copy of the current session, or nil when logged out.
func (s *Store) User() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Cart returns a copy of the cart lines in insertion order.
func (s *Store) Cart() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

func (s *Store) ToastState() Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toast
}

// Total is the display total: sum of price*quantity, rounded to 2 decimals.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, line := range s.cart {
		total += line.Price * float64(line.Quantity)
	}
	return math.Round(total*100) / 100
}

// Snapshot returns the durable view of the state: session and cart only,
// toast excluded.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{Version: SnapshotVersion}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	snap.Cart = make([]CartLine, len(s.cart))
	copy(snap.Cart, s.cart)
	return snap
}

// persist writes the snapshot synchronously. Errors never reach the caller:
// the state mutation already committed and the store's operations cannot
// fail by contract.
func (s *Store) persist(snap *Snapshot) {
	if s.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, snap); err != nil {
		s.logger.Printf("snapshot save failed: %v", err)
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
