package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinUsernameLength   = 3
	MaxUsernameLength   = 12
	MinPasswordLength   = 6
	GuestPrefix         = "Guest_"
	DefaultLeaderboard  = 10
	MaxLeaderboardLimit = 100
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_\p{Han}]+$`)

// ValidateUsername checks length (in characters) and the allowed alphabet
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameChars
	}
	return nil
}

// ValidatePassword checks length and that the confirmation matches
func ValidatePassword(password, confirmPassword string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// AccountOption configures the account service
type AccountOption func(*accountServiceImpl)

// WithPasswordCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) AccountOption {
	return func(s *accountServiceImpl) {
		s.cost = cost
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) AccountOption {
	return func(s *accountServiceImpl) {
		s.now = now
	}
}

// accountServiceImpl implements the AccountService interface.
// Registered users live in the store; guests only exist in memory.
type accountServiceImpl struct {
	store  AccountStore
	cost   int
	now    func() time.Time
	mu     sync.Mutex
	guests map[string]*guestLogin
}

// guestLogin is an in-memory guest token and when it was last used
type guestLogin struct {
	user     *User
	lastSeen time.Time
}

// NewAccountService creates an account service backed by store
func NewAccountService(store AccountStore, opts ...AccountOption) AccountService {
	s := &accountServiceImpl{
		store:  store,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		guests: make(map[string]*guestLogin),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and logs them in
func (s *accountServiceImpl) Register(ctx context.Context, username, password, confirmPassword string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if strings.HasPrefix(username, GuestPrefix) {
		return nil, fmt.Errorf("%w: the %s prefix is reserved", ErrUsernameTaken, GuestPrefix)
	}
	if err := ValidatePassword(password, confirmPassword); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user, err := s.store.CreateUser(ctx, username, string(hash), now)
	if err != nil {
		return nil, err
	}

	return s.issueToken(ctx, user, now)
}

// Login checks credentials and issues a new token
func (s *accountServiceImpl) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, hash, err := s.store.GetCredentials(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}

	return s.issueToken(ctx, user, s.now())
}

func (s *accountServiceImpl) issueToken(ctx context.Context, user *User, now time.Time) (*AuthResult, error) {
	token := uuid.NewString()
	if err := s.store.SaveToken(ctx, token, user.Username, now); err != nil {
		return nil, fmt.Errorf("failed to save login: %w", err)
	}
	if err := s.store.TouchLogin(ctx, user.Username, now); err != nil {
		return nil, fmt.Errorf("failed to update login time: %w", err)
	}
	user.LastLoginAt = now

	return &AuthResult{Token: token, User: user}, nil
}

// GuestLogin creates a throwaway Guest_xxxxxx identity
func (s *accountServiceImpl) GuestLogin(ctx context.Context) (*AuthResult, error) {
	name, err := guestName()
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &User{Username: name, Guest: true, CreatedAt: now, LastLoginAt: now}
	token := uuid.NewString()

	s.mu.Lock()
	s.guests[token] = &guestLogin{user: user, lastSeen: now}
	s.mu.Unlock()

	return &AuthResult{Token: token, User: user}, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func guestName() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate guest name: %w", err)
	}
	for i := range b {
		b[i] = base36[int(b[i])%len(base36)]
	}
	return GuestPrefix + string(b), nil
}

// Logout forgets the token
func (s *accountServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}

	s.mu.Lock()
	if _, ok := s.guests[token]; ok {
		delete(s.guests, token)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.store.DeleteToken(ctx, token)
}

// ExpireGuests forgets guest tokens unused for longer than maxAge
func (s *accountServiceImpl) ExpireGuests(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, guest := range s.guests {
		if guest.lastSeen.Before(cutoff) {
			delete(s.guests, token)
			removed++
		}
	}
	return removed
}

// CurrentUser resolves a token to its user
func (s *accountServiceImpl) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	guest, ok := s.guests[token]
	var copied User
	if ok {
		guest.lastSeen = s.now()
		copied = *guest.user
	}
	s.mu.Unlock()
	if ok {
		return &copied, nil
	}

	username, err := s.store.LookupToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, _, err := s.store.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Stats returns the token user's results. Guests always have empty stats.
func (s *accountServiceImpl) Stats(ctx context.Context, token string) (*UserStats, error) {
	user, err := s.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if user.Guest {
		return &UserStats{Username: user.Username, Guest: true, LastLoginAt: user.LastLoginAt}, nil
	}
	return s.store.GetStats(ctx, user.Username)
}

// Leaderboard returns the best registered players
func (s *accountServiceImpl) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboard
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return s.store.Leaderboard(ctx, limit)
}

// History returns the token user's latest games. Guests have none.
func (s *accountServiceImpl) History(ctx context.Context, token string, limit int) ([]*GameRecord, error) {
	user, err := s.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.Guest {
		return []*GameRecord{}, nil
	}
	if limit <= 0 || limit > MaxLeaderboardLimit {
		limit = DefaultLeaderboard
	}
	return s.store.RecentGames(ctx, user.Username, limit)
}

// RecordGame stores a finished game for a registered owner. Guest games are not kept.
func (s *accountServiceImpl) RecordGame(ctx context.Context, owner Owner, score int, configName string) (*UserStats, error) {
	if !owner.Registered() {
		return &UserStats{Username: owner.Username, Guest: true}, nil
	}

	return s.store.RecordGame(ctx, &GameRecord{
		ID:         uuid.NewString(),
		Username:   owner.Username,
		Score:      score,
		ConfigName: configName,
		PlayedAt:   s.now(),
	})
}

// HighScore returns the owner's persisted best score, 0 for guests
func (s *accountServiceImpl) HighScore(ctx context.Context, owner Owner) (int, error) {
	if !owner.Registered() {
		return 0, nil
	}

	stats, err := s.store.GetStats(ctx, owner.Username)
	if err != nil {
		return 0, err
	}
	return stats.HighScore, nil
}
