package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notifier"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memUsersRepo keeps users in memory keyed by email. Records are copied in
// and out so callers cannot mutate stored state without Update.
type memUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User

	createErr error
	getErr    error
	updateErr error
	updates   int
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byEmail: map[string]*models.User{}}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.PendingCode != nil {
		code := *u.PendingCode
		c.PendingCode = &code
	}
	return &c
}

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.byEmail[u.Email] = cloneUser(u)
	return cloneUser(u), nil
}

func (r *memUsersRepo) get(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *memUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(email)
}

func (r *memUsersRepo) GetUserByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	return r.get(email)
}

func (r *memUsersRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byEmail[u.Email]; !ok {
		return common.ErrorNotFound
	}
	u.UpdatedAt = time.Now()
	r.byEmail[u.Email] = cloneUser(u)
	r.updates++
	return nil
}

// stored returns the persisted record, bypassing injected errors.
func (r *memUsersRepo) stored(email string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

type fakeRepoManager struct {
	u *memUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifier.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, n notifier.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) all() []notifier.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifier.Notification(nil), f.sent...)
}

func (f *fakeNotifier) last() notifier.Notification {
	all := f.all()
	if len(all) == 0 {
		return notifier.Notification{}
	}
	return all[len(all)-1]
}

type fakeEvents struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeEvents) AuthEvent(op, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, op+"/"+outcome)
}

func (f *fakeEvents) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// expectTx registers one transaction ending in commit or rollback.
func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func testConfig() *config.Config {
	var cfg config.Config
	cfg.LoadDefaults()
	cfg.AccessSecretKey = "access-k"
	cfg.RefreshSecretKey = "refresh-k"
	cfg.BcryptCost = bcrypt.MinCost
	return &cfg
}

type testEnv struct {
	svc    *UserService
	repo   *memUsersRepo
	notif  *fakeNotifier
	events *fakeEvents
	mock   sqlmock.Sqlmock
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock := newSQLMockDB(t)
	cfg := testConfig()

	repo := newMemUsersRepo()
	notif := &fakeNotifier{}
	events := &fakeEvents{}
	tokens := auth.NewTokenManager(cfg)

	svc := NewUserService(db, &fakeRepoManager{u: repo}, tokens, notif, logging.NewZapLogger(zap.NewNop()), events, cfg)

	return &testEnv{svc: svc, repo: repo, notif: notif, events: events, mock: mock, tokens: tokens}
}

// codes returns a newCode func yielding the given values in order.
func codes(values ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		v := values[i%len(values)]
		i++
		return v, nil
	}
}
