package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
	"vetlinks/backend/pkg/jwt"
)

// ── 内存数据集 ──
// 各 mock Repository 共享同一份数据，以便模拟 Preload 与级联查询

type memStore struct {
	nextID   uint
	base     time.Time
	users    map[uint]*model.User
	tokens   map[uint]*model.AuthToken
	cases    map[uint]*model.Case
	reports  map[uint]*model.LaboratoryReport
	comments map[uint]*model.Comment
}

func newMemStore() *memStore {
	return &memStore{
		base:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    make(map[uint]*model.User),
		tokens:   make(map[uint]*model.AuthToken),
		cases:    make(map[uint]*model.Case),
		reports:  make(map[uint]*model.LaboratoryReport),
		comments: make(map[uint]*model.Comment),
	}
}

// id 分配自增主键，并返回单调递增的创建时间
func (s *memStore) id() (uint, time.Time) {
	s.nextID++
	return s.nextID, s.base.Add(time.Duration(s.nextID) * time.Second)
}

func (s *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:             &mockUserRepo{s: s},
		Token:            &mockTokenRepo{s: s},
		Case:             &mockCaseRepo{s: s},
		LaboratoryReport: &mockReportRepo{s: s},
		Comment:          &mockCommentRepo{s: s},
	}
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	s *memStore
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.s.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID, user.CreatedAt = m.s.id()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.s.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	cp.Cases = nil
	m.s.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	all := make([]model.User, 0, len(m.s.users))
	for _, u := range m.s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock TokenRepository ──

type mockTokenRepo struct {
	s *memStore
}

func (m *mockTokenRepo) GetByUserID(_ context.Context, userID uint) (*model.AuthToken, error) {
	if t, ok := m.s.tokens[userID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTokenRepo) CreateIfAbsent(ctx context.Context, token *model.AuthToken) (*model.AuthToken, error) {
	if _, ok := m.s.tokens[token.UserID]; !ok {
		cp := *token
		m.s.tokens[token.UserID] = &cp
	}
	return m.GetByUserID(ctx, token.UserID)
}

func (m *mockTokenRepo) Upsert(_ context.Context, token *model.AuthToken) error {
	cp := *token
	m.s.tokens[token.UserID] = &cp
	return nil
}

func (m *mockTokenRepo) DeleteByUserID(_ context.Context, userID uint) error {
	delete(m.s.tokens, userID)
	return nil
}

// ── Mock CaseRepository ──

type mockCaseRepo struct {
	s *memStore
}

// load 模拟 Preload("Owner") 与 Preload("LaboratoryReports")
func (m *mockCaseRepo) load(c *model.Case) *model.Case {
	cp := *c
	if u, ok := m.s.users[c.UserID]; ok {
		owner := *u
		cp.Owner = &owner
	}
	cp.LaboratoryReports = nil
	for _, r := range m.s.reports {
		if r.CaseID == c.ID {
			cp.LaboratoryReports = append(cp.LaboratoryReports, *r)
		}
	}
	sort.Slice(cp.LaboratoryReports, func(i, j int) bool {
		return cp.LaboratoryReports[i].ID < cp.LaboratoryReports[j].ID
	})
	return &cp
}

func (m *mockCaseRepo) list(keep func(*model.Case) bool) []model.Case {
	var result []model.Case
	for _, c := range m.s.cases {
		if keep(c) {
			result = append(result, *m.load(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

func (m *mockCaseRepo) Create(_ context.Context, c *model.Case) error {
	c.ID, c.CreatedAt = m.s.id()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.s.cases[c.ID] = &cp
	return nil
}

func (m *mockCaseRepo) GetByID(_ context.Context, id uint) (*model.Case, error) {
	if c, ok := m.s.cases[id]; ok {
		return m.load(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCaseRepo) GetOwned(_ context.Context, id, ownerID uint) (*model.Case, error) {
	if c, ok := m.s.cases[id]; ok && c.UserID == ownerID {
		return m.load(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCaseRepo) ListAll(_ context.Context) ([]model.Case, error) {
	return m.list(func(*model.Case) bool { return true }), nil
}

func (m *mockCaseRepo) ListByOwner(_ context.Context, ownerID uint) ([]model.Case, error) {
	return m.list(func(c *model.Case) bool { return c.UserID == ownerID }), nil
}

func (m *mockCaseRepo) Update(_ context.Context, c *model.Case) error {
	cp := *c
	cp.Owner = nil
	cp.LaboratoryReports = nil
	m.s.cases[c.ID] = &cp
	return nil
}

func (m *mockCaseRepo) Delete(_ context.Context, id uint) error {
	delete(m.s.cases, id)
	return nil
}

func (m *mockCaseRepo) DeleteByOwner(_ context.Context, ownerID uint) error {
	for id, c := range m.s.cases {
		if c.UserID == ownerID {
			delete(m.s.cases, id)
		}
	}
	return nil
}

// ── Mock LaboratoryReportRepository ──

type mockReportRepo struct {
	s *memStore
}

func (m *mockReportRepo) Create(_ context.Context, report *model.LaboratoryReport) error {
	report.ID, report.CreatedAt = m.s.id()
	cp := *report
	m.s.reports[report.ID] = &cp
	return nil
}

func (m *mockReportRepo) ListByCase(_ context.Context, caseID uint) ([]model.LaboratoryReport, error) {
	var result []model.LaboratoryReport
	for _, r := range m.s.reports {
		if r.CaseID == caseID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockReportRepo) DeleteByCaseIDs(_ context.Context, caseIDs []uint) error {
	set := toSet(caseIDs)
	for id, r := range m.s.reports {
		if set[r.CaseID] {
			delete(m.s.reports, id)
		}
	}
	return nil
}

// ── Mock CommentRepository ──

type mockCommentRepo struct {
	s *memStore
}

func (m *mockCommentRepo) withAuthor(c *model.Comment) model.Comment {
	cp := *c
	if u, ok := m.s.users[c.UserID]; ok {
		author := *u
		cp.Author = &author
	}
	return cp
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	comment.ID, comment.CreatedAt = m.s.id()
	cp := *comment
	cp.Author = nil
	m.s.comments[comment.ID] = &cp
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id uint) (*model.Comment, error) {
	if c, ok := m.s.comments[id]; ok {
		cp := m.withAuthor(c)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommentRepo) ListByCase(_ context.Context, caseID uint) ([]model.Comment, error) {
	var result []model.Comment
	for _, c := range m.s.comments {
		if c.CaseID == caseID {
			result = append(result, m.withAuthor(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockCommentRepo) ListChildIDs(_ context.Context, parentIDs []uint) ([]uint, error) {
	set := toSet(parentIDs)
	var ids []uint
	for _, c := range m.s.comments {
		if c.ParentID != nil && set[*c.ParentID] {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (m *mockCommentRepo) ListIDsByAuthor(_ context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, c := range m.s.comments {
		if c.UserID == userID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (m *mockCommentRepo) DeleteByIDs(_ context.Context, ids []uint) error {
	for _, id := range ids {
		delete(m.s.comments, id)
	}
	return nil
}

func (m *mockCommentRepo) DeleteByCaseIDs(_ context.Context, caseIDs []uint) error {
	set := toSet(caseIDs)
	for id, c := range m.s.comments {
		if set[c.CaseID] {
			delete(m.s.comments, id)
		}
	}
	return nil
}

// ── Mock TokenCache / ImageStore ──

type mockTokenCache struct {
	tokens map[uint]string
	sets   int
}

func newMockTokenCache() *mockTokenCache {
	return &mockTokenCache{tokens: make(map[uint]string)}
}

func (m *mockTokenCache) SetActiveToken(_ context.Context, userID uint, jti string, _ time.Duration) error {
	m.sets++
	m.tokens[userID] = jti
	return nil
}

func (m *mockTokenCache) GetActiveToken(_ context.Context, userID uint) (string, bool, error) {
	jti, ok := m.tokens[userID]
	return jti, ok, nil
}

func (m *mockTokenCache) DeleteActiveToken(_ context.Context, userID uint) error {
	delete(m.tokens, userID)
	return nil
}

type mockImageStore struct {
	nextID  int
	files   map[string][]byte
	removed []string
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{files: make(map[string][]byte)}
}

func (m *mockImageStore) Save(dir, ext string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.nextID++
	name := fmt.Sprintf("%s/img-%d%s", dir, m.nextID, ext)
	m.files[name] = data
	return name, nil
}

func (m *mockImageStore) Remove(name string) error {
	delete(m.files, name)
	m.removed = append(m.removed, name)
	return nil
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ── 测试辅助 ──

type testEnv struct {
	store  *memStore
	repo   *repository.Repository
	cache  *mockTokenCache
	images *mockImageStore
	jwtMgr *jwt.Manager
	svc    *Service
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-key-for-unit-testing-2026",
			TokenCacheTTL:      time.Hour,
			DefaultAccountType: model.DefaultAccountType,
		},
		Storage: config.StorageConfig{MaxImageBytes: 1 << 20},
		Comment: config.CommentConfig{MaxDepth: 3},
	}
}

func setupTestEnv() *testEnv {
	cfg := newTestConfig()
	store := newMemStore()
	repo := store.repository()
	cache := newMockTokenCache()
	images := newMockImageStore()
	jwtMgr := jwt.NewManager(&cfg.Auth)

	return &testEnv{
		store:  store,
		repo:   repo,
		cache:  cache,
		images: images,
		jwtMgr: jwtMgr,
		svc:    NewService(cfg, repo, jwtMgr, cache, images, zap.NewNop()),
	}
}

func createTestUser(env *testEnv, username, password, accountType string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		AccountType:  accountType,
	}
	_ = env.repo.User.Create(context.Background(), user)
	return user
}

func createTestCase(env *testEnv, ownerID uint, title string) *model.Case {
	c := &model.Case{
		UserID:    ownerID,
		Category:  model.CaseCategorySurgery,
		CaseTitle: title,
	}
	_ = env.repo.Case.Create(context.Background(), c)
	return c
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

func zapNop() *zap.Logger { return zap.NewNop() }
