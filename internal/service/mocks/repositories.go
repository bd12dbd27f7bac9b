package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/models"
	"github.com/SergeiKhy/link-shortener/internal/repository"
)

// MockLinkRepository мок репозитория ссылок для тестов.
// Уникальность кода и инкремент кликов выполняются под мьютексом,
// как в БД ограничением и одним UPDATE.
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	byID   map[int64]*models.Link
	nextID int64

	// ConflictsOnCreate: следующие N вызовов Create вернут ErrCodeExists,
	// как если бы код занял параллельный запрос после проверки
	ConflictsOnCreate int
	CreateCalls       int
	// Err, если задан, возвращается всеми методами
	Err error
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		byID:   make(map[int64]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.Err != nil {
		return m.Err
	}
	if m.ConflictsOnCreate > 0 {
		m.ConflictsOnCreate--
		return repository.ErrCodeExists
	}
	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	link.CreatedAt = time.Now()
	link.ClickCount = 0
	link.LastClickedAt = nil

	stored := *link
	m.links[link.ShortCode] = &stored
	m.byID[link.ID] = &stored
	return nil
}

// Insert сохраняет ссылку с заданным кодом и временем создания
func (m *MockLinkRepository) Insert(link models.Link) *models.Link {
	m.mu.Lock()
	defer m.mu.Unlock()

	link.ID = m.nextID
	m.nextID++
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	m.links[link.ShortCode] = &link
	m.byID[link.ID] = &link
	out := link
	return &out
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	out := *link
	return &out, nil
}

func (m *MockLinkRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return false, m.Err
	}
	_, exists := m.links[code]
	return exists, nil
}

func (m *MockLinkRepository) RecordClick(ctx context.Context, id int64) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	link, exists := m.byID[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	now := time.Now()
	link.ClickCount++
	link.LastClickedAt = &now

	out := *link
	return &out, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	links := []models.Link{}
	for _, link := range m.byID {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			links = append(links, *link)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
		return links[i].ID > links[j].ID
	})
	return links, nil
}

func (m *MockLinkRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byID)), m.Err
}

// Remove удаляет ссылку в обход сервиса (например, каскад по владельцу)
func (m *MockLinkRepository) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link, ok := m.links[code]; ok {
		delete(m.byID, link.ID)
		delete(m.links, code)
	}
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.byID = make(map[int64]*models.Link)
	m.nextID = 1
	m.ConflictsOnCreate = 0
	m.CreateCalls = 0
	m.Err = nil
}

// MockCacheRepository мок кэша для тестов
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
	Hits  int
	Err   error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	link, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	m.Hits++
	out := *link
	return &out, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	stored := models.Link{ID: link.ID, OriginalURL: link.OriginalURL, ShortCode: link.ShortCode, OwnerID: link.OwnerID}
	m.cache[link.ShortCode] = &stored
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, code)
	return nil
}

func (m *MockCacheRepository) Contains(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cache[code]
	return ok
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
	m.Hits = 0
	m.Err = nil
}

// MockUserRepository мок репозитория пользователей для тестов
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*models.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *MockUserRepository) Delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}
