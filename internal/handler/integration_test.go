package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/auth"
	"github.com/SergeiKhy/link-shortener/internal/handler"
	"github.com/SergeiKhy/link-shortener/internal/middleware"
	"github.com/SergeiKhy/link-shortener/internal/models"
	"github.com/SergeiKhy/link-shortener/internal/repository"
	"github.com/SergeiKhy/link-shortener/internal/service"
	"github.com/SergeiKhy/link-shortener/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegration_FullStack прогоняет основные сценарии на настоящих PostgreSQL и Redis
func TestIntegration_FullStack(t *testing.T) {
	testutil.SkipIfShort(t)
	gin.SetMode(gin.TestMode)

	db := testutil.StartPostgres(t)
	redis := testutil.StartRedis(t)

	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokens := auth.NewTokenManager("integration-secret", 5*time.Minute, time.Hour)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1000, // Высокий лимит для тестов
		BurstSize:         1000,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(rateLimiter.Stop)

	router := handler.NewRouter(handler.Deps{
		LinkService: service.NewLinkService(linkRepo, repository.NewCacheRepository(redis), time.Hour, zap.NewNop()),
		AuthService: service.NewAuthService(userRepo, tokens, bcrypt.MinCost, zap.NewNop()),
		Tokens:      tokens,
		RateLimiter: rateLimiter,
		BaseURL:     testBaseURL,
	})
	env := &testEnv{router: router, tokens: tokens}

	ctx := context.Background()
	newUser := func(name string) (int64, string) {
		user := &models.User{Username: name, PasswordHash: "unused"}
		require.NoError(t, userRepo.Create(ctx, user))
		access, err := tokens.IssueAccess(user.ID)
		require.NoError(t, err)
		return user.ID, access
	}
	count := func() int64 {
		n, err := linkRepo.Count(ctx)
		require.NoError(t, err)
		return n
	}

	aliceID, aliceToken := newUser("alice")
	_, bobToken := newUser("bob")

	t.Run("без токена ничего не создаётся", func(t *testing.T) {
		w := env.do(jsonRequest(t, http.MethodPost, "/api/shorten", gin.H{"original_url": "https://example.com"}, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, int64(0), count())
	})

	t.Run("невалидный URL отклоняется", func(t *testing.T) {
		w := env.do(jsonRequest(t, http.MethodPost, "/api/shorten", gin.H{"original_url": "not-a-valid-url"}, aliceToken))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, int64(0), count())
	})

	var code string
	t.Run("создание и редирект", func(t *testing.T) {
		w := env.do(jsonRequest(t, http.MethodPost, "/api/shorten", gin.H{"original_url": "https://example.com"}, aliceToken))
		require.Equal(t, http.StatusOK, w.Code)

		var created handler.LinkResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		require.NotNil(t, created.Owner)
		assert.Equal(t, aliceID, *created.Owner)
		code = created.ShortCode

		req, _ := http.NewRequest(http.MethodGet, "/"+code, nil)
		w = env.do(req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))

		link, err := linkRepo.GetByShortCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, int64(1), link.ClickCount)
		assert.NotNil(t, link.LastClickedAt)
	})

	t.Run("параллельные переходы", func(t *testing.T) {
		const clicks = 30
		var wg sync.WaitGroup
		for i := 0; i < clicks; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req, _ := http.NewRequest(http.MethodGet, "/"+code, nil)
				w := env.do(req)
				assert.Equal(t, http.StatusFound, w.Code)
			}()
		}
		wg.Wait()

		link, err := linkRepo.GetByShortCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, int64(1+clicks), link.ClickCount)
	})

	t.Run("неизвестный код", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/unknown", nil)
		w := env.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("изоляция списков", func(t *testing.T) {
		w := env.do(jsonRequest(t, http.MethodPost, "/api/shorten", gin.H{"original_url": "https://bob.example"}, bobToken))
		require.Equal(t, http.StatusOK, w.Code)

		req, _ := http.NewRequest(http.MethodGet, "/api/links", nil)
		req.Header.Set("Authorization", "Bearer "+aliceToken)
		w = env.do(req)
		require.Equal(t, http.StatusOK, w.Code)

		var list handler.ListLinksResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Equal(t, 1, list.Count)
		assert.Equal(t, code, list.Links[0].ShortCode)
		assert.Equal(t, int64(31), list.Links[0].ClickCount)
	})
}
