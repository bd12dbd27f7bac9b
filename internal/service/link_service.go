package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/models"
	"github.com/SergeiKhy/link-shortener/internal/repository"
	"github.com/SergeiKhy/link-shortener/internal/shortcode"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Ошибки сервиса
var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrEmptyURL          = errors.New("empty URL")
	ErrInvalidCodeLength = errors.New("invalid short code length")
)

const defaultCacheTTL = 24 * time.Hour

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	FindByCode(ctx context.Context, code string) (*models.Link, error)
	Redirect(ctx context.Context, code string) (*models.Link, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error)
}

type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	generator *shortcode.Generator
	cacheTTL  time.Duration
	lookups   singleflight.Group
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) LinkService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		generator: shortcode.NewGenerator(linkRepo),
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CreateLink создаёт новую короткую ссылку.
// Конфликт кода при вставке (гонка между проверкой и INSERT) обрабатывается
// повторной генерацией и до вызывающего не доходит.
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if input.Validate {
		if err := validateURL(input.OriginalURL); err != nil {
			return nil, err
		}
	} else if strings.TrimSpace(input.OriginalURL) == "" {
		return nil, ErrEmptyURL
	}

	length := input.CodeLength
	if length == 0 {
		length = shortcode.DefaultLength
	}
	if length < 0 || length > shortcode.MaxLength {
		return nil, ErrInvalidCodeLength
	}

	for attempt := 1; ; attempt++ {
		code, err := s.generator.Generate(ctx, length)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		link := &models.Link{
			OriginalURL: input.OriginalURL,
			ShortCode:   code,
			OwnerID:     input.OwnerID,
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			s.cache(ctx, link)
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return nil, err
		}

		s.logger.Warn("Short code taken concurrently, regenerating",
			zap.String("code", code),
			zap.Int("attempt", attempt),
		)
	}
}

// FindByCode читает ссылку напрямую из БД, без кэша
func (s *linkService) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	if !shortcode.Valid(code) {
		return nil, repository.ErrLinkNotFound
	}
	return s.linkRepo.GetByShortCode(ctx, code)
}

// Redirect находит ссылку и атомарно учитывает клик.
// Если закэшированная запись пропала (например, удалён владелец), кэш
// очищается и код один раз разрешается заново из БД.
func (s *linkService) Redirect(ctx context.Context, code string) (*models.Link, error) {
	if !shortcode.Valid(code) {
		return nil, repository.ErrLinkNotFound
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var target, link *models.Link
		target, err = s.resolve(ctx, code)
		if err != nil {
			return nil, err
		}

		link, err = s.linkRepo.RecordClick(ctx, target.ID)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return nil, err
		}

		if delErr := s.cacheRepo.Delete(ctx, code); delErr != nil {
			s.logger.Warn("Failed to evict cached link", zap.String("code", code), zap.Error(delErr))
		}
	}

	return nil, err
}

func (s *linkService) ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error) {
	return s.linkRepo.ListByOwner(ctx, ownerID)
}

// resolve возвращает цель редиректа: сначала кэш, затем БД.
// Одновременные промахи по одному коду объединяются в один запрос.
func (s *linkService) resolve(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Cache error", zap.String("code", code), zap.Error(err))
	}

	// Общий запрос не наследует отмену первого вызывающего;
	// каждый ждёт результат со своим ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.lookups.DoChan(code, func() (interface{}, error) {
		link, err := s.linkRepo.GetByShortCode(shared, code)
		if err != nil {
			return nil, err
		}
		s.cache(shared, link)
		return link, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Link), nil
	}
}

func (s *linkService) cache(ctx context.Context, link *models.Link) {
	if err := s.cacheRepo.Set(ctx, link, s.cacheTTL); err != nil {
		// Кэш необязателен, создание/редирект не прерываем
		s.logger.Warn("Failed to cache link", zap.String("code", link.ShortCode), zap.Error(err))
	}
}

// validateURL требует абсолютный http(s) URL с хостом
func validateURL(raw string) error {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return ErrInvalidURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Hostname() == "" {
		return ErrInvalidURL
	}

	return nil
}
