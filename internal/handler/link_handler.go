package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/metrics"
	"github.com/SergeiKhy/link-shortener/internal/middleware"
	"github.com/SergeiKhy/link-shortener/internal/models"
	"github.com/SergeiKhy/link-shortener/internal/repository"
	"github.com/SergeiKhy/link-shortener/internal/service"
	"github.com/SergeiKhy/link-shortener/internal/shortcode"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	flashMessageCookie = "flash_message"
	latestURLCookie    = "latest_short_url"

	flashCreated = "Short URL created successfully!"

	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

type LinkHandler struct {
	service service.LinkService
	metrics *metrics.Metrics
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, m *metrics.Metrics, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		metrics: m,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type ShortenRequest struct {
	OriginalURL string `json:"original_url"`
}

// LinkResponse публичное представление ссылки, без внутреннего ID
type LinkResponse struct {
	OriginalURL   string     `json:"original_url"`
	ShortCode     string     `json:"short_code"`
	Owner         *int64     `json:"owner"`
	CreatedAt     time.Time  `json:"created_at"`
	ClickCount    int64      `json:"click_count"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
}

type ListLinksResponse struct {
	Count int            `json:"count"`
	Links []LinkResponse `json:"links"`
}

type HomeResponse struct {
	ShortURL string   `json:"short_url,omitempty"`
	Messages []string `json:"messages"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newLinkResponse(link *models.Link) LinkResponse {
	return LinkResponse{
		OriginalURL:   link.OriginalURL,
		ShortCode:     link.ShortCode,
		Owner:         link.OwnerID,
		CreatedAt:     link.CreatedAt,
		ClickCount:    link.ClickCount,
		LastClickedAt: link.LastClickedAt,
	}
}

// ShortenAPI создаёт ссылку от имени аутентифицированного пользователя.
// URL проверяется строго, код длиной 7 символов.
func (h *LinkHandler) ShortenAPI(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "not_authenticated",
			Message: "Authentication credentials were not provided",
		})
		return
	}

	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &models.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		OwnerID:     &userID,
		CodeLength:  shortcode.APICodeLength,
		Validate:    true,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "invalid_url",
				Message: "Enter a valid http or https URL",
			})
		default:
			h.logger.Error("Failed to create link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create link",
			})
		}
		return
	}

	h.metrics.LinksCreated.WithLabelValues("api").Inc()
	h.logger.Info("Link created",
		zap.String("code", link.ShortCode),
		zap.Int64("owner", userID),
	)

	c.JSON(http.StatusOK, newLinkResponse(link))
}

// ShortenForm обрабатывает форму на главной странице. Пользователь
// может быть анонимным, URL не проверяется. Результат передаётся на
// главную через одноразовые cookie.
func (h *LinkHandler) ShortenForm(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Redirect(http.StatusFound, "/")
		return
	}

	originalURL := c.PostForm("original_url")
	if strings.TrimSpace(originalURL) == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	input := &models.CreateLinkInput{
		OriginalURL: originalURL,
		CodeLength:  shortcode.FormCodeLength,
	}
	if userID, ok := middleware.UserIDFromContext(c); ok {
		input.OwnerID = &userID
	}

	link, err := h.service.CreateLink(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) {
			c.Redirect(http.StatusFound, "/")
			return
		}
		h.logger.Error("Failed to create link from form", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create link",
		})
		return
	}

	h.metrics.LinksCreated.WithLabelValues("form").Inc()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashMessageCookie, flashCreated, 0, "/", "", false, true)
	c.SetCookie(latestURLCookie, h.shortURL(c, link.ShortCode), 0, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// Home показывает результат последнего сокращения ровно один раз
func (h *LinkHandler) Home(c *gin.Context) {
	resp := HomeResponse{Messages: []string{}}

	if msg, err := c.Cookie(flashMessageCookie); err == nil && msg != "" {
		resp.Messages = append(resp.Messages, msg)
		c.SetCookie(flashMessageCookie, "", -1, "/", "", false, true)
	}
	if shortURL, err := c.Cookie(latestURLCookie); err == nil && shortURL != "" {
		resp.ShortURL = shortURL
		c.SetCookie(latestURLCookie, "", -1, "/", "", false, true)
	}

	c.JSON(http.StatusOK, resp)
}

// Redirect перенаправляет на исходный URL и учитывает клик
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.Redirect(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.metrics.Redirects.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.metrics.Redirects.WithLabelValues("error").Inc()
		h.logger.Error("Failed to resolve link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to resolve link",
		})
		return
	}

	h.metrics.Redirects.WithLabelValues("found").Inc()
	c.Redirect(http.StatusFound, link.OriginalURL)
}

// ListLinks возвращает ссылки текущего пользователя, новые первыми
func (h *LinkHandler) ListLinks(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "not_authenticated",
			Message: "Authentication credentials were not provided",
		})
		return
	}

	links, err := h.service.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list links", zap.Int64("owner", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	resp := ListLinksResponse{
		Count: len(links),
		Links: make([]LinkResponse, 0, len(links)),
	}
	for i := range links {
		resp.Links = append(resp.Links, newLinkResponse(&links[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// QRCode отдаёт PNG с QR-кодом короткой ссылки
func (h *LinkHandler) QRCode(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.FindByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to load link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load link",
		})
		return
	}

	size := defaultQRSize
	if s := c.Query("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= minQRSize && n <= maxQRSize {
			size = n
		}
	}

	png, err := qrcode.Encode(h.shortURL(c, link.ShortCode), qrcode.Medium, size)
	if err != nil {
		h.logger.Error("Failed to encode QR code", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to generate QR code",
		})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// shortURL строит абсолютный адрес; без APP_BASE_URL берётся хост запроса
func (h *LinkHandler) shortURL(c *gin.Context, code string) string {
	if h.baseURL != "" {
		return h.baseURL + "/" + code
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/" + code
}
