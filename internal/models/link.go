package models

import (
	"fmt"
	"time"
)

type Link struct {
	ID            int64      `json:"id"`
	OriginalURL   string     `json:"original_url"`
	ShortCode     string     `json:"short_code"`
	OwnerID       *int64     `json:"owner"`
	CreatedAt     time.Time  `json:"created_at"`
	ClickCount    int64      `json:"click_count"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
}

func (l *Link) String() string {
	if l.OwnerID != nil {
		return fmt.Sprintf("%s for user %d", l.ShortCode, *l.OwnerID)
	}
	return l.ShortCode + " (anonymous)"
}

// CreateLinkInput описывает запрос на создание ссылки.
// Validate включает строгую проверку URL (программный API);
// форма на главной странице принимает любую непустую строку.
type CreateLinkInput struct {
	OriginalURL string
	OwnerID     *int64
	CodeLength  int
	Validate    bool
}
