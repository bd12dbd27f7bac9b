package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type TokenPair struct {
	Username string `json:"username"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
}
