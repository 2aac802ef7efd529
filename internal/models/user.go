package models

import "time"

// User представляет учётную запись пользователя приложения
type User struct {
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt, никогда не отдаём наружу
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
