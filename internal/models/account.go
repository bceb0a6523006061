package models

import "time"

// Account - учётная запись, по которой выполняется вход.
// Email хранится в нижнем регистре; PasswordHash - bcrypt-хэш.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
