package models

import "time"

// LoginResult - результат успешного входа.
//
// Описание:
//   - AccessToken - короткоживущий JWT для доступа к API;
//   - RefreshToken - случайный секрет для выпуска новых access-токенов;
//     пустой, если поддержка refresh-токенов выключена в конфигурации;
//   - AccessExpiresAt - момент истечения access-токена (UTC);
//   - AccountID/Roles - владелец токенов и его роли на момент выпуска.
type LoginResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	AccountID       int64
	Roles           []Role
}

// RefreshResult - результат обмена refresh-токена на новый access-токен.
// Роли перечитываются из аккаунта в момент обмена.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	AccountID       int64
	Roles           []Role
}
