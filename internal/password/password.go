// password проверяет и хэширует пароли учётных записей.
//
// Проверка всегда «закрыта по умолчанию»: любая ошибка или паника библиотеки
// хэширования трактуется как несовпадение пароля.
package password

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Verifier сравнивает пароль в открытом виде с сохранённым хэшем.
type Verifier interface {
	Verify(plaintext, storedHash string) bool
}

// Hasher дополняет Verifier выпуском хэшей и «холостой» проверкой
// для отсутствующих учётных записей.
type Hasher interface {
	Verifier
	Hash(plaintext string) (string, error)
	Burn(plaintext string) bool
}

// Bcrypt реализует Hasher поверх golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	// Cost используется только в Hash; 0 означает bcrypt.DefaultCost.
	Cost int
}

// fallbackDummyHash - синтаксически корректный bcrypt-хэш (cost=10) на случай,
// если сгенерировать хэш с настроенной стоимостью не удалось.
const fallbackDummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3sE9zvJVGZVZ8Cz4f7Ofs0a"

// dummyHashes хранит «холостые» хэши по стоимости: время Burn должно совпадать
// со временем Verify против настоящего хэша той же стоимости.
var dummyHashes sync.Map // int -> string

func dummyHash(cost int) string {
	if h, ok := dummyHashes.Load(cost); ok {
		return h.(string)
	}

	h, err := bcrypt.GenerateFromPassword([]byte("burn-placeholder"), cost)
	if err != nil {
		return fallbackDummyHash
	}

	v, _ := dummyHashes.LoadOrStore(cost, string(h))
	return v.(string)
}

// Verify возвращает true только если пароль совпадает с хэшем.
func (b Bcrypt) Verify(plaintext, storedHash string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if plaintext == "" || storedHash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// Burn выполняет сравнение с заведомо чужим хэшем той же стоимости, что и Hash,
// и всегда возвращает false.
func (b Bcrypt) Burn(plaintext string) bool {
	_ = b.Verify(plaintext, dummyHash(b.cost()))
	return false
}

// Warm заранее готовит «холостой» хэш, чтобы первый Burn не был медленнее остальных.
func (b Bcrypt) Warm() {
	_ = dummyHash(b.cost())
}

// Hash хэширует пароль с настроенной стоимостью.
func (b Bcrypt) Hash(plaintext string) (string, error) {
	const op = "password.Bcrypt.Hash"

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(h), nil
}

func (b Bcrypt) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}
