package guard

import (
	"errors"
	"sync"
	"time"

	"github.com/oneteam-dev/aichat/internal/models"
	"github.com/rs/zerolog/log"
)

// MaxAttempts задаёт порог блокировки: столько последних попыток просматривается,
// и столько подряд неудач блокирует аккаунт.
const MaxAttempts = 5

// ErrAccountLocked возвращается вместо обычного отказа по паролю,
// когда сработала блокировка.
var ErrAccountLocked = errors.New("account locked after too many failed logins")

// AttemptStore ведёт журнал попыток входа и переключает статус.
type AttemptStore interface {
	RecordLoginAttempt(attempt *models.LoginAttempt) error
	RecentLoginAttempts(username string, limit int) ([]models.LoginAttempt, error)
	BlockUser(username string) error
}

// Guard считает подряд идущие неудачные логины и блокирует аккаунт.
// Чтение окна и запись статуса идут под пер-пользовательским мьютексом:
// две параллельные неудачи не проскочат проверку порога одновременно.
type Guard struct {
	store AttemptStore

	// карта локов не чистится: ключи ограничены множеством имён пользователей
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store AttemptStore) *Guard {
	return &Guard{store: store, locks: make(map[string]*sync.Mutex)}
}

func (g *Guard) lockFor(username string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[username]
	if !ok {
		l = &sync.Mutex{}
		g.locks[username] = l
	}
	return l
}

// Record пишет попытку в журнал. Журнал append-only, ошибка записи
// не должна ломать сам логин.
func (g *Guard) Record(username string, success bool, reason, ip string) {
	attempt := &models.LoginAttempt{
		Username:    username,
		Success:     success,
		Reason:      reason,
		IPAddress:   ip,
		AttemptedAt: time.Now(),
	}
	if err := g.store.RecordLoginAttempt(attempt); err != nil {
		log.Error().Err(err).Str("username", username).Msg("record login attempt")
	}
}

// OnPasswordMismatch фиксирует неудачу и решает, пора ли блокировать.
// Возвращает ErrAccountLocked, если именно эта попытка добила порог.
func (g *Guard) OnPasswordMismatch(username, ip string) error {
	l := g.lockFor(username)
	l.Lock()
	defer l.Unlock()

	g.Record(username, false, "login failed - password mismatch", ip)

	attempts, err := g.store.RecentLoginAttempts(username, MaxAttempts)
	if err != nil {
		return err
	}

	if countConsecutiveFailures(attempts) >= MaxAttempts {
		if err := g.store.BlockUser(username); err != nil {
			return err
		}
		log.Warn().Str("username", username).Int("threshold", MaxAttempts).Msg("account blocked by login guard")
		return ErrAccountLocked
	}
	return nil
}

// countConsecutiveFailures считает неудачи от самой свежей попытки до
// первого успеха: успех в окне обнуляет накопленное.
func countConsecutiveFailures(attempts []models.LoginAttempt) int {
	count := 0
	for _, a := range attempts {
		if a.Success {
			break
		}
		count++
	}
	return count
}
