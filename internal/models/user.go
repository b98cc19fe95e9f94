package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusInactive  UserStatus = "INACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
	StatusPending   UserStatus = "PENDING"
	StatusBlocked   UserStatus = "BLOCKED"
	StatusDeleted   UserStatus = "DELETED"
)

// Ошибки отказа в логине по статусу аккаунта.
var (
	ErrAccountInactive  = errors.New("account is dormant")
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountPending   = errors.New("account email is not confirmed")
	ErrAccountBlocked   = errors.New("account is blocked by administrator")
	ErrAccountDeleted   = errors.New("account is deleted")
)

// statusLoginRejections задаёт единую таблицу статус -> отказ, чтобы
// решение о допуске к логину не расползалось по сервисам.
var statusLoginRejections = map[UserStatus]error{
	StatusInactive:  ErrAccountInactive,
	StatusSuspended: ErrAccountSuspended,
	StatusPending:   ErrAccountPending,
	StatusBlocked:   ErrAccountBlocked,
	StatusDeleted:   ErrAccountDeleted,
}

// roleLoginReasons задаёт причину успешного логина для журнала попыток.
var roleLoginReasons = map[UserRole]string{
	RoleAdmin: "login - administrator",
	RoleUser:  "login - user",
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string     `gorm:"uniqueIndex;size:50;not null"`
	Email        string     `gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string     `gorm:"not null"`
	Nickname     string     `gorm:"size:50;uniqueIndex:idx_users_nickname,where:nickname <> ''"`
	Role         UserRole   `gorm:"size:20;not null"`
	Status       UserStatus `gorm:"size:20;not null"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoginRejection возвращает причину отказа для текущего статуса
// или nil, если аккаунт допущен к аутентификации.
func (u *User) LoginRejection() error {
	if u.Status == StatusActive {
		return nil
	}
	if err, ok := statusLoginRejections[u.Status]; ok {
		return err
	}
	return ErrAccountBlocked
}

// LoginSuccessReason возвращает строку для записи успешной попытки в журнал.
func (u *User) LoginSuccessReason() string {
	if reason, ok := roleLoginReasons[u.Role]; ok {
		return reason
	}
	return "login"
}

// DisplayName возвращает имя, под которым пользователь виден в чате.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Block переводит аккаунт в BLOCKED. Вызывается только из guard.
func (u *User) Block() {
	u.Status = StatusBlocked
}

// MarkDeleted выполняет мягкое удаление: запись остаётся, статус меняется.
func (u *User) MarkDeleted() {
	u.Status = StatusDeleted
}

// TouchLastLogin обновляет время последнего входа.
func (u *User) TouchLastLogin(now time.Time) {
	u.LastLogin = &now
}
