package dto

import "time"

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Nickname string `json:"nickname" binding:"max=50"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse включает причину успеха (зависит от роли) и время
// предыдущего входа.
type LoginResponse struct {
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	AccessToken string     `json:"accessToken"`
	Message     string     `json:"message"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}
