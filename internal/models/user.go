package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	College      string    `json:"college"`
	Role         string    `json:"role"`
	Github       string    `json:"github"`
	Linkedin     string    `json:"linkedin"`
	Profile      string    `json:"profile"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterInput — данные регистрации до валидации.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	College  string
	Role     string
}

// AccountSummary — то, что отдаётся клиенту после логина.
type AccountSummary struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type LoginResult struct {
	Account AccountSummary
	Token   string
}

func (u *User) Summary() AccountSummary {
	return AccountSummary{Username: u.Username, Email: u.Email, Role: u.Role}
}
