package models

import "time"

// ResetCode — одноразовый код сброса пароля, живёт только в кэше.
type ResetCode struct {
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

func (c *ResetCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
