package models

import (
	"errors"
	"regexp"
	"time"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Validate() error {
	if !usernameRe.MatchString(u.Username) {
		return errors.New("username must be 3-32 characters of letters, numbers, underscore or hyphen")
	}
	return nil
}
