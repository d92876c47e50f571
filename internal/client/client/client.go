package client

import (
	"context"
	"time"
)

// Profile is the identity returned by the server for a token holder.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Client interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) error
	CurrentUser(ctx context.Context) (*Profile, error)
	Ping(ctx context.Context) error
	Logout()
	Token() string
	SetToken(token string)
}
