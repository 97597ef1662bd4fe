package client

import (
	"context"
	"net/http"
	"net/url"
)

// AccountRecord is the admin view of a user account.
type AccountRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname,omitempty"`
	Role     string `json:"role"`
	Points   int    `json:"points"`
	Streak   int    `json:"streak"`
}

func (c *Client) ListUsers(ctx context.Context, role string) ([]AccountRecord, error) {
	path := "/users"
	if role != "" {
		path += "?role=" + url.QueryEscape(role)
	}
	res, err := do[[]AccountRecord](c, ctx, http.MethodGet, path, nil)
	return res.Data, err
}

func (c *Client) GetUser(ctx context.Context, id string) (AccountRecord, error) {
	res, err := do[AccountRecord](c, ctx, http.MethodGet, "/users/"+id, nil)
	return res.Data, err
}

// UpdateUser sends only the fields that are set; nil pointers leave the
// server-side value alone.
func (c *Client) UpdateUser(ctx context.Context, id string, fullname, role *string) (AccountRecord, error) {
	body := map[string]*string{"fullname": fullname, "role": role}
	res, err := do[AccountRecord](c, ctx, http.MethodPut, "/users/"+id, body)
	return res.Data, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodDelete, "/users/"+id, nil)
	return err
}

func (c *Client) BlockUser(ctx context.Context, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/users/"+id+"/block", nil)
	return err
}

func (c *Client) UnblockUser(ctx context.Context, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/users/"+id+"/unblock", nil)
	return err
}

func (c *Client) AddUserPoints(ctx context.Context, id string, points int) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/users/"+id+"/points",
		map[string]int{"points": points})
	return err
}

func (c *Client) ResetUserStreak(ctx context.Context, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/users/"+id+"/reset-streak", nil)
	return err
}
