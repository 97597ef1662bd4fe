package client

import (
	"context"
	"net/http"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname,omitempty"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/register", req)
	return err
}

// Login authenticates and stores the returned token and user in the session.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	res, err := do[LoginResult](c, ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if err := c.sess.SetSession(res.Data.AccessToken, res.Data.User); err != nil {
		return LoginResult{}, err
	}
	return res.Data, nil
}

func (c *Client) VerifyEmail(ctx context.Context, email, otp string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/verify-email", map[string]string{
		"email": email, "otp": otp,
	})
	return err
}

func (c *Client) ResendOTP(ctx context.Context, email string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/resend-otp", map[string]string{"email": email})
	return err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
	return err
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"token": token, "password": password,
	})
	return err
}

// Logout clears the session; the server call is best-effort. Returns the
// login route to navigate to.
func (c *Client) Logout(ctx context.Context) string {
	return c.sess.Logout(ctx)
}

func (c *Client) LogoutAll(ctx context.Context) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/auth/logout-all", nil)
	return err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := do[struct{}](c, ctx, http.MethodPost, "/users/change-password", map[string]string{
		"old_password": oldPassword, "new_password": newPassword,
	})
	return err
}
