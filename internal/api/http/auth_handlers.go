package http

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/openlingo/openlingo/internal/auth"
)

// AuthHandlers serves the /auth/* surface: register, login, email
// verification, password reset and logout.
type AuthHandlers struct {
	DB       *sql.DB
	Svc      *auth.AuthService
	Sessions *auth.SessionStore
	OTPTTL   time.Duration
	ResetTTL time.Duration
	Log      *zap.Logger
}

type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname,omitempty"`
	Role     string `json:"role"`
	Points   int    `json:"points"`
	Streak   int    `json:"streak"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Fullname string `json:"fullname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	errs := map[string]string{}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if len(req.Username) < 3 || len(req.Username) > 50 {
		errs["username"] = "username must be 3-50 characters"
	}
	if !strings.Contains(req.Email, "@") {
		errs["email"] = "a valid email is required"
	}
	if len(req.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	var exists int
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT 1 FROM users WHERE username=$1 OR email=$2`, req.Username, req.Email).Scan(&exists)
	if err == nil {
		writeError(w, http.StatusConflict, "username or email already taken")
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	now := time.Now()
	otp := newOTP()
	_, err = h.DB.ExecContext(r.Context(),
		`INSERT INTO users (id,username,email,fullname,password_hash,role,active,email_verified,otp_code,otp_expires_at,otp_sent_at,created_at)
		 VALUES ($1,$2,$3,$4,$5,'user',$6,$7,$8,$9,$10,$11)`,
		uuid.NewString(), req.Username, req.Email, req.Fullname, string(hash),
		true, false, otp, now.Add(h.OTPTTL).Unix(), now.Unix(), now.Unix())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// OTP delivery is owned by the mail relay; in dev it lands in the log.
	h.Log.Info("issued verification code", zap.String("email", req.Email), zap.String("otp", otp))
	writeJSON(w, http.StatusCreated, "verification code sent", nil)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"` // username or email
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	var (
		u    userDTO
		hash string
		a, v bool
	)
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT id,username,email,fullname,role,points,streak,password_hash,active,email_verified
		 FROM users WHERE username=$1 OR email=$1`, strings.TrimSpace(req.Username)).
		Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.Role, &u.Points, &u.Streak, &hash, &a, &v)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !a {
		writeError(w, http.StatusForbidden, "account is blocked")
		return
	}
	if !v {
		writeError(w, http.StatusForbidden, "email not verified")
		return
	}

	sid, err := h.Sessions.Create(r.Context(), u.ID, h.Svc.TokenTTL())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tok, err := h.Svc.IssueJWT(auth.Claims{
		Sub: u.ID, Username: u.Username, Email: u.Email, Fullname: u.Fullname,
		Role: u.Role, SessionID: sid,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "issue token")
		return
	}
	writeJSON(w, http.StatusOK, "login successful", map[string]any{
		"access_token": tok,
		"user":         u,
	})
}

func (h *AuthHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	var code sql.NullString
	var expires sql.NullInt64
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT otp_code, otp_expires_at FROM users WHERE email=$1`, strings.ToLower(req.Email)).
		Scan(&code, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !code.Valid || code.String != req.OTP || !expires.Valid || time.Now().Unix() > expires.Int64 {
		writeError(w, http.StatusBadRequest, "invalid or expired code")
		return
	}
	_, err = h.DB.ExecContext(r.Context(),
		`UPDATE users SET email_verified=$1, otp_code=NULL, otp_expires_at=NULL WHERE email=$2`,
		true, strings.ToLower(req.Email))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, "email verified", nil)
}

func (h *AuthHandlers) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var verified bool
	var sentAt sql.NullInt64
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT email_verified, otp_sent_at FROM users WHERE email=$1`, email).Scan(&verified, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if verified {
		writeError(w, http.StatusBadRequest, "email already verified")
		return
	}
	now := time.Now()
	if sentAt.Valid && now.Unix()-sentAt.Int64 < 60 {
		writeError(w, http.StatusTooManyRequests, "wait before requesting another code")
		return
	}
	otp := newOTP()
	_, err = h.DB.ExecContext(r.Context(),
		`UPDATE users SET otp_code=$1, otp_expires_at=$2, otp_sent_at=$3 WHERE email=$4`,
		otp, now.Add(h.OTPTTL).Unix(), now.Unix(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Log.Info("reissued verification code", zap.String("email", email), zap.String("otp", otp))
	writeJSON(w, http.StatusOK, "verification code sent", nil)
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	token := uuid.NewString()
	res, err := h.DB.ExecContext(r.Context(),
		`UPDATE users SET reset_token=$1, reset_expires_at=$2 WHERE email=$3`,
		token, time.Now().Add(h.ResetTTL).Unix(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		h.Log.Info("issued reset token", zap.String("email", email), zap.String("token", token))
	}
	// same response whether or not the email exists
	writeJSON(w, http.StatusOK, "if the address is registered, a reset link was sent", nil)
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(req.Password) < 8 {
		writeFieldErrors(w, map[string]string{"password": "password must be at least 8 characters"})
		return
	}
	var userID string
	var expires sql.NullInt64
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT id, reset_expires_at FROM users WHERE reset_token=$1`, req.Token).Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !expires.Valid || time.Now().Unix() > expires.Int64 {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_, err = h.DB.ExecContext(r.Context(),
		`UPDATE users SET password_hash=$1, reset_token=NULL, reset_expires_at=NULL WHERE id=$2`,
		string(hash), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// a reset invalidates every open session
	_ = h.Sessions.RevokeAll(r.Context(), userID)
	writeJSON(w, http.StatusOK, "password updated", nil)
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.SessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.Sessions.Revoke(r.Context(), claims.SessionID); err != nil {
		h.Log.Warn("logout revoke failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.Sessions.RevokeAll(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, "all sessions revoked", nil)
}

func newOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// fall back to a fixed-width timestamp fragment
		return time.Now().Format("040506")
	}
	s := n.String()
	for len(s) < 6 {
		s = "0" + s
	}
	return s
}
