package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/mail"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// Messages returned by the auth flows.
const (
	msgInvalidCredentials = "Invalid credentials, try again."
	msgNotVerified        = "Email is not verified."
	msgDisabled           = "Account is disabled."
	msgRefreshInvalid     = "Token is expired or invalid."
	msgTokenExpired       = "Token expired."
	msgTokenInvalid       = "Invalid token."
	msgResetInvalid       = "Token is not valid or expired."
	msgNotRegistered      = "You are not a registered user"
	msgPasswordMismatch   = "Password fields didn't match."
	msgVerifySendFailed   = "Error while sending verification email."
	msgResetSendFailed    = "Error while sending password reset email."
)

// AuthConfig holds the token lifetimes and password settings.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
	BcryptCost int
	Policy     utils.PasswordPolicy
	BaseURL    string // prefix for links in emails, no trailing slash
}

// NewAuthConfig derives the auth settings from the application config.
func NewAuthConfig(c config.Config) AuthConfig {
	return AuthConfig{
		Secret:     c.JWTSecret,
		AccessTTL:  time.Duration(c.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(c.RefreshTTLDays) * 24 * time.Hour,
		VerifyTTL:  time.Duration(c.VerifyTTLMin) * time.Minute,
		ResetTTL:   time.Duration(c.ResetTTLMin) * time.Minute,
		BcryptCost: c.BcryptCost,
		Policy:     utils.PasswordPolicy{MinLength: c.PasswordMinLen},
		BaseURL:    c.PublicBaseURL,
	}
}

// AuthService implements registration, email verification, sessions and
// password management.
type AuthService struct {
	cfg    AuthConfig
	users  UserStore
	tokens TokenStore
	mailer mail.Sender
	reset  utils.ResetTokens
	log    *zap.Logger
}

func NewAuthService(cfg AuthConfig, users UserStore, tokens TokenStore, mailer mail.Sender, log *zap.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		users:  users,
		tokens: tokens,
		mailer: mailer,
		reset:  utils.ResetTokens{Secret: cfg.Secret, TTL: cfg.ResetTTL},
		log:    log,
	}
}

// TokenPair is returned on registration and login.
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Session is an authenticated user with a fresh token pair.
type Session struct {
	User   model.User
	Tokens TokenPair
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,alphanum,max=50"`
	Name      string `json:"name" validate:"max=100"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

type PasswordInput struct {
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

type emailInput struct {
	Email string `json:"email" validate:"required,email"`
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[:i] + strings.ToLower(email[i:])
	}
	return email
}

// Register creates an unverified user, issues a token pair and sends the
// verification email.  A delivery failure is reported as ErrDelivery; the
// user stays and can ask for the mail again with ResendVerification.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	fields := fieldErrors{}
	fields.merge(Validate(in))
	if _, ok := fields["email"]; !ok {
		if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
			fields.add("email", "user with this email already exists.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return Session{}, err
		}
	}
	if _, ok := fields["username"]; !ok {
		if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
			fields.add("username", "user with this username already exists.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return Session{}, err
		}
	}
	s.checkPasswords(fields, in.Password, in.Password2, in.Username, in.Email)
	if err := fields.err(); err != nil {
		return Session{}, err
	}

	u := model.User{Email: in.Email, Username: in.Username, Name: strings.TrimSpace(in.Name), IsActive: true}
	if err := s.createUser(ctx, &u, in.Password); err != nil {
		return Session{}, err
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.sendVerification(ctx, u); err != nil {
		return Session{User: u, Tokens: pair}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

// CreateSuperuser creates a verified administrator.  The password policy
// applies as on registration.
func (s *AuthService) CreateSuperuser(ctx context.Context, email, username, password string) (model.User, error) {
	in := RegisterInput{Email: NormalizeEmail(email), Username: strings.TrimSpace(username), Password: password, Password2: password}
	fields := fieldErrors{}
	fields.merge(Validate(in))
	s.checkPasswords(fields, in.Password, in.Password2, in.Username, in.Email)
	if err := fields.err(); err != nil {
		return model.User{}, err
	}
	u := model.User{Email: in.Email, Username: in.Username, IsVerified: true, IsActive: true, IsAdmin: true}
	if err := s.createUser(ctx, &u, password); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *AuthService) createUser(ctx context.Context, u *model.User, password string) error {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	err = s.users.Create(ctx, u)
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return &ValidationError{Fields: map[string]string{"username": "user with this username already exists."}}
	case errors.Is(err, repository.ErrDuplicate):
		return &ValidationError{Fields: map[string]string{"email": "user with this email already exists."}}
	}
	return err
}

// checkPasswords adds mismatch and policy failures under "password".
func (s *AuthService) checkPasswords(fields fieldErrors, password, password2 string, attrs ...string) {
	if _, ok := fields["password"]; ok {
		return
	}
	if password != password2 {
		fields.add("password", msgPasswordMismatch)
		return
	}
	if problems := s.cfg.Policy.Check(password, attrs...); len(problems) > 0 {
		fields.add("password", strings.Join(problems, " "))
	}
}

// ResendVerification mails a new verification link.  It reports true when
// the account is already verified and nothing was sent.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (bool, error) {
	in := emailInput{Email: NormalizeEmail(email)}
	if err := Validate(in); err != nil {
		return false, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, &ValidationError{Fields: map[string]string{"email": msgNotRegistered}}
	}
	if err != nil {
		return false, err
	}
	if u.IsVerified {
		return true, nil
	}
	return false, s.sendVerification(ctx, u)
}

func (s *AuthService) sendVerification(ctx context.Context, u model.User) error {
	tok, err := utils.NewEmailVerifyToken(s.cfg.Secret, u.ID, s.cfg.VerifyTTL)
	if err != nil {
		return err
	}
	link := s.cfg.BaseURL + "/email-verify/?token=" + url.QueryEscape(tok.Token)
	if err := s.mailer.Send(ctx, mail.VerificationMessage(u.Email, u.Username, link)); err != nil {
		s.log.Warn("verification email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		return delivery(msgVerifySendFailed)
	}
	return nil
}

// VerifyEmail marks the token's user verified.  It reports true when the
// user had already been verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	id, err := utils.ParseToken(s.cfg.Secret, utils.PurposeEmailVerify, token)
	if errors.Is(err, utils.ErrTokenExpired) {
		return false, badToken(msgTokenExpired)
	}
	if err != nil {
		return false, badToken(msgTokenInvalid)
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, badToken(msgTokenInvalid)
	}
	if err != nil {
		return false, err
	}
	if u.IsVerified {
		return true, nil
	}
	changed, err := s.users.MarkVerified(ctx, id)
	if err != nil {
		return false, err
	}
	return !changed, nil
}

// Login checks credentials and account state and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, unauthorized(msgInvalidCredentials)
	}
	if !u.IsActive {
		return Session{}, unauthorized(msgDisabled)
	}
	if !u.IsVerified {
		return Session{}, unauthorized(msgNotVerified)
	}
	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

func (s *AuthService) issuePair(ctx context.Context, userID uint64) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.Secret, userID, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Refresh: refresh.Raw, Access: access.Token}, nil
}

// Logout blacklists one refresh token of the calling user.
func (s *AuthService) Logout(ctx context.Context, userID uint64, refresh string) error {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return badToken(msgRefreshInvalid)
	}
	hash := utils.HashRefreshRaw(refresh)
	owner, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return badToken(msgRefreshInvalid)
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return badToken(msgRefreshInvalid)
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return badToken(msgRefreshInvalid)
		}
		return err
	}
	return nil
}

// RefreshAccess exchanges a live refresh token for a new access token.
// The refresh token is not rotated.
func (s *AuthService) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return "", unauthorized(msgRefreshInvalid)
	}
	userID, err := s.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(refresh))
	if errors.Is(err, repository.ErrNotFound) {
		return "", unauthorized(msgRefreshInvalid)
	}
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		return "", unauthorized(msgRefreshInvalid)
	}
	if err != nil {
		return "", err
	}
	access, err := utils.NewAccessToken(s.cfg.Secret, userID, s.cfg.AccessTTL)
	if err != nil {
		return "", err
	}
	return access.Token, nil
}

// Profile returns the calling user.
func (s *AuthService) Profile(ctx context.Context, userID uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, unauthorized("user not found.")
	}
	return u, err
}

// ChangePassword sets a new password for the calling user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, in PasswordInput) error {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	fields := fieldErrors{}
	fields.merge(Validate(in))
	s.checkPasswords(fields, in.Password, in.Password2, u.Username, u.Email)
	if err := fields.err(); err != nil {
		return err
	}
	return s.setPassword(ctx, u.ID, in.Password)
}

func (s *AuthService) setPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// RequestPasswordReset mails a reset link to a registered address.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	in := emailInput{Email: NormalizeEmail(email)}
	if err := Validate(in); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return &ValidationError{Fields: map[string]string{"email": msgNotRegistered}}
	}
	if err != nil {
		return err
	}
	link := s.cfg.BaseURL + "/password-reset/" + utils.EncodeUID(u.ID) + "/" + s.reset.Make(u.ID, u.PasswordHash) + "/"
	if err := s.mailer.Send(ctx, mail.PasswordResetMessage(u.Email, link)); err != nil {
		s.log.Warn("password reset email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		return delivery(msgResetSendFailed)
	}
	return nil
}

// ResetPassword sets a new password using an emailed reset link and logs
// the user out everywhere.  The link stops working once it has been used
// because the token is bound to the previous password hash.
func (s *AuthService) ResetPassword(ctx context.Context, uidb64, token string, in PasswordInput) error {
	fields := fieldErrors{}
	fields.merge(Validate(in))
	if _, ok := fields["password"]; !ok && in.Password != in.Password2 {
		fields.add("password", msgPasswordMismatch)
	}
	if err := fields.err(); err != nil {
		return err
	}

	id, ok := utils.DecodeUID(uidb64)
	if !ok {
		return badToken(msgResetInvalid)
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return badToken(msgResetInvalid)
	}
	if err != nil {
		return err
	}
	if !s.reset.Check(u.ID, u.PasswordHash, token) {
		return badToken(msgResetInvalid)
	}

	s.checkPasswords(fields, in.Password, in.Password2, u.Username, u.Email)
	if err := fields.err(); err != nil {
		return err
	}
	if err := s.setPassword(ctx, u.ID, in.Password); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, u.ID)
}
