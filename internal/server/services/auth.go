// Package services contains server-side business logic. This file implements
// AuthService, the account and session state machine: registration, email
// verification, login with an optional TOTP challenge, password reset and
// logout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/dbx"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/dmitrijs2005/sitekeeper/internal/server/auth"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/dmitrijs2005/sitekeeper/internal/server/mail"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
	"github.com/dmitrijs2005/sitekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
	sessionTokenSize  = 32
)

// ForgotPasswordMessage is shown for every forgot-password request.
const ForgotPasswordMessage = "If an account with that email exists, a message has been sent to it."

// VerifyResult tells a successful verification from a repeated one.
type VerifyResult int

const (
	VerifyResultVerified VerifyResult = iota
	VerifyResultAlreadyVerified
)

type RegisterInput struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Identity is the owner of a live session. A pending session identifies the
// user but does not authenticate them.
type Identity struct {
	User    *models.User
	Session *models.Session
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.Session != nil && !i.Session.TwoFAPending
}

func (i *Identity) TwoFAPending() bool {
	return i != nil && i.Session != nil && i.Session.TwoFAPending
}

// LoginResult carries the opaque cookie token of a newly created session.
type LoginResult struct {
	Identity
	Token string
}

type TwoFASetup struct {
	Secret string
	URI    string
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      *auth.TokenSigner
	mailer      mail.Mailer
	log         logging.Logger

	baseURL            string
	sessionLifetime    time.Duration
	verificationMaxAge time.Duration
	resetMaxAge        time.Duration
	totpIssuer         string

	now func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:                 db,
		repomanager:        m,
		signer:             auth.NewTokenSigner(cfg.SecretKey),
		mailer:             mailer,
		log:                log.With("module", "auth"),
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		sessionLifetime:    cfg.SessionLifetime,
		verificationMaxAge: cfg.VerificationTokenMaxAge,
		resetMaxAge:        cfg.ResetTokenMaxAge,
		totpIssuer:         cfg.TOTPIssuer,
		now:                time.Now,
	}
}

// SetClock replaces the time source for sessions, tokens and TOTP checks.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
	s.signer = s.signer.WithClock(now)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return common.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if password != confirm {
		return common.NewValidationError("confirm_password", "passwords do not match")
	}
	return nil
}

// newAccount validates in, checks that the username and email are free and
// returns the unsaved user with its password hash.
func (s *AuthService) newAccount(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if utf8.RuneCountInString(username) < minUsernameLength {
		return nil, common.NewValidationError("username", fmt.Sprintf("must be at least %d characters", minUsernameLength))
	}
	if !strings.Contains(email, "@") {
		return nil, common.NewValidationError("email", "must be a valid email address")
	}
	if err := validatePassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username is already taken", common.ErrConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storeErr("lookup username", err)
	}
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email is already registered", common.ErrConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storeErr("lookup email", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &models.User{Username: username, Email: email, PasswordHash: hash}, nil
}

// Register creates an unverified account and mails a verification link.
// When only the mail fails, the user is returned together with an error
// matching common.ErrDeliveryFailure.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	account, err := s.newAccount(ctx, in)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, account)
	if err != nil {
		return nil, storeErr("create user", err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Warn(ctx, "verification mail failed", "user_id", user.ID, "error", err)
		return user, err
	}
	return user, nil
}

// CreateOperator creates an account that is already verified. It backs the
// admin CLI and sends no mail.
func (s *AuthService) CreateOperator(ctx context.Context, in RegisterInput) (*models.User, error) {
	account, err := s.newAccount(ctx, in)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		created, err := repo.Create(ctx, account)
		if err != nil {
			return err
		}
		if err := repo.MarkEmailVerified(ctx, created.ID); err != nil {
			return err
		}
		created.EmailVerified = true
		user = created
		return nil
	})
	if err != nil {
		return nil, storeErr("create operator", err)
	}
	s.log.Info(ctx, "operator created", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User) error {
	token, err := s.signer.Issue(user.Email, common.PurposeEmailVerification)
	if err != nil {
		return common.ErrorInternal
	}
	return deliveryErr(s.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		Subject: "Confirm your email address",
		Body: fmt.Sprintf("Hello %s,\n\nOpen this link to confirm your email address:\n%s\n\nThe link expires in %s.\n",
			user.Username, s.link("/verify-email", token), s.verificationMaxAge),
	}))
}

func (s *AuthService) sendReset(ctx context.Context, user *models.User) error {
	token, err := s.signer.Issue(user.Email, common.PurposePasswordReset)
	if err != nil {
		return common.ErrorInternal
	}
	return deliveryErr(s.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hello %s,\n\nOpen this link to choose a new password:\n%s\n\nThe link expires in %s. If you did not ask for it, ignore this message.\n",
			user.Username, s.link("/reset-password", token), s.resetMaxAge),
	}))
}

// VerifyEmail consumes a verification token. A repeated verification is
// reported as VerifyResultAlreadyVerified, not as an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (VerifyResult, error) {
	email, err := s.signer.Consume(token, common.PurposeEmailVerification, s.verificationMaxAge)
	if err != nil {
		return 0, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return 0, storeErr("lookup user", err)
	}
	if user.EmailVerified {
		return VerifyResultAlreadyVerified, nil
	}
	if err := repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return 0, storeErr("mark verified", err)
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return VerifyResultVerified, nil
}

// ResendVerification mails a fresh token to an unverified account. The
// result does not reveal whether the account exists.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return storeErr("lookup user", err)
	}
	if user.EmailVerified {
		return nil
	}
	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Warn(ctx, "verification mail failed", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *AuthService) lookupLogin(ctx context.Context, identifier string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return repo.GetByEmail(ctx, normalizeEmail(identifier))
	}
	return repo.GetByUsername(ctx, identifier)
}

// Login checks credentials. With 2FA enabled the returned session is
// pending and must be completed with CompleteTwoFactor.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.lookupLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storeErr("lookup user", err)
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	pending := user.TwoFAEnabled
	res, err := s.createSession(ctx, s.db, user, pending)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "login", "user_id", user.ID, "two_fa_pending", pending)
	return res, nil
}

func (s *AuthService) createSession(ctx context.Context, db dbx.DBTX, user *models.User, pending bool) (*LoginResult, error) {
	token, err := common.MakeRandHexString(sessionTokenSize)
	if err != nil {
		return nil, common.ErrorInternal
	}
	session := &models.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		TokenHash:    common.HashToken(token),
		TwoFAPending: pending,
		ExpiresAt:    s.now().Add(s.sessionLifetime),
	}
	if err := s.repomanager.Sessions(db).Create(ctx, session); err != nil {
		return nil, storeErr("create session", err)
	}
	return &LoginResult{Identity: Identity{User: user, Session: session}, Token: token}, nil
}

// Authenticate resolves a cookie token to its live session. Missing and
// expired sessions yield common.ErrorUnauthorized; expired rows are removed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	sessions := s.repomanager.Sessions(s.db)
	session, err := sessions.GetByTokenHash(ctx, common.HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storeErr("lookup session", err)
	}
	if session.Expired(s.now()) {
		if err := sessions.Delete(ctx, session.ID); err != nil {
			s.log.Warn(ctx, "expired session cleanup failed", "error", err)
		}
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storeErr("lookup user", err)
	}
	return &Identity{User: user, Session: session}, nil
}

// CompleteTwoFactor answers the TOTP challenge of a pending session. A
// correct code replaces the pending session with an authenticated one; a
// wrong code leaves it in place.
func (s *AuthService) CompleteTwoFactor(ctx context.Context, token, code string) (*LoginResult, error) {
	id, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !id.TwoFAPending() {
		return nil, common.ErrorUnauthorized
	}
	if !id.User.TwoFAEnabled || !id.User.HasTwoFASecret() {
		return nil, common.ErrTwoFANotEnabled
	}
	if !auth.VerifyTOTP(*id.User.TwoFASecret, strings.TrimSpace(code), s.now(), auth.DefaultTOTPSkew) {
		s.log.Info(ctx, "two-factor code rejected", "user_id", id.User.ID)
		return nil, common.ErrInvalidTOTP
	}

	var res *LoginResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).Delete(ctx, id.Session.ID); err != nil {
			return err
		}
		var createErr error
		res, createErr = s.createSession(ctx, tx, id.User, false)
		return createErr
	})
	if err != nil {
		return nil, storeErr("rotate session", err)
	}
	s.log.Info(ctx, "two-factor login completed", "user_id", id.User.ID)
	return res, nil
}

// BeginTwoFASetup returns the user's TOTP secret, creating one if needed.
// 2FA stays disabled until ConfirmTwoFASetup succeeds.
func (s *AuthService) BeginTwoFASetup(ctx context.Context, userID int64) (*TwoFASetup, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("lookup user", err)
	}
	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	var secret string
	if user.HasTwoFASecret() {
		secret = *user.TwoFASecret
	} else {
		secret, err = auth.GenerateTOTPSecret()
		if err != nil {
			return nil, common.ErrorInternal
		}
		if err := repo.SetTwoFASecret(ctx, user.ID, secret); err != nil {
			return nil, storeErr("store secret", err)
		}
	}

	uri, err := auth.ProvisioningURI(secret, user.Email, s.totpIssuer)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TwoFASetup{Secret: secret, URI: uri}, nil
}

// ConfirmTwoFASetup enables 2FA once the user proves possession of the secret.
func (s *AuthService) ConfirmTwoFASetup(ctx context.Context, userID int64, code string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return storeErr("lookup user", err)
	}
	if !user.EmailVerified {
		return common.ErrEmailNotVerified
	}
	if !user.HasTwoFASecret() {
		return fmt.Errorf("%w: setup has not been started", common.ErrTwoFANotEnabled)
	}
	if !auth.VerifyTOTP(*user.TwoFASecret, strings.TrimSpace(code), s.now(), auth.DefaultTOTPSkew) {
		return common.ErrInvalidTOTP
	}
	if err := repo.EnableTwoFA(ctx, user.ID); err != nil {
		return storeErr("enable 2fa", err)
	}
	s.log.Info(ctx, "two-factor enabled", "user_id", user.ID)
	return nil
}

// DisableTwoFA clears the flag and the secret.
func (s *AuthService) DisableTwoFA(ctx context.Context, userID int64) error {
	if err := s.repomanager.Users(s.db).DisableTwoFA(ctx, userID); err != nil {
		return storeErr("disable 2fa", err)
	}
	s.log.Info(ctx, "two-factor disabled", "user_id", userID)
	return nil
}

// ForgotPassword mails a reset link to a verified account, or a fresh
// verification link to an unverified one. The outcome is the same for
// unknown addresses; callers show ForgotPasswordMessage either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return storeErr("lookup user", err)
	}

	if user.EmailVerified {
		err = s.sendReset(ctx, user)
	} else {
		err = s.sendVerification(ctx, user)
	}
	if err != nil {
		s.log.Warn(ctx, "forgot-password mail failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password from a reset token and revokes every
// session of the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	email, err := s.signer.Consume(token, common.PurposePasswordReset, s.resetMaxAge)
	if err != nil {
		return err
	}
	if err := validatePassword(password, confirm); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return storeErr("lookup user", err)
	}
	if !user.EmailVerified {
		return common.ErrEmailNotVerified
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.repomanager.Sessions(tx).DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return storeErr("reset password", err)
	}
	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// Logout removes the session behind token, if any.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessions := s.repomanager.Sessions(s.db)
	session, err := sessions.GetByTokenHash(ctx, common.HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return storeErr("lookup session", err)
	}
	if err := sessions.Delete(ctx, session.ID); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}
