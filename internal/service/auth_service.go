package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"peertutor/internal/cache"
	"peertutor/internal/mailer"
	"peertutor/internal/models"
	"peertutor/internal/store"
	"peertutor/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	store    *store.Store
	kv       cache.KV
	mail     mailer.Mailer
	otpTTL   time.Duration
	hashCost int
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     models.UserRole
}

func NewAuthService(s *store.Store, kv cache.KV, m mailer.Mailer, otpTTL time.Duration) *AuthService {
	return &AuthService{store: s, kv: kv, mail: m, otpTTL: otpTTL, hashCost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	callLog.LogServiceCall(ctx, "auth", "register", map[string]any{"role": in.Role})

	email := normalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	if !in.Role.Valid() {
		return models.User{}, models.NewValidationError("role must be tutor or tutee")
	}

	// RegisterAccount repeats this check under the store lock.
	if _, exists := s.store.FindUserCredentials(email); exists {
		return models.User{}, models.NewConflictError("An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.User{}, models.NewInternalError(err)
	}

	base := models.User{Email: email, Name: strings.TrimSpace(in.Name), Role: in.Role}
	var account models.Account
	if in.Role == models.RoleTutor {
		account = models.TutorProfile{
			User:           base,
			Subjects:       []models.Subject{},
			Qualifications: []string{},
			Availability:   []models.Availability{},
		}
	} else {
		account = models.TuteeProfile{User: base, Interests: []models.Subject{}}
	}

	return s.store.RegisterAccount(account, email, string(hash))
}

// Login checks the password and returns the account. Both the credential
// and the user record must exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	callLog.LogServiceCall(ctx, "auth", "login", nil)

	invalid := models.NewUnauthorizedError("Invalid email or password")
	cred, ok := s.store.FindUserCredentials(normalizeEmail(email))
	if !ok {
		return models.User{}, invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(password)) != nil {
		return models.User{}, invalid
	}
	user, ok := s.store.FindUserByID(cred.UserID)
	if !ok {
		return models.User{}, invalid
	}
	return user, nil
}

// ForgotPassword issues a six digit code for email and mails it.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	callLog.LogServiceCall(ctx, "auth", "forgot_password", nil)

	user, ok := s.store.FindUserByEmail(email)
	if !ok {
		return models.NewNotFoundError("Account", email)
	}

	code, err := generateOTP()
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.kv.Set(ctx, cache.OTPKey(email), code, s.otpTTL); err != nil {
		return models.NewInternalError(fmt.Errorf("store otp: %w", err))
	}
	sendMail(ctx, s.mail, mailer.OTPMail(user.Email, code, s.otpTTL))
	return nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (bool, error) {
	stored, err := s.kv.Get(ctx, cache.OTPKey(normalizeEmail(email)))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(otp))) == 1, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, otp, password string) error {
	email = normalizeEmail(email)
	callLog.LogServiceCall(ctx, "auth", "reset_password", nil)

	valid, err := s.VerifyOTP(ctx, email, otp)
	if err != nil {
		return err
	}
	if !valid {
		return models.NewValidationError("Invalid or expired verification code")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !s.store.UpdateUserCredentials(email, string(hash)) {
		return models.NewNotFoundError("Account", email)
	}
	if err := s.kv.Del(ctx, cache.OTPKey(email)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
