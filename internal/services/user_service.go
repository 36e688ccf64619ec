package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"travelnest/internal/models"
	"travelnest/internal/repositories"
)

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVerified = errors.New("email already verified")
	ErrCodeInvalid     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code has expired")
)

type UserService interface {
	// SignUp создаёт аккаунт. В режиме skipped аккаунт сразу verified;
	// в режиме required висит unverified до VerifyEmail, на почту уходит код.
	SignUp(username, email, password string) (*models.User, error)
	VerifyEmail(email, code string) (*models.User, error)
	ResendCode(email string) error
	GetUserByID(id int) (*models.User, error)
	VerificationRequired() bool
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
	otp          *OTPGenerator

	// режим подтверждения почты при регистрации
	requireVerification bool

	now func() time.Time
}

func NewUserService(
	repo repositories.UserRepository,
	emailService EmailService,
	authService AuthService,
	otp *OTPGenerator,
	requireVerification bool,
) UserService {
	return &userService{
		repo:                repo,
		emailService:        emailService,
		authService:         authService,
		otp:                 otp,
		requireVerification: requireVerification,
		now:                 time.Now,
	}
}

func (s *userService) VerificationRequired() bool { return s.requireVerification }

func (s *userService) SignUp(username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if s.requireVerification {
		return s.signUpWithVerification(username, email, password)
	}
	return s.signUpVerified(username, email, password)
}

// signUpVerified — активный режим: без подтверждения почты, сразу verified.
func (s *userService) signUpVerified(username, email, password string) (*models.User, error) {
	if err := s.checkUsernameFree(username); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   true,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, mapDuplicate(err)
	}

	log.Printf("[user][signup] created userID=%d verified=true", user.ID)
	return user, nil
}

// signUpWithVerification — OTP-режим: незавершённую регистрацию с тем же
// email можно переиграть (имя/пароль/код перезаписываются), завершённую — нет.
func (s *userService) signUpWithVerification(username, email, password string) (*models.User, error) {
	// имя конфликтует только с завершённой регистрацией: свою незавершённую
	// можно переиграть под тем же username
	if holder, err := s.repo.GetByUsername(username); err != nil {
		return nil, err
	} else if holder != nil && holder.IsVerified {
		return nil, ErrUsernameTaken
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsVerified {
		return nil, ErrEmailTaken
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, err
	}
	code, expiresAt := s.otp.Generate()

	var user *models.User
	if existing != nil {
		existing.Username = username
		existing.PasswordHash = hash
		existing.VerifyCode = &code
		existing.VerifyCodeExpiration = &expiresAt
		if err := s.repo.Update(existing); err != nil {
			return nil, mapDuplicate(err)
		}
		user = existing
	} else {
		user = &models.User{
			Username:             username,
			Email:                email,
			PasswordHash:         hash,
			IsVerified:           false,
			VerifyCode:           &code,
			VerifyCodeExpiration: &expiresAt,
		}
		if err := s.repo.Create(user); err != nil {
			return nil, mapDuplicate(err)
		}
	}

	if err := s.emailService.SendVerificationEmail(email, username, code); err != nil {
		// без письма код бесполезен — откатываем свежесозданный аккаунт
		log.Printf("[user][signup] send verification email failed for userID=%d: %v", user.ID, err)
		if existing == nil {
			if delErr := s.repo.Delete(user.ID); delErr != nil {
				log.Printf("[user][signup] cleanup after email failure: %v", delErr)
			}
		}
		return nil, fmt.Errorf("send verification email: %w", err)
	}

	log.Printf("[user][signup] created userID=%d verified=false code_exp=%s",
		user.ID, expiresAt.Format(time.RFC3339))
	return user, nil
}

func (s *userService) checkUsernameFree(username string) error {
	existing, err := s.repo.GetByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	return nil
}

// VerifyEmail — переход unverified -> verified. Порядок проверок совпадает
// с клиентским контрактом: not found, already verified, неверный код, истёкший.
func (s *userService) VerifyEmail(email, code string) (*models.User, error) {
	user, err := s.repo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	if user.VerifyCode == nil || *user.VerifyCode != code {
		return nil, ErrCodeInvalid
	}
	if user.VerifyCodeExpiration == nil || s.now().After(*user.VerifyCodeExpiration) {
		return nil, ErrCodeExpired
	}

	if err := s.repo.MarkVerified(user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.VerifyCode = nil
	user.VerifyCodeExpiration = nil

	log.Printf("[user][verify] userID=%d verified", user.ID)
	return user, nil
}

// ResendCode всегда выдаёт новый код: старый после этого недействителен.
func (s *userService) ResendCode(email string) error {
	user, err := s.repo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	code, expiresAt := s.otp.Generate()
	if err := s.repo.SetVerificationCode(user.ID, code, expiresAt); err != nil {
		return err
	}

	if err := s.emailService.SendVerificationEmail(user.Email, user.Username, code); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	log.Printf("[user][resend] userID=%d new code issued exp=%s", user.ID, expiresAt.Format(time.RFC3339))
	return nil
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

// mapDuplicate — гонку "проверили-вставили" проигравший видит как 409, не 500.
func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return ErrEmailTaken
	}
	return err
}
