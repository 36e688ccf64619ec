package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"travelnest/internal/models"
	"travelnest/internal/repositories"
)

// Единый ответ и для "нет такого пользователя", и для "неверный пароль":
// наружу различие не отдаём, чтобы нельзя было перебирать юзернеймы.
var ErrInvalidCredentials = errors.New("invalid username or password")

const bcryptCost = 12

type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) error
}

type authService struct {
	cost int
}

func NewAuthService() AuthService {
	return &authService{cost: bcryptCost}
}

func (s *authService) HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}
	return string(h), nil
}

func (s *authService) CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// Credentials — вход для стратегии аутентификации.
// Для local заполняются Username/Password, для OAuth — Provider/Subject/Email/Name.
type Credentials struct {
	Username string
	Password string

	Provider string
	Subject  string // стабильный id пользователя у провайдера
	Email    string
	Name     string
}

// AuthStrategy — взаимозаменяемый способ проверки личности.
// Выбирается эндпоинтом, а не инспекцией типов в рантайме.
type AuthStrategy interface {
	Authenticate(creds Credentials) (*models.User, error)
}

// --- local: username + password против хранилища ---

type LocalStrategy struct {
	repo repositories.UserRepository
	auth AuthService
}

func NewLocalStrategy(repo repositories.UserRepository, auth AuthService) *LocalStrategy {
	return &LocalStrategy{repo: repo, auth: auth}
}

func (s *LocalStrategy) Authenticate(creds Credentials) (*models.User, error) {
	username := strings.TrimSpace(creds.Username)

	user, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("local auth lookup: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ph := strings.TrimSpace(user.PasswordHash)
	if ph == "" {
		// OAuth-аккаунт без пароля — логин паролем невозможен
		log.Printf("[auth][local] empty password_hash for userID=%d", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := s.auth.CheckPassword(ph, creds.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// --- google: маппинг профиля провайдера на аккаунт ---

type GoogleStrategy struct {
	repo repositories.UserRepository
}

func NewGoogleStrategy(repo repositories.UserRepository) *GoogleStrategy {
	return &GoogleStrategy{repo: repo}
}

// Authenticate находит аккаунт по google_id, затем по email (привязывая
// google_id), и только потом создаёт новый. Провайдер уже доказал владение
// почтой, поэтому аккаунт сразу verified.
func (s *GoogleStrategy) Authenticate(creds Credentials) (*models.User, error) {
	if creds.Subject == "" || creds.Email == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByGoogleID(creds.Subject)
	if err != nil {
		return nil, fmt.Errorf("google auth lookup: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.repo.GetByEmail(creds.Email)
	if err != nil {
		return nil, fmt.Errorf("google auth lookup by email: %w", err)
	}
	if user != nil {
		sub := creds.Subject
		user.GoogleID = &sub
		user.IsVerified = true
		user.VerifyCode = nil
		user.VerifyCodeExpiration = nil
		if err := s.repo.Update(user); err != nil {
			return nil, fmt.Errorf("google auth link: %w", err)
		}
		log.Printf("[auth][google] linked google_id to userID=%d", user.ID)
		return user, nil
	}

	sub := creds.Subject
	user = &models.User{
		Username:   s.pickUsername(creds),
		Email:      creds.Email,
		IsVerified: true,
		GoogleID:   &sub,
	}
	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			// имя занято — добавляем числовой суффикс и пробуем ещё раз
			user.Username = fmt.Sprintf("%s%04d", user.Username, rand.Intn(10000))
			err = s.repo.Create(user)
		}
		if err != nil {
			return nil, fmt.Errorf("google auth create: %w", err)
		}
	}
	log.Printf("[auth][google] created userID=%d", user.ID)
	return user, nil
}

func (s *GoogleStrategy) pickUsername(creds Credentials) string {
	name := strings.TrimSpace(creds.Name)
	if name != "" {
		return name
	}
	// запасной вариант: локальная часть адреса
	if at := strings.IndexByte(creds.Email, '@'); at > 0 {
		return creds.Email[:at]
	}
	return creds.Email
}
