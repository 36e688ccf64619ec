package models

import "time"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу
	IsVerified   bool   `json:"isVerified"`

	// идентификатор у Google, если аккаунт привязан через OAuth
	GoogleID *string `json:"-"`

	// код подтверждения почты: оба поля либо заданы, либо пусты
	VerifyCode           *string    `json:"-"`
	VerifyCodeExpiration *time.Time `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// PublicUser — представление пользователя для клиента (ответы sign-up/login).
type PublicUser struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
	}
}

type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

type ResendCodeRequest struct {
	Email string `json:"email"`
}
