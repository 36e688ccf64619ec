package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"travelnest/internal/models"
)

// Дубликаты ловим и до INSERT (проверкой в сервисе), и на уровне БД:
// уникальные индексы users_username_key / users_email_key — последняя линия
// обороны против гонки "проверили-вставили".
var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error

	// verification
	SetVerificationCode(userID int, code string, expiresAt time.Time) error
	MarkVerified(userID int) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, username, email, COALESCE(password_hash,''), is_verified,
	google_id, verify_code, verify_code_expiration,
	created_at, updated_at
`

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, is_verified,
			google_id, verify_code, verify_code_expiration
		)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRow(q,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.GoogleID,
		user.VerifyCode,
		user.VerifyCodeExpiration,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user create: %w", mapUniqueViolation(err))
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) GetByGoogleID(googleID string) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

// getOne — nil, nil если записи нет (как GetLatestByUserID в других репо).
func (r *userRepository) getOne(q string, arg any) (*models.User, error) {
	u := &models.User{}
	var (
		googleID sql.NullString
		code     sql.NullString
		codeExp  sql.NullTime
	)
	err := r.DB.QueryRow(q, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsVerified,
		&googleID, &code, &codeExp,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get: %w", err)
	}
	if googleID.Valid {
		s := googleID.String
		u.GoogleID = &s
	}
	if code.Valid {
		s := code.String
		u.VerifyCode = &s
	}
	if codeExp.Valid {
		t := codeExp.Time
		u.VerifyCodeExpiration = &t
	}
	return u, nil
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET username = $2,
		    email = $3,
		    password_hash = NULLIF($4,''),
		    is_verified = $5,
		    google_id = $6,
		    verify_code = $7,
		    verify_code_expiration = $8,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.Exec(q,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.GoogleID,
		user.VerifyCode,
		user.VerifyCodeExpiration,
	)
	if err != nil {
		return fmt.Errorf("user update: %w", mapUniqueViolation(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(id int) error {
	if _, err := r.DB.Exec(`DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	return nil
}

// SetVerificationCode — новый код и срок: каждая переотправка
// инвалидирует предыдущий код.
func (r *userRepository) SetVerificationCode(userID int, code string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET verify_code = $2, verify_code_expiration = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, userID, code, expiresAt); err != nil {
		return fmt.Errorf("user set verification code: %w", err)
	}
	return nil
}

// MarkVerified — терминальный переход: verified=true, код очищается.
func (r *userRepository) MarkVerified(userID int) error {
	const q = `
		UPDATE users
		SET is_verified = TRUE, verify_code = NULL, verify_code_expiration = NULL, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, userID); err != nil {
		return fmt.Errorf("user mark verified: %w", err)
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_username_key":
			return ErrDuplicateUsername
		case "users_email_key":
			return ErrDuplicateEmail
		}
	}
	return err
}
