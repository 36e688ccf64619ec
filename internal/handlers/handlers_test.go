package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelnest/internal/handlers"
	"travelnest/internal/middleware"
	"travelnest/internal/models"
	"travelnest/internal/repositories"
	"travelnest/internal/routes"
	"travelnest/internal/services"
	"travelnest/internal/sessions"
)

// --- fakes (репозиторий в памяти + почта-рекордер) ---

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (f *fakeUserRepo) Create(u *models.User) error {
	for _, e := range f.users {
		if e.Username == u.Username {
			return repositories.ErrDuplicateUsername
		}
		if e.Email == u.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(id int) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByGoogleID(googleID string) (*models.User, error) {
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(u *models.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return errors.New("no such user")
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(id int) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) SetVerificationCode(userID int, code string, expiresAt time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.VerifyCode = &code
	u.VerifyCodeExpiration = &expiresAt
	return nil
}

func (f *fakeUserRepo) MarkVerified(userID int) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.IsVerified = true
	u.VerifyCode = nil
	u.VerifyCodeExpiration = nil
	return nil
}

type fakeEmailService struct {
	codes   []string
	sendErr error
}

func (f *fakeEmailService) SendVerificationEmail(email, username, code string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeEmailService) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.codes, "no verification email was sent")
	return f.codes[len(f.codes)-1]
}

// --- сборка сервера как в app.Run, но на фейках ---

type testServer struct {
	router *gin.Engine
	repo   *fakeUserRepo
	mail   *fakeEmailService
}

func newTestServer(t *testing.T, requireVerification bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeUserRepo()
	mail := &fakeEmailService{}
	authService := services.NewAuthService()
	otp := services.NewOTPGenerator(time.Hour)
	userService := services.NewUserService(repo, mail, authService, otp, requireVerification)
	localStrategy := services.NewLocalStrategy(repo, authService)

	sess := sessions.NewManager(time.Hour, false)
	limiter := middleware.NewRateLimiter(5, time.Hour, "Too many signup attempts. Please try again later.")

	r := gin.New()
	r.Use(sess.LoadAndSave())
	routes.SetupRoutes(
		r,
		sess,
		limiter,
		handlers.NewAuthHandler(localStrategy, userService, sess),
		handlers.NewUserHandler(userService, sess),
		handlers.NewVerifyHandler(userService, sess),
		nil,
		handlers.NewHealthHandler(),
	)
	return &testServer{router: r, repo: repo, mail: mail}
}

func (s *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessions.CookieName {
			return c
		}
	}
	return nil
}

func (s *testServer) signUpAna(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	w := s.do(http.MethodPost, "/sign-up",
		`{"username":"ana","email":"ana@x.com","password":"Abc12345!"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w
}

// --- health ---

func TestGetHello(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodGet, "/get-hello", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"hello"}`, w.Body.String())
}

// --- sign-up ---

func TestSignUpSuccess(t *testing.T) {
	s := newTestServer(t, false)

	w := s.signUpAna(t)
	body := parseBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Signup successful", body["message"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "ana", user["username"])
	assert.Equal(t, "ana@x.com", user["email"])
	assert.Equal(t, true, user["isVerified"])

	require.NotNil(t, sessionCookie(w), "signup must establish a session")
}

func TestSignUpValidation(t *testing.T) {
	s := newTestServer(t, false)

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing fields", `{"username":"ana"}`, "All fields are required"},
		{"bad email", `{"username":"ana","email":"not-an-email","password":"Abc12345!"}`, "Invalid email format"},
		{"short password", `{"username":"ana","email":"ana@x.com","password":"Abc123"}`, "Password must be at least 8 characters long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/sign-up", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := parseBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.msg, body["message"])
		})
	}
}

func TestSignUpConflicts(t *testing.T) {
	s := newTestServer(t, false)
	s.signUpAna(t)

	w := s.do(http.MethodPost, "/sign-up",
		`{"username":"ana","email":"other@x.com","password":"Abc12345!"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already taken", parseBody(t, w)["message"])

	w = s.do(http.MethodPost, "/sign-up",
		`{"username":"bob","email":"ana@x.com","password":"Abc12345!"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered", parseBody(t, w)["message"])
}

func TestSignUpRateLimited(t *testing.T) {
	s := newTestServer(t, false)

	// лимитер считает попытки, а не успехи
	for i := 0; i < 5; i++ {
		w := s.do(http.MethodPost, "/sign-up", `{"username":"x","email":"x@x.com","password":"short"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := s.do(http.MethodPost, "/sign-up", `{"username":"x","email":"x@x.com","password":"short"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many signup attempts. Please try again later.", body["message"])
}

// --- login / logout / auth ---

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	s := newTestServer(t, false)
	s.signUpAna(t)

	wrongPassword := s.do(http.MethodPost, "/login", `{"username":"ana","password":"wrong"}`)
	unknownUser := s.do(http.MethodPost, "/login", `{"username":"ghost","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String(),
		"wrong password and unknown username must be indistinguishable")
}

func TestLoginAndAuthState(t *testing.T) {
	s := newTestServer(t, false)
	s.signUpAna(t)

	w := s.do(http.MethodPost, "/login", `{"username":"ana","password":"Abc12345!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := parseBody(t, w)
	assert.Equal(t, "Login successful", body["message"])
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	w = s.do(http.MethodGet, "/auth", "", cookie)
	body = parseBody(t, w)
	assert.Equal(t, true, body["isAuthenticated"])
	assert.Equal(t, "ana", body["username"])
	assert.Equal(t, "ana@x.com", body["email"])

	w = s.do(http.MethodGet, "/auth", "")
	assert.JSONEq(t, `{"isAuthenticated":false}`, w.Body.String())
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, false)
	cookie := sessionCookie(s.signUpAna(t))
	require.NotNil(t, cookie)

	w := s.do(http.MethodGet, "/logout", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"You are logged out!"}`, w.Body.String())

	// сессия уничтожена
	w = s.do(http.MethodGet, "/auth", "", cookie)
	assert.JSONEq(t, `{"isAuthenticated":false}`, w.Body.String())
}

func TestLogoutWithoutSessionSucceeds(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodGet, "/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"You are logged out!"}`, w.Body.String())
}

// --- get-profile ---

func TestGetProfile(t *testing.T) {
	s := newTestServer(t, false)
	cookie := sessionCookie(s.signUpAna(t))
	require.NotNil(t, cookie)

	w := s.do(http.MethodGet, "/get-profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/get-profile", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"ana","email":"ana@x.com"}`, w.Body.String())
}

func TestGetProfileWhenAccountDisappeared(t *testing.T) {
	s := newTestServer(t, false)
	cookie := sessionCookie(s.signUpAna(t))
	require.NotNil(t, cookie)

	user, err := s.repo.GetByEmail("ana@x.com")
	require.NoError(t, err)
	require.NoError(t, s.repo.Delete(user.ID))

	w := s.do(http.MethodGet, "/get-profile", "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", parseBody(t, w)["message"])
}

// --- verify-email / resend-code (режим required) ---

func TestVerificationFlow(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/sign-up",
		`{"username":"ana","email":"ana@x.com","password":"Abc12345!"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := parseBody(t, w)
	assert.Equal(t, "Verification code sent to your email", body["message"])
	assert.Nil(t, sessionCookie(w), "no session until the email is verified")

	// неверный код
	w = s.do(http.MethodPost, "/verify-email",
		`{"email":"ana@x.com","verificationCode":"no-such-code"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid verification code", parseBody(t, w)["message"])

	// верный код: verified + сессия
	code := s.mail.lastCode(t)
	w = s.do(http.MethodPost, "/verify-email",
		`{"email":"ana@x.com","verificationCode":"`+code+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = parseBody(t, w)
	assert.Equal(t, "Email verified and Logged in successful", body["message"])
	cookie := sessionCookie(w)
	require.NotNil(t, cookie, "successful verification establishes a session")

	w = s.do(http.MethodGet, "/auth", "", cookie)
	assert.Equal(t, true, parseBody(t, w)["isAuthenticated"])

	// повторное подтверждение
	w = s.do(http.MethodPost, "/verify-email",
		`{"email":"ana@x.com","verificationCode":"`+code+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already verified", parseBody(t, w)["message"])
}

func TestVerifyEmailMissingFields(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/verify-email", `{"email":"ana@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and verification code are required", parseBody(t, w)["message"])
}

func TestVerifyEmailUnknownUser(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/verify-email",
		`{"email":"nobody@x.com","verificationCode":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User not found", parseBody(t, w)["message"])
}

func TestResendCodeIssuesFreshCode(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/sign-up",
		`{"username":"ana","email":"ana@x.com","password":"Abc12345!"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	oldCode := s.mail.lastCode(t)

	w = s.do(http.MethodPost, "/resend-code", `{"email":"ana@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"New verification code sent successfully"}`, w.Body.String())

	newCode := s.mail.lastCode(t)
	if newCode != oldCode {
		w = s.do(http.MethodPost, "/verify-email",
			`{"email":"ana@x.com","verificationCode":"`+oldCode+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, "old code must stop working after resend")
	}

	w = s.do(http.MethodPost, "/verify-email",
		`{"email":"ana@x.com","verificationCode":"`+newCode+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResendCodeErrors(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(http.MethodPost, "/resend-code", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is required", parseBody(t, w)["message"])

	w = s.do(http.MethodPost, "/resend-code", `{"email":"nobody@x.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", parseBody(t, w)["message"])
}

func TestResendCodeAlreadyVerified(t *testing.T) {
	s := newTestServer(t, false)
	s.signUpAna(t) // режим skipped: аккаунт сразу verified

	w := s.do(http.MethodPost, "/resend-code", `{"email":"ana@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Email already verified"}`, w.Body.String())
}
