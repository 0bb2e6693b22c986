package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zsimmons25/see-more/internal/users/domain"
	"github.com/zsimmons25/see-more/internal/users/service"
)

// --- Mock ---

type UsersServiceMock struct {
	user  *domain.User
	token string
	err   error
}

func (m *UsersServiceMock) Login(context.Context, string, string) (*service.AuthResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.AuthResult{User: m.user, Token: m.token}, nil
}

func (m *UsersServiceMock) Register(context.Context, service.RegisterRequest) (*service.AuthResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.AuthResult{User: m.user, Token: m.token}, nil
}

func (m *UsersServiceMock) GetUser(context.Context, uuid.UUID) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *UsersServiceMock) AddFunds(_ context.Context, _ uuid.UUID, amount decimal.Decimal) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.user.Balance = m.user.Balance.Add(amount)
	return m.user, nil
}

func (m *UsersServiceMock) ChangePassword(context.Context, uuid.UUID, string, string) error {
	return m.err
}

func testUser() *domain.User {
	return &domain.User{
		ID:        testUserID,
		Email:     "john@example.com",
		FirstName: "John",
		LastName:  "Doe",
		Balance:   decimal.NewFromInt(100000),
	}
}

// --- Login / Register tests ---

func TestLogin_ReturnsUserAndToken(t *testing.T) {
	mock := &UsersServiceMock{user: testUser(), token: "jwt-token"}
	handler := NewUsersHandler(mock, 5*time.Second)

	body := bytes.NewBufferString(`{"email":"john@example.com","password":"hunter22"}`)
	recorder := httptest.NewRecorder()

	handler.Login(recorder, httptest.NewRequest("POST", "/auth/login", body))

	assert.Equal(t, http.StatusOK, recorder.Code)
	var response service.AuthResult
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "jwt-token", response.Token)
	assert.Equal(t, "john@example.com", response.User.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	mock := &UsersServiceMock{err: service.ErrInvalidCredentials}
	handler := NewUsersHandler(mock, 5*time.Second)

	body := bytes.NewBufferString(`{"email":"john@example.com","password":"wrong"}`)
	recorder := httptest.NewRecorder()

	handler.Login(recorder, httptest.NewRequest("POST", "/auth/login", body))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "credential_error", response.Code)
}

func TestRegister_Created(t *testing.T) {
	mock := &UsersServiceMock{user: testUser(), token: "jwt-token"}
	handler := NewUsersHandler(mock, 5*time.Second)

	body := bytes.NewBufferString(`{"firstName":"John","lastName":"Doe","email":"john@example.com","password":"hunter22"}`)
	recorder := httptest.NewRecorder()

	handler.Register(recorder, httptest.NewRequest("POST", "/auth/register", body))

	assert.Equal(t, http.StatusCreated, recorder.Code)
}

func TestRegister_ValidationError(t *testing.T) {
	mock := &UsersServiceMock{err: &service.ValidationError{Reason: "a valid email is required"}}
	handler := NewUsersHandler(mock, 5*time.Second)

	body := bytes.NewBufferString(`{"firstName":"John","lastName":"Doe","email":"nope","password":"hunter22"}`)
	recorder := httptest.NewRecorder()

	handler.Register(recorder, httptest.NewRequest("POST", "/auth/register", body))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "validation_error", response.Code)
}

// --- Account endpoint tests ---

func TestGetUser_Success(t *testing.T) {
	mock := &UsersServiceMock{user: testUser()}
	handler := NewUsersHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/users/"+testUserID.String(), nil)
	request = withUser(withURLParam(request, "id", testUserID.String()), testUserID)

	handler.GetUser(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	// The password hash has a json:"-" tag and must never leak
	assert.NotContains(t, recorder.Body.String(), "password")
}

func TestGetUser_OtherAccountForbidden(t *testing.T) {
	mock := &UsersServiceMock{user: testUser()}
	handler := NewUsersHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/users/other", nil)
	request = withUser(withURLParam(request, "id", uuid.NewString()), testUserID)

	handler.GetUser(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestAddFunds_Success(t *testing.T) {
	mock := &UsersServiceMock{user: testUser()}
	handler := NewUsersHandler(mock, 5*time.Second)

	body := bytes.NewBufferString(`{"amount":50}`)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/users/"+testUserID.String()+"/add-funds", body)
	request = withUser(withURLParam(request, "id", testUserID.String()), testUserID)

	handler.AddFunds(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var response domain.User
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.True(t, response.Balance.Equal(decimal.NewFromInt(100050)))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	mock := &UsersServiceMock{err: service.ErrInvalidCredentials}
	handler := NewUsersHandler(mock, 5*time.Second)

	body := bytes.NewBufferString(`{"currentPassword":"wrong","newPassword":"correcthorse"}`)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/users/"+testUserID.String()+"/change-password", body)
	request = withUser(withURLParam(request, "id", testUserID.String()), testUserID)

	handler.ChangePassword(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
