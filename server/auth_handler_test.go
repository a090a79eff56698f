package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeatWave/model"
)

type stubUserRepo struct {
	users   map[int64]*model.User
	nextID  int64
	deleted []int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (r *stubUserRepo) CreateUser(user *model.User) (int64, error) {
	clone := *user
	clone.ID = r.nextID
	r.users[clone.ID] = &clone
	r.nextID++
	return clone.ID, nil
}

func (r *stubUserRepo) DeleteUser(id int64) error {
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubUserRepo) GetUserByID(id int64) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (r *stubUserRepo) GetUserByUsername(username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

type stubProfileRepo struct {
	profiles  map[int64]*model.Profile
	createErr error
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[int64]*model.Profile)}
}

func (r *stubProfileRepo) Create(_ context.Context, profile *model.Profile) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *profile
	r.profiles[clone.UserID] = &clone
	return nil
}

func (r *stubProfileRepo) GetByUserID(_ context.Context, userID int64) (*model.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	return profile, nil
}

func (r *stubProfileRepo) Update(_ context.Context, _ *model.Profile) error { return nil }

func (r *stubProfileRepo) UpdateAvatar(_ context.Context, _ int64, _ string) error { return nil }

func registerRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(payload))
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	userRepo := newStubUserRepo()
	profileRepo := newStubProfileRepo()
	handler := NewAPIHandler(nil, userRepo, profileRepo, nil, nil)

	rec := httptest.NewRecorder()
	handler.RegisterHandler(rec, registerRequest(t, RegisterRequest{
		Username: "producer", Password: "hunter2", Email: "p@example.com",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	user, err := userRepo.GetUserByUsername("producer")
	require.NoError(t, err)
	require.NotNil(t, user)

	profile, err := profileRepo.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, user.ID, profile.UserID)
}

func TestRegisterRollsBackUserWhenProfileFails(t *testing.T) {
	userRepo := newStubUserRepo()
	profileRepo := newStubProfileRepo()
	profileRepo.createErr = errors.New("table is full")
	handler := NewAPIHandler(nil, userRepo, profileRepo, nil, nil)

	rec := httptest.NewRecorder()
	handler.RegisterHandler(rec, registerRequest(t, RegisterRequest{
		Username: "producer", Password: "hunter2", Email: "p@example.com",
	}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The account must not survive without its profile; the username stays
	// free for a retry.
	user, err := userRepo.GetUserByUsername("producer")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Len(t, userRepo.deleted, 1)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	userRepo := newStubUserRepo()
	_, err := userRepo.CreateUser(&model.User{Username: "producer", Email: "taken@example.com"})
	require.NoError(t, err)
	handler := NewAPIHandler(nil, userRepo, newStubProfileRepo(), nil, nil)

	rec := httptest.NewRecorder()
	handler.RegisterHandler(rec, registerRequest(t, RegisterRequest{
		Username: "producer", Password: "hunter2", Email: "new@example.com",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
