package member

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/membergate/api/internal/domain"
)

// --- mocks ---

type mockMemberStore struct{ mock.Mock }

func (m *mockMemberStore) Create(ctx context.Context, mb *domain.Member) error {
	return m.Called(ctx, mb).Error(0)
}
func (m *mockMemberStore) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if mb, _ := args.Get(0).(*domain.Member); mb != nil {
		return mb, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberStore) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	args := m.Called(ctx, email)
	if mb, _ := args.Get(0).(*domain.Member); mb != nil {
		return mb, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
func (m *mockMemberStore) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	args := m.Called(ctx, nickname)
	return args.Bool(0), args.Error(1)
}
func (m *mockMemberStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}
func (m *mockMemberStore) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	return m.Called(ctx, id, nickname).Error(0)
}
func (m *mockMemberStore) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) StartSession(ctx context.Context, memberID int64, refreshToken string, ttl time.Duration) error {
	return m.Called(ctx, memberID, refreshToken, ttl).Error(0)
}
func (m *mockSessions) RevokeSession(ctx context.Context, memberID int64) error {
	return m.Called(ctx, memberID).Error(0)
}
func (m *mockSessions) Blacklist(ctx context.Context, accessToken string, remaining time.Duration) error {
	return m.Called(ctx, accessToken, remaining).Error(0)
}
func (m *mockSessions) IsBlacklisted(ctx context.Context, accessToken string) (bool, error) {
	args := m.Called(ctx, accessToken)
	return args.Bool(0), args.Error(1)
}
func (m *mockSessions) Logout(ctx context.Context, accessToken string, memberID int64) error {
	return m.Called(ctx, accessToken, memberID).Error(0)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) RequestCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockVerifier) CheckCode(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}
func (m *mockVerifier) MarkVerified(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockVerifier) IsVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type stubIssuer struct{}

func (stubIssuer) AccessToken(int64) (string, error) { return "access", nil }
func (stubIssuer) RefreshToken() (string, error)     { return "refresh", nil }

const refreshTTL = 14 * 24 * time.Hour

func newSvc(ms *mockMemberStore, ss *mockSessions, vs *mockVerifier) Service {
	return NewService(ms, ss, vs, stubIssuer{}, refreshTTL)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Signup ---

func TestSignup_RequiresVerifiedEmail(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	vs.On("IsVerified", mock.Anything, "a@b.com").Return(false, nil)

	_, err := newSvc(ms, ss, vs).Signup(context.Background(), SignUpRequest{
		Email: "a@b.com", Password: "password123", Nickname: "alice",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmailNotVerified))
	ms.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_DuplicateEmailRejected(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	vs.On("IsVerified", mock.Anything, "a@b.com").Return(true, nil)
	ms.On("ExistsByEmail", mock.Anything, "a@b.com").Return(true, nil)

	_, err := newSvc(ms, ss, vs).Signup(context.Background(), SignUpRequest{
		Email: "a@b.com", Password: "password123", Nickname: "alice",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSignup_DuplicateNicknameRejected(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	vs.On("IsVerified", mock.Anything, "a@b.com").Return(true, nil)
	ms.On("ExistsByEmail", mock.Anything, "a@b.com").Return(false, nil)
	ms.On("ExistsByNickname", mock.Anything, "alice").Return(true, nil)

	_, err := newSvc(ms, ss, vs).Signup(context.Background(), SignUpRequest{
		Email: "a@b.com", Password: "password123", Nickname: "alice",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSignup_HashesPasswordAndCreates(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	vs.On("IsVerified", mock.Anything, "a@b.com").Return(true, nil)
	ms.On("ExistsByEmail", mock.Anything, "a@b.com").Return(false, nil)
	ms.On("ExistsByNickname", mock.Anything, "alice").Return(false, nil)
	ms.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Member) bool {
		return m.Email == "a@b.com" && m.Nickname == "alice" &&
			bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	m, err := newSvc(ms, ss, vs).Signup(context.Background(), SignUpRequest{
		Email: "a@b.com", Password: "password123", Nickname: "alice",
	})

	require.NoError(t, err)
	assert.Equal(t, "a@b.com", m.Email)
	ms.AssertExpectations(t)
}

// --- Login ---

func TestLogin_IssuesTokensAndStartsSession(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Member{
		ID: 42, Email: "a@b.com", PasswordHash: hashOf(t, "password123"),
	}, nil)
	ss.On("StartSession", mock.Anything, int64(42), "refresh", refreshTTL).Return(nil)

	result, err := newSvc(ms, ss, vs).Login(context.Background(), LoginRequest{
		Email: "a@b.com", Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "access", result.AccessToken)
	assert.Equal(t, "refresh", result.RefreshToken)
	ss.AssertExpectations(t)
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Member{
		ID: 42, Email: "a@b.com", PasswordHash: hashOf(t, "password123"),
	}, nil)

	_, err := newSvc(ms, ss, vs).Login(context.Background(), LoginRequest{
		Email: "a@b.com", Password: "wrong",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmailRejected(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)

	_, err := newSvc(ms, ss, vs).Login(context.Background(), LoginRequest{
		Email: "a@b.com", Password: "password123",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Withdraw ---

func TestWithdraw_LogsOutThenSoftDeletes(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ss.On("Logout", mock.Anything, "access", int64(42)).Return(nil)
	ms.On("SoftDelete", mock.Anything, int64(42)).Return(nil)

	require.NoError(t, newSvc(ms, ss, vs).Withdraw(context.Background(), "access", 42))
	ss.AssertExpectations(t)
	ms.AssertExpectations(t)
}

func TestWithdraw_LogoutFailureSkipsDelete(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ss.On("Logout", mock.Anything, "access", int64(42)).Return(domain.ErrStoreUnavailable)

	err := newSvc(ms, ss, vs).Withdraw(context.Background(), "access", 42)

	require.Error(t, err)
	ms.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

// --- ChangePassword / ChangeNickname ---

func TestChangePassword_CurrentMustMatch(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("GetByID", mock.Anything, int64(42)).Return(&domain.Member{
		ID: 42, PasswordHash: hashOf(t, "password123"),
	}, nil)

	_, err := newSvc(ms, ss, vs).ChangePassword(context.Background(), 42, ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "newpassword1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestChangePassword_NewMustDiffer(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("GetByID", mock.Anything, int64(42)).Return(&domain.Member{
		ID: 42, PasswordHash: hashOf(t, "password123"),
	}, nil)

	_, err := newSvc(ms, ss, vs).ChangePassword(context.Background(), 42, ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "password123",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	ms.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_UpdatesHash(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("GetByID", mock.Anything, int64(42)).Return(&domain.Member{
		ID: 42, PasswordHash: hashOf(t, "password123"),
	}, nil)
	ms.On("UpdatePassword", mock.Anything, int64(42), mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword1")) == nil
	})).Return(nil)

	_, err := newSvc(ms, ss, vs).ChangePassword(context.Background(), 42, ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "newpassword1",
	})

	require.NoError(t, err)
	ms.AssertExpectations(t)
}

func TestChangeNickname_DuplicateRejected(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("ExistsByNickname", mock.Anything, "bob").Return(true, nil)

	_, err := newSvc(ms, ss, vs).ChangeNickname(context.Background(), 42, "bob")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestChangeNickname_Updates(t *testing.T) {
	ms, ss, vs := &mockMemberStore{}, &mockSessions{}, &mockVerifier{}
	ms.On("ExistsByNickname", mock.Anything, "bob").Return(false, nil)
	ms.On("GetByID", mock.Anything, int64(42)).Return(&domain.Member{ID: 42, Nickname: "alice"}, nil)
	ms.On("UpdateNickname", mock.Anything, int64(42), "bob").Return(nil)

	m, err := newSvc(ms, ss, vs).ChangeNickname(context.Background(), 42, "bob")

	require.NoError(t, err)
	assert.Equal(t, "bob", m.Nickname)
}
