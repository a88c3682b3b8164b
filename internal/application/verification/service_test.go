package verification

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/membergate/api/internal/domain"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}
func (m *mockStore) GetCode(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *mockStore) StartCooldown(ctx context.Context, email string, ttl time.Duration) error {
	return m.Called(ctx, email, ttl).Error(0)
}
func (m *mockStore) InCooldown(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
func (m *mockStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	return m.Called(ctx, email, ttl).Error(0)
}
func (m *mockStore) IsVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendVerificationCode(to, code string) error {
	return m.Called(to, code).Error(0)
}

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func testTTLs() TTLs {
	return TTLs{Code: 3 * time.Minute, Cooldown: time.Minute, Verified: 10 * time.Minute}
}

// --- RequestCode ---

func TestRequestCode_SendsThenStoresCodeAndCooldown(t *testing.T) {
	store, mailer := &mockStore{}, &mockMailer{}
	store.On("InCooldown", mock.Anything, "a@b.com").Return(false, nil)
	mailer.On("SendVerificationCode", "a@b.com", mock.MatchedBy(sixDigits.MatchString)).Return(nil)
	store.On("SaveCode", mock.Anything, "a@b.com", mock.MatchedBy(sixDigits.MatchString), 3*time.Minute).Return(nil)
	store.On("StartCooldown", mock.Anything, "a@b.com", time.Minute).Return(nil)

	svc := NewService(store, mailer, testTTLs())
	require.NoError(t, svc.RequestCode(context.Background(), "a@b.com"))
	store.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRequestCode_CooldownBlocksWithNoSideEffects(t *testing.T) {
	store, mailer := &mockStore{}, &mockMailer{}
	store.On("InCooldown", mock.Anything, "a@b.com").Return(true, nil)

	svc := NewService(store, mailer, testTTLs())
	err := svc.RequestCode(context.Background(), "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCooldownActive))
	mailer.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SaveCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "StartCooldown", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCode_MailFailureLeavesNoState(t *testing.T) {
	store, mailer := &mockStore{}, &mockMailer{}
	store.On("InCooldown", mock.Anything, "a@b.com").Return(false, nil)
	mailer.On("SendVerificationCode", "a@b.com", mock.Anything).Return(domain.ErrMailDelivery)

	svc := NewService(store, mailer, testTTLs())
	err := svc.RequestCode(context.Background(), "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMailDelivery))
	store.AssertNotCalled(t, "SaveCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "StartCooldown", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestCode_StoreFailurePropagates(t *testing.T) {
	store, mailer := &mockStore{}, &mockMailer{}
	store.On("InCooldown", mock.Anything, "a@b.com").Return(false, domain.ErrStoreUnavailable)

	svc := NewService(store, mailer, testTTLs())
	err := svc.RequestCode(context.Background(), "a@b.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	mailer.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything)
}

// --- CheckCode ---

func TestCheckCode_MatchSucceedsWithoutConsumingTheCode(t *testing.T) {
	store := &mockStore{}
	store.On("GetCode", mock.Anything, "a@b.com").Return("042017", nil)

	svc := NewService(store, &mockMailer{}, testTTLs())
	require.NoError(t, svc.CheckCode(context.Background(), "a@b.com", "042017"))
	// retry within the window still succeeds
	require.NoError(t, svc.CheckCode(context.Background(), "a@b.com", "042017"))
	store.AssertNotCalled(t, "SaveCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckCode_MismatchFails(t *testing.T) {
	store := &mockStore{}
	store.On("GetCode", mock.Anything, "a@b.com").Return("042017", nil)

	svc := NewService(store, &mockMailer{}, testTTLs())
	err := svc.CheckCode(context.Background(), "a@b.com", "000000")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeInvalid))
}

func TestCheckCode_MissingCodeFails(t *testing.T) {
	store := &mockStore{}
	store.On("GetCode", mock.Anything, "a@b.com").Return("", domain.ErrNotFound)

	svc := NewService(store, &mockMailer{}, testTTLs())
	err := svc.CheckCode(context.Background(), "a@b.com", "042017")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeInvalid))
}

// --- MarkVerified / IsVerified ---

func TestMarkVerified_WritesFlagWithConfiguredTTL(t *testing.T) {
	store := &mockStore{}
	store.On("MarkVerified", mock.Anything, "a@b.com", 10*time.Minute).Return(nil)

	svc := NewService(store, &mockMailer{}, testTTLs())
	require.NoError(t, svc.MarkVerified(context.Background(), "a@b.com"))
	store.AssertExpectations(t)
}

func TestIsVerified_ReflectsStoredFlag(t *testing.T) {
	store := &mockStore{}
	store.On("IsVerified", mock.Anything, "a@b.com").Return(false, nil).Once()
	store.On("IsVerified", mock.Anything, "a@b.com").Return(true, nil).Once()

	svc := NewService(store, &mockMailer{}, testTTLs())

	verified, err := svc.IsVerified(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, verified)

	verified, err = svc.IsVerified(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestGenerateCode_AlwaysSixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.True(t, sixDigits.MatchString(code), "got %q", code)
	}
}
