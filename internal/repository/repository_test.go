package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var userRowColumns = []string{
	"id", "email", "phone_number", "country_code", "user_name", "password_hash", "provider",
	"display_name", "bio", "address", "birthday", "photo_avatar", "photo_cover", "is_verify",
	"created_at", "updated_at",
}

func TestUserCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	phone, cc := "965445305", "VN"
	user := &domain.User{PhoneNumber: &phone, CountryCode: &cc, PasswordHash: "hash"}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), nil, phone, cc, nil, "hash", "password",
			nil, nil, nil, nil, nil, nil, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.AuthProviderPassword, user.Provider)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_phone_unique"})

	err := repo.Create(context.Background(), &domain.User{PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserGetByPhone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).AddRow(
		"u-1", nil, "965445305", "VN", nil, "hash", "password",
		"Alice", nil, nil, nil, nil, nil, true, now, now,
	)
	mock.ExpectQuery(`(?s)SELECT .+ FROM users WHERE phone_number = \$1 AND country_code = \$2`).
		WithArgs("965445305", "VN").
		WillReturnRows(rows)

	user, err := repo.GetByPhone(context.Background(), "965445305", "VN")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Nil(t, user.Email)
	require.NotNil(t, user.PhoneNumber)
	assert.Equal(t, "965445305", *user.PhoneNumber)
	require.NotNil(t, user.DisplayName)
	assert.Equal(t, "Alice", *user.DisplayName)
	assert.Equal(t, domain.AuthProviderPassword, user.Provider)
	assert.True(t, user.IsVerify)
	assert.True(t, user.HasPhone())
}

func TestUserLookupsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("nobody@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM users WHERE user_name = \$1`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("u-404").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByUserName(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, "u-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserGetByEmailDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WillReturnError(errors.New("db down"))

	_, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserUpdatePassword(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2`).
		WithArgs("u-1", "new-hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2`).
		WithArgs("u-404", "new-hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "new-hash"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "u-404", "new-hash"), ErrNotFound)
}

func TestUserUpdateProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	name := "Alice"
	mock.ExpectExec(`UPDATE users\s+SET display_name = \$2, bio = \$3, address = \$4, birthday = \$5`).
		WithArgs("u-1", name, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProfile(context.Background(), &domain.User{ID: "u-1", DisplayName: &name})
	require.NoError(t, err)
}

var deviceRowColumns = []string{"id", "user_id", "ip", "user_agent", "allow", "created_at", "updated_at"}

func TestDeviceTrustIsSingleUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT INTO devices .+ON CONFLICT \(user_id, ip\) DO UPDATE\s+SET allow = TRUE.+RETURNING`).
		WithArgs(sqlmock.AnyArg(), "u-1", "10.0.0.1", "curl/8", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(deviceRowColumns).AddRow("d-1", "u-1", "10.0.0.1", "firefox", true, now, now))

	device, err := repo.Trust(context.Background(), "u-1", "10.0.0.1", "curl/8")
	require.NoError(t, err)
	assert.Equal(t, "d-1", device.ID)
	assert.True(t, device.Allow)
	assert.Equal(t, "firefox", device.UserAgent)
}

func TestDeviceGetByUserAndIP(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM devices WHERE user_id = \$1 AND ip = \$2`).
		WithArgs("u-1", "10.0.0.1").
		WillReturnRows(sqlmock.NewRows(deviceRowColumns).AddRow("d-1", "u-1", "10.0.0.1", "", false, now, now))
	mock.ExpectQuery(`FROM devices WHERE user_id = \$1 AND ip = \$2`).
		WithArgs("u-1", "10.0.0.2").
		WillReturnError(sql.ErrNoRows)

	device, err := repo.GetByUserAndIP(context.Background(), "u-1", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, device.Allow)

	_, err = repo.GetByUserAndIP(context.Background(), "u-1", "10.0.0.2")
	assert.ErrorIs(t, err, ErrNotFound)
}

var specialTokenRowColumns = []string{
	"id", "provider", "user_id", "phone_number", "country_code", "otp_hash", "created_at", "expires_at",
}

func TestSpecialTokenConsume(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSpecialTokenRepository(db)
	now := time.Now()

	mock.ExpectQuery(`DELETE FROM special_tokens WHERE id = \$1 AND provider = \$2 RETURNING`).
		WithArgs("t-1", "sign-in").
		WillReturnRows(sqlmock.NewRows(specialTokenRowColumns).
			AddRow("t-1", "sign-in", "u-1", nil, nil, "otp-hash", now, now.Add(5*time.Minute)))
	mock.ExpectQuery(`DELETE FROM special_tokens WHERE id = \$1 AND provider = \$2 RETURNING`).
		WithArgs("t-1", "sign-in").
		WillReturnError(sql.ErrNoRows)

	token, err := repo.Consume(context.Background(), "t-1", domain.SpecialProviderSignIn)
	require.NoError(t, err)
	assert.Equal(t, domain.SpecialProviderSignIn, token.Provider)
	require.NotNil(t, token.UserID)
	assert.Equal(t, "u-1", *token.UserID)
	assert.Nil(t, token.PhoneNumber)

	_, err = repo.Consume(context.Background(), "t-1", domain.SpecialProviderSignIn)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpecialTokenReplaceByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSpecialTokenRepository(db)

	uid, hash := "u-1", "otp-hash"
	expires := time.Now().Add(5 * time.Minute)
	mock.ExpectExec(`(?s)INSERT INTO special_tokens .+ON CONFLICT \(provider, user_id\) WHERE user_id IS NOT NULL\s+DO UPDATE SET id = EXCLUDED.id`).
		WithArgs(sqlmock.AnyArg(), "sign-in", uid, nil, nil, hash, sqlmock.AnyArg(), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &domain.SpecialToken{
		Provider:  domain.SpecialProviderSignIn,
		UserID:    &uid,
		OTPHash:   &hash,
		ExpiresAt: expires,
	}
	require.NoError(t, repo.Replace(context.Background(), token))
	assert.NotEmpty(t, token.ID)
}

func TestSpecialTokenReplaceByPhone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSpecialTokenRepository(db)

	phone, cc := "965445305", "VN"
	mock.ExpectExec(`ON CONFLICT \(provider, phone_number, country_code\) WHERE user_id IS NULL AND phone_number IS NOT NULL`).
		WithArgs(sqlmock.AnyArg(), "setup-password", nil, phone, cc, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &domain.SpecialToken{
		Provider:    domain.SpecialProviderSetupPassword,
		PhoneNumber: &phone,
		CountryCode: &cc,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, repo.Replace(context.Background(), token))
}

func TestSpecialTokenReplaceRequiresOwner(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewSpecialTokenRepository(db)

	err := repo.Replace(context.Background(), &domain.SpecialToken{Provider: domain.SpecialProviderSignIn})
	assert.Error(t, err)
}

func TestSpecialTokenDeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSpecialTokenRepository(db)

	mock.ExpectExec(`DELETE FROM special_tokens WHERE expires_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestWithinTxCommits(t *testing.T) {
	db, mock := newMockDB(t)
	store := newStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users\s+SET password_hash`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos *Repositories) error {
		return repos.User.UpdatePassword(ctx, "u-1", "hash")
	})
	require.NoError(t, err)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	store := newStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM special_tokens`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos *Repositories) error {
		_, err := repos.SpecialToken.Consume(ctx, "t-1", domain.SpecialProviderSetupPassword)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	store := newStore(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithinTx(context.Background(), func(context.Context, *Repositories) error {
			panic("boom")
		})
	})
}
