package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/testutil"
	"github.com/hugh/localspace/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestCreate(t *testing.T) {
	ctx := testutil.TestContext(t)
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := &token.Module{Prefix: token.DefaultPrefix, Now: fixedClock(now)}

	t.Run("persists hash not secret", func(t *testing.T) {
		h, err := m.Create(ctx, db, token.CreateParams{
			User:      user,
			Type:      models.TokenTypeAccess,
			ExpiresIn: time.Hour,
		}, token.CreateOptions{})
		require.NoError(t, err)

		value := h.Value()
		assert.True(t, strings.HasPrefix(value, "at_"))

		id, secret, ok := token.Decode("at_", value)
		require.True(t, ok)
		assert.Equal(t, h.Record.ID.String(), id)

		var stored models.Token
		require.NoError(t, db.First(&stored, "id = ?", h.Record.ID).Error)
		assert.Len(t, stored.Hash, 64)
		assert.NotContains(t, stored.Hash, secret)
		assert.JSONEq(t, "[]", string(stored.Abilities))
		require.NotNil(t, stored.ExpiresAt)
		assert.WithinDuration(t, now.Add(time.Hour), *stored.ExpiresAt, time.Second)
	})

	t.Run("zero expiry never expires", func(t *testing.T) {
		h, err := m.Create(ctx, db, token.CreateParams{
			User: user,
			Type: models.TokenTypeAccess,
		}, token.CreateOptions{})
		require.NoError(t, err)
		assert.Nil(t, h.Record.ExpiresAt)
	})

	t.Run("rejects invalid expiry", func(t *testing.T) {
		_, err := m.Create(ctx, db, token.CreateParams{
			User:      user,
			Type:      models.TokenTypeAccess,
			ExpiresIn: -time.Minute,
		}, token.CreateOptions{})
		assert.ErrorIs(t, err, token.ErrInvalidExpiry)

		far := &token.Module{Now: fixedClock(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))}
		_, err = far.Create(ctx, db, token.CreateParams{
			User:      user,
			Type:      models.TokenTypeAccess,
			ExpiresIn: 48 * time.Hour,
		}, token.CreateOptions{})
		assert.ErrorIs(t, err, token.ErrInvalidExpiry)
	})

	t.Run("rejects missing owner and unknown type", func(t *testing.T) {
		_, err := m.Create(ctx, db, token.CreateParams{Type: models.TokenTypeAccess}, token.CreateOptions{})
		assert.ErrorIs(t, err, token.ErrMissingOwner)

		_, err = m.Create(ctx, db, token.CreateParams{User: user, Type: "refresh"}, token.CreateOptions{})
		assert.ErrorIs(t, err, token.ErrInvalidType)
	})

	t.Run("delete if exists replaces same type only", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)

		first, err := m.Create(ctx, db, token.CreateParams{User: other, Type: models.TokenTypePasswordReset, ExpiresIn: time.Hour}, token.CreateOptions{})
		require.NoError(t, err)
		_, err = m.Create(ctx, db, token.CreateParams{User: other, Type: models.TokenTypeAccess, ExpiresIn: time.Hour}, token.CreateOptions{})
		require.NoError(t, err)

		second, err := m.Create(ctx, db, token.CreateParams{User: other, Type: models.TokenTypePasswordReset, ExpiresIn: time.Hour},
			token.CreateOptions{DeleteIfExists: true})
		require.NoError(t, err)

		var resets, access int64
		db.Model(&models.Token{}).Where("tokenable_id = ? AND type = ?", other.ID, models.TokenTypePasswordReset).Count(&resets)
		db.Model(&models.Token{}).Where("tokenable_id = ? AND type = ?", other.ID, models.TokenTypeAccess).Count(&access)
		assert.Equal(t, int64(1), resets)
		assert.Equal(t, int64(1), access)

		got, err := m.Verify(ctx, db, first.Value(), models.TokenTypePasswordReset)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = m.Verify(ctx, db, second.Value(), models.TokenTypePasswordReset)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestVerify(t *testing.T) {
	ctx := testutil.TestContext(t)
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	m := &token.Module{Prefix: token.DefaultPrefix, Now: func() time.Time { return clock }}

	h, err := m.Create(ctx, db, token.CreateParams{
		User:      user,
		Type:      models.TokenTypeEmailVerification,
		ExpiresIn: 15 * time.Minute,
	}, token.CreateOptions{})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		got, err := m.Verify(ctx, db, h.Value(), models.TokenTypeEmailVerification)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, h.Record.ID, got.Record.ID)
		assert.Equal(t, user.ID, got.Record.TokenableID)
		assert.Equal(t, h.Value(), got.Value())
	})

	t.Run("wrong type", func(t *testing.T) {
		got, err := m.Verify(ctx, db, h.Value(), models.TokenTypeAccess)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("wrong secret still stamps last used", func(t *testing.T) {
		forged := token.Encode("at_", h.Record.ID.String(), "not-the-secret")
		clock = now.Add(time.Minute)

		got, err := m.Verify(ctx, db, forged, models.TokenTypeEmailVerification)
		require.NoError(t, err)
		assert.Nil(t, got)

		var stored models.Token
		require.NoError(t, db.First(&stored, "id = ?", h.Record.ID).Error)
		require.NotNil(t, stored.LastUsedAt)
		assert.WithinDuration(t, clock, *stored.LastUsedAt, time.Second)
		clock = now
	})

	t.Run("malformed values", func(t *testing.T) {
		for _, v := range []string{
			"",
			"garbage",
			"at_",
			"at_.",
			"xx_" + strings.TrimPrefix(h.Value(), "at_"),
			"at_!!!.???",
			token.Encode("at_", "not-a-uuid", "secret"),
			token.Encode("at_", uuid.NewString(), "secret"),
		} {
			got, err := m.Verify(ctx, db, v, models.TokenTypeEmailVerification)
			assert.NoError(t, err, v)
			assert.Nil(t, got, v)
		}
	})

	t.Run("expired", func(t *testing.T) {
		clock = now.Add(16 * time.Minute)
		defer func() { clock = now }()

		got, err := m.Verify(ctx, db, h.Value(), models.TokenTypeEmailVerification)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("single use after delete", func(t *testing.T) {
		got, err := m.Verify(ctx, db, h.Value(), models.TokenTypeEmailVerification)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NoError(t, got.Delete(ctx, db))

		again, err := m.Verify(ctx, db, h.Value(), models.TokenTypeEmailVerification)
		require.NoError(t, err)
		assert.Nil(t, again)
	})
}

func TestPruneExpired(t *testing.T) {
	ctx := testutil.TestContext(t)
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := &token.Module{Now: fixedClock(now)}

	for _, in := range []time.Duration{time.Minute, time.Hour, 0} {
		_, err := m.Create(ctx, db, token.CreateParams{User: user, Type: models.TokenTypeAccess, ExpiresIn: in}, token.CreateOptions{})
		require.NoError(t, err)
	}

	later := &token.Module{Now: fixedClock(now.Add(30 * time.Minute))}
	n, err := later.PruneExpired(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	db.Model(&models.Token{}).Count(&left)
	assert.Equal(t, int64(2), left)
}

func TestEncodeDecode(t *testing.T) {
	v := token.Encode("at_", "id-1", "s3cr3t")
	id, secret, ok := token.Decode("at_", v)
	require.True(t, ok)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, "s3cr3t", secret)

	enc := base64.RawURLEncoding.EncodeToString
	cases := []string{
		"",
		"at_",
		"at_" + enc([]byte("id")),
		"at_" + enc([]byte("id")) + ".",
		"at_." + enc([]byte("secret")),
		"bt_" + enc([]byte("id")) + "." + enc([]byte("secret")),
		"at_%%%." + enc([]byte("secret")),
	}
	for _, c := range cases {
		_, _, ok := token.Decode("at_", c)
		assert.False(t, ok, c)
	}
}
