package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/dbtest"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	market := uint64(2)

	admin := &models.User{Username: "admin", Email: "a@example.com", Role: models.RoleAdmin, Active: true, MarketID: &market}
	require.NoError(t, Create(ctx, db, admin, "pw"))
	assert.Nil(t, admin.MarketID, "admins are never market scoped")

	owner := &models.User{Username: "owner", Email: "o@example.com", Role: models.RoleOwner, Active: true, MarketID: &market}
	require.NoError(t, Create(ctx, db, owner, "pw"))

	inactive := &models.User{Username: "gone", Email: "g@example.com", Role: models.RoleUser}
	require.NoError(t, Create(ctx, db, inactive, "pw"))

	require.ErrorIs(t, Create(ctx, db, &models.User{Username: "x", Role: "root"}, "pw"), ErrInvalidRole)

	testCases := []struct {
		name          string
		username      string
		expectedError error
	}{
		{name: "admin", username: "admin"},
		{name: "owner", username: "owner"},
		{name: "inactive", username: "gone", expectedError: ErrUserNotFound},
		{name: "unknown", username: "nobody", expectedError: ErrUserNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := GetByUsername(ctx, db, tc.username)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.True(t, u.VerifyPassword("pw"))

			byID, err := GetByID(ctx, db, u.ID)
			require.NoError(t, err)
			assert.Equal(t, u.Username, byID.Username)
		})
	}

	o, err := GetByUsername(ctx, db, "owner")
	require.NoError(t, err)
	require.NotNil(t, o.MarketID)
	assert.Equal(t, market, *o.MarketID)

	n, err := Count(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
