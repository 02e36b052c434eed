package database

import (
	"context"
	"testing"

	"salonbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	token, err := db.GetToken(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, db.SaveToken(ctx, 42, "tok-1", "c1"))
	token, err = db.GetToken(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, db.SaveToken(ctx, 42, "tok-2", "c1"))
	token, _ = db.GetToken(ctx, 42)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, db.DeleteToken(ctx, 42))
	token, err = db.GetToken(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, token)

	// удаление для неизвестного чата не ошибка
	assert.NoError(t, db.DeleteToken(ctx, 999))
}

func TestCustomerProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetCustomer(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, db.SaveToken(ctx, 7, "tok", "c7"))
	c := &models.Customer{CustomerID: "c7", FullName: "Priya Sharma", Email: "priya@example.com", MobileNumber: "9876543210"}
	require.NoError(t, db.SaveCustomer(ctx, 7, c))

	got, err = db.GetCustomer(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// профиль не затирает токен
	token, _ := db.GetToken(ctx, 7)
	assert.Equal(t, "tok", token)

	require.NoError(t, db.UpdateActivity(ctx, 7))
	n, err := db.CountActiveCustomers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
