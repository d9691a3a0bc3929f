package users

import (
	"context"
	"testing"

	"eshop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin, result, err := svc.EnsureAdmin(ctx, "Boss@2pnet.sk", "prve-heslo", "")
	require.NoError(t, err)
	assert.Equal(t, AdminCreated, result)
	assert.Equal(t, "boss@2pnet.sk", admin.Email)
	assert.Equal(t, "Admin", admin.CompanyName)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, result, err = svc.EnsureAdmin(ctx, "boss@2pnet.sk", "druhe-heslo", "Boss")
	require.NoError(t, err)
	assert.Equal(t, AdminPasswordReset, result)

	stored, err := svc.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, CheckPassword(stored.PasswordHash, "druhe-heslo"))
	assert.Equal(t, "Admin", stored.CompanyName)

	customer, err := svc.Create(ctx, CreateInput{Email: "zakaznik@firma.sk", Password: "heslo123", CompanyName: "Firma"})
	require.NoError(t, err)
	_, result, err = svc.EnsureAdmin(ctx, "zakaznik@firma.sk", "nove-heslo", "")
	require.NoError(t, err)
	assert.Equal(t, NotAnAdmin, result)

	stored, err = svc.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, CheckPassword(stored.PasswordHash, "heslo123"))
	assert.Equal(t, models.RoleUser, stored.Role)
}
