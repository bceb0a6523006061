package principal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unicauca/auth-service/internal/models"
)

func TestFrom_Empty(t *testing.T) {
	t.Parallel()

	p, ok := From(context.Background())
	require.False(t, ok)
	require.Nil(t, p)
}

func TestIntoFrom_RoundTrip(t *testing.T) {
	t.Parallel()

	want := &models.Principal{AccountID: 5, Roles: []models.Role{models.RoleStudent}}
	got, ok := From(Into(context.Background(), want))
	require.True(t, ok)
	require.Same(t, want, got)
}

func TestInto_NilIsIgnored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Equal(t, ctx, Into(ctx, nil))

	var nilP *models.Principal
	ctx = context.WithValue(context.Background(), ctxKey{}, nilP)
	_, ok := From(ctx)
	require.False(t, ok)
}
