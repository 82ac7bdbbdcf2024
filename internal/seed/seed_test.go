package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/repositories/memory"
)

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New(auth.NewAccessPolicy())

	require.NoError(t, CreateDefaultData(ctx, store, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, store, zerolog.Nop()))

	roots, err := store.Forums().ListChildren(ctx, nil, models.Anonymous())
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "general", roots[0].Slug)
	assert.False(t, roots[0].IsRestricted())
}
