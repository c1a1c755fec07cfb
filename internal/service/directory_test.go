package service

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.dir.CreateUser(ctx, model.NewUserRequest{Name: " Ann ", Email: "Ann@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)

	_, err = e.dir.CreateUser(ctx, model.NewUserRequest{Name: "Ann Two", Email: "ann@example.com"})
	requireKind(t, err, apperr.KindConflict)

	_, err = e.dir.CreateCategory(ctx, model.NewCategoryRequest{Name: "music"})
	require.NoError(t, err)
	_, err = e.dir.CreateCategory(ctx, model.NewCategoryRequest{Name: "music"})
	requireKind(t, err, apperr.KindConflict)
}
