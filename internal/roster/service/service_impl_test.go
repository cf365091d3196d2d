package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stagecast/encore/internal/roster/domain"
	"github.com/stagecast/encore/internal/roster/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRosterService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Profile{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	service := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return service, node
}

func TestCreateAndGetProfile(t *testing.T) {
	service, _ := setupRosterService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, domain.CreateProfileRequest{DisplayName: "  The Headliner  "})
	require.NoError(t, err)
	assert.Equal(t, "The Headliner", created.DisplayName)

	fetched, err := service.GetByID(ctx, domain.GetProfileRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestCreateProfileValidation(t *testing.T) {
	service, _ := setupRosterService(t)

	_, err := service.Create(context.Background(), domain.CreateProfileRequest{DisplayName: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidDisplayName)
}

func TestGetProfileErrors(t *testing.T) {
	service, node := setupRosterService(t)
	ctx := context.Background()

	_, err := service.GetByID(ctx, domain.GetProfileRequest{ID: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = service.GetByID(ctx, domain.GetProfileRequest{ID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProfiles(t *testing.T) {
	service, _ := setupRosterService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Create(ctx, domain.CreateProfileRequest{DisplayName: fmt.Sprintf("Act %d", i)})
		require.NoError(t, err)
	}

	profiles, err := service.List(ctx, domain.ListProfilesRequest{})
	require.NoError(t, err)
	assert.Len(t, profiles, 3)
}
