package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-mentor-be/internal/model"
	"ai-mentor-be/internal/repository/implementation"
	"ai-mentor-be/pkg/database"
	"ai-mentor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, gormDB.AutoMigrate(&model.MentorSession{}))

	repo := implementation.NewSessionRepository(gormDB)
	ctx := context.Background()

	session := store.NewSession(uuid.NewString(), "collect_basic_info")
	session.Fields["user_name"] = "Dina"
	session.CurrentPeriod = 2

	require.NoError(t, repo.Save(ctx, session))
	defer repo.Delete(ctx, session.ID)

	loaded, err := repo.FindById(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, "collect_basic_info", loaded.CurrentNodeID)
	assert.Equal(t, "Dina", loaded.Fields["user_name"])
	assert.Equal(t, 2, loaded.CurrentPeriod)

	// Upsert on the same id
	loaded.CurrentNodeID = "classify_category"
	require.NoError(t, repo.Save(ctx, loaded))

	again, err := repo.FindById(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, "classify_category", again.CurrentNodeID)

	// Missing ids resolve to nil, not an error
	missing, err := repo.FindById(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
