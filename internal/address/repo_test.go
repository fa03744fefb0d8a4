package address

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/petalworks/petalworks-backend/pkg/db"
	"github.com/petalworks/petalworks-backend/pkg/db/models"
)

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  label TEXT NOT NULL,
  recipient TEXT NOT NULL,
  phone TEXT,
  street TEXT NOT NULL,
  landmark TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  pincode TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedAddress(t *testing.T, db *gorm.DB, userID uuid.UUID, label string, isDefault bool, createdAt time.Time) models.Address {
	t.Helper()
	addr := models.Address{
		ID:        uuid.New(),
		UserID:    userID,
		Label:     label,
		Recipient: label,
		Street:    "1 Petunia Road",
		City:      "Pune",
		State:     "MH",
		Pincode:   "411001",
		IsDefault: isDefault,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&addr).Error)
	return addr
}

func TestListByUserOrdersDefaultFirst(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	now := time.Now().UTC()

	seedAddress(t, db, userID, "Old", false, now.Add(-2*time.Hour))
	def := seedAddress(t, db, userID, "Home", true, now.Add(-3*time.Hour))
	seedAddress(t, db, userID, "Work", false, now.Add(-time.Hour))
	seedAddress(t, db, uuid.New(), "Other user", true, now)

	got, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, def.ID, got[0].ID, "default must sort first despite being oldest")
}

func TestClearDefaultLeavesOtherUsersAlone(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	otherID := uuid.New()
	now := time.Now().UTC()

	seedAddress(t, db, userID, "Home", true, now)
	other := seedAddress(t, db, otherID, "Other home", true, now)

	require.NoError(t, repo.ClearDefault(context.Background(), userID))

	mine, err := repo.FindDefault(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, mine)

	theirs, err := repo.FindDefault(context.Background(), otherID)
	require.NoError(t, err)
	require.NotNil(t, theirs)
	assert.Equal(t, other.ID, theirs.ID)
}

func TestFindLatestSkipsDeleted(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	now := time.Now().UTC()

	older := seedAddress(t, db, userID, "Older", false, now.Add(-time.Hour))
	newest := seedAddress(t, db, userID, "Newest", false, now)

	deleted := now
	require.NoError(t, db.Model(&models.Address{}).Where("id = ?", newest.ID).Update("deleted_at", &deleted).Error)

	got, err := repo.FindLatest(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, older.ID, got.ID)
}

func TestServiceCreateKeepsSingleDefault(t *testing.T) {
	db := setupAddressTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, dbpkg.FromGorm(db))
	require.NoError(t, err)

	userID := uuid.New()
	ctx := context.Background()

	for i, label := range []string{"Home", "Work", "Parents"} {
		input := validInput()
		input.Label = label
		input.IsDefault = true
		_, err := svc.Create(ctx, userID, input)
		require.NoError(t, err, "create %d", i)
	}

	var defaults int64
	require.NoError(t, db.Model(&models.Address{}).
		Where("user_id = ?", userID).
		Where("is_default = ?", true).
		Count(&defaults).Error)
	assert.EqualValues(t, 1, defaults, "exactly one default after repeated default creates")

	got, err := svc.DefaultOrLatest(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Parents", got.Label)
}
