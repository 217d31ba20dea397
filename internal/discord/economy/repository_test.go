package economy

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// scriptedSource feeds predetermined Int63 values to math/rand so game
// outcomes are exact. Values cycle when exhausted.
type scriptedSource struct {
	vals []int64
	i    int
}

func (s *scriptedSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *scriptedSource) Seed(int64) {}

func scripted(vals ...int64) *rand.Rand {
	return rand.New(&scriptedSource{vals: vals})
}

func seedMember(t *testing.T, db *gorm.DB, user string, xp, coins int64, streak int) {
	t.Helper()
	require.NoError(t, db.Create(&database.MemberProgress{
		GuildSnowflake: "g1",
		UserSnowflake:  user,
		XP:             xp,
		Level:          progression.Level(xp),
		Coins:          coins,
		Streak:         streak,
	}).Error)
}

func TestBuyCoinsRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "u1", 100, 2, 1)

	m, err := repo.BuyCoins("g1", "u1", 5)
	require.NoError(t, err)
	assert.EqualValues(t, 50, m.XP)
	assert.EqualValues(t, 7, m.Coins)
	assert.Equal(t, progression.Level(50), m.Level)

	fresh, err := repo.Progress("g1", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 50, fresh.XP)
	assert.EqualValues(t, 7, fresh.Coins)
}

func TestBuyCoinsRejectsShortBalance(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "u1", 40, 0, 1)

	_, err := repo.BuyCoins("g1", "u1", 5)
	assert.ErrorIs(t, err, progression.ErrInsufficientXP)

	m, err := repo.Progress("g1", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 40, m.XP)
	assert.EqualValues(t, 0, m.Coins)
}

func TestTransferMovesXPAtomically(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "alice", 100, 0, 1)
	seedMember(t, repo.db, "bob", 10, 0, 1)

	from, to, err := repo.Transfer("g1", "alice", "bob", 40)
	require.NoError(t, err)
	assert.EqualValues(t, 60, from.XP)
	assert.EqualValues(t, 50, to.XP)
	assert.Equal(t, progression.Level(60), from.Level)
	assert.Equal(t, progression.Level(50), to.Level)
}

func TestTransferFailureLeavesBothUnchanged(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "alice", 30, 0, 1)
	seedMember(t, repo.db, "bob", 10, 0, 1)

	_, _, err := repo.Transfer("g1", "alice", "bob", 40)
	assert.ErrorIs(t, err, progression.ErrInsufficientXP)

	alice, err := repo.Progress("g1", "alice")
	require.NoError(t, err)
	bob, err := repo.Progress("g1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 30, alice.XP)
	assert.EqualValues(t, 10, bob.XP)

	_, _, err = repo.Transfer("g1", "alice", "alice", 5)
	assert.ErrorIs(t, err, progression.ErrSelfTransfer)
}

func TestPlayGambleValidatesBet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "u1", 50, 20, 1)

	_, _, err := repo.PlayGamble("g1", "u1", progression.GameSlots, 0, scripted(0))
	assert.ErrorIs(t, err, progression.ErrInvalidBet)

	_, _, err = repo.PlayGamble("g1", "u1", progression.GameSlots, 100, scripted(0))
	assert.ErrorIs(t, err, progression.ErrInsufficientBet)

	m, err := repo.Progress("g1", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 50, m.XP)
	assert.EqualValues(t, 20, m.Coins)
}

func TestPlayGambleSettlesWin(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "u1", 50, 200, 7)

	// A single repeated draw lands three identical slot reels.
	res, m, err := repo.PlayGamble("g1", "u1", progression.GameSlots, 100, scripted(0))
	require.NoError(t, err)
	assert.EqualValues(t, 321, res.Delta) // floor(100 * 3 * 1.07)
	assert.EqualValues(t, 521, m.Coins)
	assert.EqualValues(t, 50+progression.GambleXPBonus, m.XP)
	assert.Equal(t, progression.Level(55), m.Level)
}

func TestPlayGambleSettlesLoss(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "u1", 50, 200, 7)

	res, m, err := repo.PlayGamble("g1", "u1", progression.GameSlots, 100,
		scripted(0, 1<<32, 0))
	require.NoError(t, err)
	assert.EqualValues(t, -100, res.Delta)
	assert.EqualValues(t, 100, m.Coins)
	assert.EqualValues(t, 50+progression.GambleXPBonus, m.XP)
}

func TestShopRoleLifecycle(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedMember(t, repo.db, "u1", 0, 30, 1)

	require.NoError(t, repo.UpsertShopRole("g1", "r1", "VIP", 25))
	require.NoError(t, repo.UpsertShopRole("g1", "r2", "Elite", 100))

	roles, err := repo.ListShopRoles("g1")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "VIP", roles[0].RoleName)

	// An upsert of an existing role updates it in place.
	require.NoError(t, repo.UpsertShopRole("g1", "r1", "VIP", 20))
	roles, err = repo.ListShopRoles("g1")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.EqualValues(t, 20, roles[0].Cost)

	listing, err := repo.BuyRole("g1", "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", listing.RoleSnowflake)

	m, err := repo.Progress("g1", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, m.Coins)

	_, err = repo.BuyRole("g1", "u1", "r2")
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	_, err = repo.BuyRole("g1", "u1", "missing")
	assert.ErrorIs(t, err, ErrRoleNotInShop)
}
