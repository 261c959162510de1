package book

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB expects a database migrated with db/migrations.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test database: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		t.Skipf("Skipping test: cannot ping test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// uniqueISBN returns a 13-char key that will not collide between runs.
// It does not need to pass the checksum; the store does not validate.
func uniqueISBN() string {
	return "T" + uuid.NewString()[:12]
}

func TestPostgresRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRepo(db, 2*time.Second)
	ctx := context.Background()

	isbn := uniqueISBN()
	rec := &Record{
		ISBN:       isbn,
		Title:      "Effective Java",
		Authors:    []string{"Joshua Bloch"},
		Publisher:  StrPtr("Addison-Wesley"),
		PageCount:  IntPtr(412),
		DataSource: "Google Books",
	}

	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{}, created.Categories)
	assert.Nil(t, created.Subtitle)

	got, err := repo.GetByISBN(ctx, isbn)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Addison-Wesley", *got.Publisher)
	assert.Equal(t, 412, *got.PageCount)
}

func TestPostgresRepo_CreateDuplicateReturnsExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRepo(db, 2*time.Second)
	ctx := context.Background()

	isbn := uniqueISBN()
	first, err := repo.Create(ctx, &Record{ISBN: isbn, Title: "First", DataSource: "Open Library"})
	require.NoError(t, err)

	second, err := repo.Create(ctx, &Record{ISBN: isbn, Title: "Second", DataSource: "WorldCat"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "First", second.Title)
}

func TestPostgresRepo_GetByISBN_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRepo(db, 2*time.Second)

	_, err := repo.GetByISBN(context.Background(), uniqueISBN())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttemptPostgresRepo_CreateAndStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptPostgresRepo(db, 2*time.Second)
	ctx := context.Background()

	before, err := repo.Count(ctx, AttemptFilter{})
	require.NoError(t, err)

	src := "cache"
	a := &Attempt{ISBN: uniqueISBN(), Found: true, ResponseTimeMS: 3, DataSource: &src}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.SearchedAt.IsZero())

	after, err := repo.Count(ctx, AttemptFilter{})
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	found := true
	n, err := repo.Count(ctx, AttemptFilter{Found: &found})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	avg, err := repo.AverageResponseTime(ctx, AttemptFilter{})
	require.NoError(t, err)
	require.NotNil(t, avg)

	recent, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestAttemptPostgresRepo_CreateLongISBN(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptPostgresRepo(db, 2*time.Second)
	ctx := context.Background()

	id := "9" + strings.Repeat("0", 14) + strconv.FormatInt(time.Now().UnixNano()%1e10, 10)
	require.NoError(t, repo.Create(ctx, &Attempt{ISBN: id, Found: false}))

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM search_history WHERE isbn = $1`, id).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestPostgresRepo_CreateLongProviderFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRepo(db, 2*time.Second)

	long := strings.Repeat("a", 1200)
	created, err := repo.Create(context.Background(), &Record{
		ISBN:          uniqueISBN(),
		Title:         long,
		Publisher:     StrPtr(long),
		PublishedDate: StrPtr("circa the early years of the twentieth century, reprinted several times"),
		Language:      StrPtr("en-GB-oxendict"),
		DataSource:    "WorldCat",
	})
	require.NoError(t, err)
	assert.Len(t, created.Title, 1200)
	assert.Equal(t, "en-GB-oxendict", *created.Language)
}
