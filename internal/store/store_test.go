package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "k1", []byte(`{"fileName":"a.xlsx"}`)))
	got, err := s.Load(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fileName":"a.xlsx"}`, string(got))

	require.NoError(t, s.Save(ctx, "k1", []byte(`{"fileName":"b.xlsx"}`)))
	got, err = s.Load(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fileName":"b.xlsx"}`, string(got))

	require.NoError(t, s.Delete(ctx, "k1"))
	_, err = s.Load(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "never-saved"))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_CopiesData(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	buf := []byte(`{"a":1}`)
	require.NoError(t, m.Save(ctx, "k", buf))
	buf[2] = 'X'

	got, err := m.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisFromClient(client, 0)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedis_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisFromClient(client, time.Hour)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte(`{}`)))
	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Options{Driver: "redis", URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "sqlite"})
	assert.Error(t, err)
}

// TestPostgres runs only when TEST_DATABASE_URL points at a scratch database.
func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	s, err := NewPostgres(context.Background(), url, "saved_call_lists_test")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}
