package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-dashboard/internal/models"
)

func newTestClient(t *testing.T, ttl time.Duration) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisClient_StoreAndGetReport(t *testing.T) {
	client, mr := newTestClient(t, time.Minute)
	ctx := context.Background()

	mse := 4.0
	report := &models.Report{
		SessionID: "s-1",
		Threshold: 0.25,
		Summary:   models.Summary{Rows: 2, MSE: &mse},
	}
	key := Key("abc123", 0.25, -1)
	require.NoError(t, client.StoreReport(ctx, key, report))

	got, ok, err := client.GetReport(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s-1", got.SessionID)
	require.NotNil(t, got.Summary.MSE)
	assert.Equal(t, 4.0, *got.Summary.MSE)
	assert.Nil(t, got.Summary.TransmitPct)

	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestRedisClient_Miss(t *testing.T) {
	client, _ := newTestClient(t, time.Minute)

	got, ok, err := client.GetReport(context.Background(), Key("nope", 0.3, 0))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisClient_Expiry(t *testing.T) {
	client, mr := newTestClient(t, time.Second)
	ctx := context.Background()
	key := Key("abc", 0.25, 1)

	require.NoError(t, client.StoreReport(ctx, key, &models.Report{}))
	mr.FastForward(2 * time.Second)

	_, ok, err := client.GetReport(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisClient_CorruptEntry(t *testing.T) {
	client, mr := newTestClient(t, time.Minute)
	key := Key("abc", 0.25, 0)
	require.NoError(t, mr.Set(key, "{not json"))

	_, _, err := client.GetReport(context.Background(), key)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "report:fp:0.25:-1", Key("fp", 0.25, -1))
	assert.NotEqual(t, Key("fp", 0.25, 0), Key("fp", 0.30, 0))
}

func TestKey_ThresholdsBeyondFourDecimalsDoNotCollide(t *testing.T) {
	assert.Equal(t, "report:fp:0.25004:0", Key("fp", 0.25004, 0))
	assert.NotEqual(t, Key("fp", 0.25, 0), Key("fp", 0.25004, 0))
	assert.NotEqual(t, Key("fp", 0.25, 0), Key("fp", 0.250000001, 0))
}

func TestRedisClient_NearbyThresholdsAreSeparateEntries(t *testing.T) {
	client, _ := newTestClient(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, client.StoreReport(ctx, Key("fp", 0.25, -1), &models.Report{Threshold: 0.25}))

	got, ok, err := client.GetReport(ctx, Key("fp", 0.25004, -1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewRedisClient(ctx, addr, time.Minute)
	assert.Error(t, err)
}
