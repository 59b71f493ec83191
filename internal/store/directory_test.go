package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucpkit/ucpcheck/internal/simulate"
)

func TestUpsertMerchant(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	m, err := st.UpsertMerchant(ctx, "shop.example.com", "Example Shop")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "shop.example.com", m.Domain)
	assert.Equal(t, "example.com", m.RegistrableDomain)
	assert.Equal(t, "Example Shop", m.Name)
	assert.False(t, m.CreatedAt.IsZero())

	// Upserting the same domain returns the existing row untouched.
	again, err := st.UpsertMerchant(ctx, "shop.example.com", "Other Name")
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, "Example Shop", again.Name)
}

func TestListMerchants(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"c.example.com", "a.example.com", "b.other.net"} {
		_, err := st.UpsertMerchant(ctx, d, "")
		require.NoError(t, err)
	}

	all, err := st.ListMerchants(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a.example.com", all[0].Domain)
	assert.Equal(t, "b.other.net", all[1].Domain)
	assert.Equal(t, "c.example.com", all[2].Domain)

	filtered, err := st.ListMerchants(ctx, "example", 0, 0)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	page, err := st.ListMerchants(ctx, "", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b.other.net", page[0].Domain)

	n, err := st.CountMerchants(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = st.CountMerchants(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func sampleResult(domain string, score int, at time.Time) *simulate.Result {
	return &simulate.Result{
		Domain:       domain,
		OverallScore: score,
		Grade:        "B",
		ProfileHash:  "abc123",
		SimulatedAt:  at,
	}
}

func TestSaveAndLatestReport(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)
	older := sampleResult("shop.example.com", 72, t0)
	newer := sampleResult("shop.example.com", 85, t0.Add(time.Hour))

	_, err := st.SaveReport(ctx, older, older.ProfileHash)
	require.NoError(t, err)
	rep, err := st.SaveReport(ctx, newer, newer.ProfileHash)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 85, rep.Score)

	latest, err := st.LatestReport(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, rep.ID, latest.ID)
	assert.Equal(t, 85, latest.Score)
	assert.Equal(t, "abc123", latest.ProfileHash)
	assert.True(t, latest.SimulatedAt.Equal(newer.SimulatedAt))

	var decoded simulate.Result
	require.NoError(t, json.Unmarshal(latest.Result, &decoded))
	assert.Equal(t, "shop.example.com", decoded.Domain)
	assert.Equal(t, 85, decoded.OverallScore)

	// Saving under a new domain creates the merchant on demand.
	merchants, err := st.ListMerchants(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, merchants, 1)
}

func TestLatestReportNotFound(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.LatestReport(ctx, "unknown.example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// Merchant exists but has no reports.
	_, err = st.UpsertMerchant(ctx, "empty.example.com", "")
	require.NoError(t, err)
	_, err = st.LatestReport(ctx, "empty.example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
