package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

func newTestReputation() (*ReputationService, *MockBlacklistRepository, *MockWhitelistRepository) {
	bl := NewMockBlacklistRepository()
	wl := NewMockWhitelistRepository()
	return NewReputationService(bl, wl), bl, wl
}

func TestRecordBlock(t *testing.T) {
	// Arrange
	svc, bl, wl := newTestReputation()
	ctx := context.Background()
	require.NoError(t, svc.EnsureTracked(ctx, "203.0.113.7"))

	// Act
	err := svc.RecordBlock(ctx, "203.0.113.7", constants.BlockReasonGeo)

	// Assert
	require.NoError(t, err)
	blocked, _ := svc.IsBlacklisted(ctx, "203.0.113.7")
	assert.True(t, blocked)
	assert.Equal(t, 1, bl.get("203.0.113.7").Times)
	assert.Equal(t, constants.BlockReasonGeo, bl.get("203.0.113.7").Reason)
	assert.True(t, wl.get("203.0.113.7").Blacklisted)
	assert.Equal(t, 1, wl.get("203.0.113.7").BlacklistedCount)
}

func TestRecordBlock_ConcurrentCountsEveryEvent(t *testing.T) {
	svc, bl, wl := newTestReputation()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.RecordBlock(context.Background(), "198.51.100.1", constants.BlockReasonDenyList)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, bl.get("198.51.100.1").Times)
	assert.Equal(t, n, wl.get("198.51.100.1").BlacklistedCount)
}

func TestRecordBlock_BothWritesAttempted(t *testing.T) {
	t.Run("Deny list fails", func(t *testing.T) {
		svc, bl, wl := newTestReputation()
		bl.upsertErr = errStorage

		err := svc.RecordBlock(context.Background(), "192.0.2.1", constants.BlockReasonGeo)

		require.Error(t, err)
		assert.ErrorIs(t, err, errStorage)
		assert.NotNil(t, wl.get("192.0.2.1"), "allow-list write must still run")
	})

	t.Run("Both fail", func(t *testing.T) {
		svc, bl, wl := newTestReputation()
		otherErr := errors.New("allow-list down")
		bl.upsertErr = errStorage
		wl.markErr = otherErr

		err := svc.RecordBlock(context.Background(), "192.0.2.1", constants.BlockReasonGeo)

		assert.ErrorIs(t, err, errStorage)
		assert.ErrorIs(t, err, otherErr)
	})
}

func TestAddManualAndSoftDelete(t *testing.T) {
	svc, _, wl := newTestReputation()
	ctx := context.Background()

	entry, err := svc.AddManual(ctx, "192.0.2.50")
	require.NoError(t, err)
	assert.Equal(t, constants.BlockReasonManual, entry.Reason)
	assert.True(t, wl.get("192.0.2.50").Blacklisted)

	require.NoError(t, svc.SoftDelete(ctx, entry.ID))
	blocked, _ := svc.IsBlacklisted(ctx, "192.0.2.50")
	assert.False(t, blocked)
	assert.True(t, wl.get("192.0.2.50").Blacklisted, "allow-list keeps history")

	// Blocking again reinstates the row and keeps counting.
	require.NoError(t, svc.RecordBlock(ctx, "192.0.2.50", constants.BlockReasonGeo))
	blocked, _ = svc.IsBlacklisted(ctx, "192.0.2.50")
	assert.True(t, blocked)
}

func TestAddManual_AllowListFailureIsNotFatal(t *testing.T) {
	svc, _, wl := newTestReputation()
	wl.markErr = errStorage

	entry, err := svc.AddManual(context.Background(), "192.0.2.9")

	require.NoError(t, err)
	assert.Equal(t, 1, entry.Times)
}

func TestAddManual_StoresCanonicalAddress(t *testing.T) {
	tests := []struct {
		name     string
		typed    string
		clientIP string
	}{
		{"Upper-case IPv6", "2001:DB8::1", "2001:db8::1"},
		{"Expanded IPv6", "2001:0db8:0000:0000:0000:0000:0000:0001", "2001:db8::1"},
		{"IPv4-mapped IPv6", "::ffff:203.0.113.9", "203.0.113.9"},
		{"Surrounding spaces", "  198.51.100.4 ", "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			svc, bl, _ := newTestReputation()
			ctx := context.Background()

			// Act
			entry, err := svc.AddManual(ctx, tt.typed)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.clientIP, entry.IPAddress)
			blocked, err := bl.IsBlacklisted(ctx, tt.clientIP)
			require.NoError(t, err)
			assert.True(t, blocked, "admission looks the client up by its canonical address")
		})
	}
}

func TestAddManual_RejectsNonAddress(t *testing.T) {
	svc, bl, _ := newTestReputation()

	_, err := svc.AddManual(context.Background(), "not-an-ip")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, utils.StatusCode(err))
	assert.Empty(t, bl.entries)
}

func TestReputation_LookupsUseCanonicalAddress(t *testing.T) {
	svc, _, wl := newTestReputation()
	ctx := context.Background()

	require.NoError(t, svc.EnsureTracked(ctx, "::FFFF:192.0.2.77"))
	require.NoError(t, svc.RecordBlock(ctx, "::ffff:192.0.2.77", constants.BlockReasonDenyList))

	blocked, err := svc.IsBlacklisted(ctx, "192.0.2.77")
	require.NoError(t, err)
	assert.True(t, blocked)
	require.NotNil(t, wl.get("192.0.2.77"))
	assert.Equal(t, 1, wl.get("192.0.2.77").BlacklistedCount)
}

func TestSoftDelete_NotFound(t *testing.T) {
	svc, _, _ := newTestReputation()

	err := svc.SoftDelete(context.Background(), 99)

	assert.True(t, utils.IsNotFoundError(err))
}

func TestListAndReconcile(t *testing.T) {
	svc, _, wl := newTestReputation()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordBlock(ctx, fmt.Sprintf("10.0.0.%d", i), constants.BlockReasonGeo))
	}

	entries, total, err := svc.ListBlacklist(ctx, utils.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, entries, 3)

	_, total, err = svc.ListWhitelist(ctx, utils.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	wl.reconciled = 2
	changed, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
}
