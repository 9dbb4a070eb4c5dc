package history

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"riskgate/internal/validation/models"
	"riskgate/internal/validation/store/request"
	id "riskgate/pkg/domain"
)

func seedRequest(t *testing.T, store *request.InMemory, email, identity string) *models.Request {
	t.Helper()
	req := &models.Request{
		ID:             id.NewRequestID(),
		CorrelationID:  uuid.NewString(),
		ClientID:       "client-1",
		AgencyID:       "AG-DAKAR-01",
		IdentityNumber: identity,
		Email:          email,
		Status:         models.StatusReceived,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, store.Create(context.Background(), req))
	return req
}

func TestSnapshotFallsBackToStore(t *testing.T) {
	store := request.NewInMemory()
	provider := New(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	seedRequest(t, store, "jean@example.com", "AB00000001")
	seedRequest(t, store, "jean@example.com", "AB00000002")
	current := seedRequest(t, store, "jean@example.com", "AB00000003")

	hist, err := provider.Snapshot(context.Background(), "jean@example.com", current.IdentityNumber, current.CorrelationID)
	require.NoError(t, err)

	// The submission being scored is excluded from its own counts.
	require.Equal(t, 2, hist.EmailUses24h)
	require.Equal(t, 2, hist.EmailUses30d)
	require.False(t, hist.IdentityInUse)
}

func TestSnapshotDetectsIdentityInUse(t *testing.T) {
	store := request.NewInMemory()
	provider := New(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	seedRequest(t, store, "first@example.com", "AB12345678")
	current := seedRequest(t, store, "second@example.com", "AB12345678")

	hist, err := provider.Snapshot(context.Background(), current.Email, current.IdentityNumber, current.CorrelationID)
	require.NoError(t, err)
	require.True(t, hist.IdentityInUse)
	require.Equal(t, 0, hist.EmailUses24h)
}

func TestSnapshotEmptyEmail(t *testing.T) {
	store := request.NewInMemory()
	provider := New(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	hist, err := provider.Snapshot(context.Background(), "", "", "")
	require.NoError(t, err)
	require.Zero(t, hist.EmailUses24h)
	require.False(t, hist.IdentityInUse)
}
