package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlerts(t *testing.T) {
	s := NewService(NewMemoryRepository())
	ctx := context.Background()

	require.NoError(t, s.Notify(ctx, 1, TypeOrder, "Order placed", "ORD-1"))
	require.NoError(t, s.Notify(ctx, 1, TypeSystem, "Welcome", ""))
	require.NoError(t, s.Notify(ctx, 2, TypeSystem, "Other user", ""))

	alerts, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Welcome", alerts[0].Title, "newest first")
	assert.Nil(t, alerts[0].ReadAt)

	require.NoError(t, s.MarkRead(ctx, 1, alerts[1].ID))
	assert.ErrorIs(t, s.MarkRead(ctx, 1, 3), ErrAlertNotFound, "alerts of other users are invisible")

	alerts, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, alerts[0].ReadAt)
	assert.NotNil(t, alerts[1].ReadAt)

	require.NoError(t, s.MarkAllRead(ctx, 1))
	alerts, err = s.List(ctx, 1)
	require.NoError(t, err)
	for _, a := range alerts {
		assert.NotNil(t, a.ReadAt)
	}

	other, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, other[0].ReadAt)

	empty, err := s.List(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
