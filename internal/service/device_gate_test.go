package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeviceGate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gate := NewDeviceGate(store.repos().Device, zap.NewNop())

	device, trusted, err := gate.Check(ctx, "u1", "10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, device)
	assert.False(t, trusted)

	trustedDevice, err := gate.Trust(ctx, "u1", "10.0.0.1", "agent")
	require.NoError(t, err)
	assert.True(t, trustedDevice.Allow)

	device, trusted, err = gate.Check(ctx, "u1", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, trusted)
	assert.Equal(t, trustedDevice.ID, device.ID)

	_, trusted, err = gate.Check(ctx, "u1", "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, trusted, "trust is per address")

	_, trusted, err = gate.Check(ctx, "u2", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, trusted, "trust is per user")

	again, err := gate.Trust(ctx, "u1", "10.0.0.1", "agent")
	require.NoError(t, err)
	assert.Equal(t, trustedDevice.ID, again.ID)
}

func TestDeviceGate_Bound(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gate := NewDeviceGate(store.repos().Device, zap.NewNop())

	device, err := gate.Trust(ctx, "u1", "10.0.0.1", "agent")
	require.NoError(t, err)

	bound, err := gate.Bound(ctx, device.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", bound.IP)

	_, err = gate.Bound(ctx, device.ID, "u2")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = gate.Bound(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	store.mu.Lock()
	d := store.devices[device.ID]
	d.Allow = false
	store.devices[device.ID] = d
	store.mu.Unlock()

	_, err = gate.Bound(ctx, device.ID, "u1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
