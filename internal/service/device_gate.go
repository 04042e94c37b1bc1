package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/storefront-auth/internal/domain"
	"github.com/prperemyshlev/storefront-auth/internal/repository"
	"go.uber.org/zap"
)

// DeviceGate decides whether a (user, address) pair may sign in without an
// OTP challenge. Trust is per address and never revoked here.
type DeviceGate struct {
	devices repository.DeviceRepository
	logger  *zap.Logger
}

func NewDeviceGate(devices repository.DeviceRepository, logger *zap.Logger) *DeviceGate {
	return &DeviceGate{devices: devices, logger: logger}
}

// With returns a gate reading and writing through devices, typically the
// repository of an open transaction.
func (g *DeviceGate) With(devices repository.DeviceRepository) *DeviceGate {
	return &DeviceGate{devices: devices, logger: g.logger}
}

// Check returns the device record, if any, and whether it is trusted
func (g *DeviceGate) Check(ctx context.Context, userID, ip string) (*domain.Device, bool, error) {
	device, err := g.devices.GetByUserAndIP(ctx, userID, ip)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to check device: %w", err)
	}
	return device, device.Allow, nil
}

// Trust marks the pair as trusted after a verified OTP
func (g *DeviceGate) Trust(ctx context.Context, userID, ip, userAgent string) (*domain.Device, error) {
	device, err := g.devices.Trust(ctx, userID, ip, userAgent)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Device trusted",
		zap.String("user_id", userID),
		zap.String("device_id", device.ID),
		zap.String("ip", ip),
	)
	return device, nil
}

// Bound loads the device a refresh token points at and checks it still
// belongs to the user and is trusted.
func (g *DeviceGate) Bound(ctx context.Context, deviceID, userID string) (*domain.Device, error) {
	device, err := g.devices.GetByID(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized("device is not registered")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if device.UserID != userID || !device.Allow {
		return nil, unauthorized("device is not trusted")
	}
	return device, nil
}
