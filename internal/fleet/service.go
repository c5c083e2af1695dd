package fleet

import "context"

// Service exposes a vendor's drivers and vehicles to the vendor dashboard.
type Service interface {
	ListDrivers(ctx context.Context, vendorID string) ([]*Driver, error)
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]*Vehicle, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListDrivers(ctx context.Context, vendorID string) ([]*Driver, error) {
	return s.repo.ListDrivers(ctx, vendorID)
}

func (s *service) ListVehicles(ctx context.Context, filter VehicleFilter) ([]*Vehicle, error) {
	return s.repo.ListVehicles(ctx, filter)
}
