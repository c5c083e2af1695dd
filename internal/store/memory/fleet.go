package memory

import (
	"context"
	"sort"

	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
)

type fleetRepository struct {
	s *Store
}

func (r *fleetRepository) GetDriver(ctx context.Context, id string) (*fleet.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.drivers[id]
	if !ok || d.Deleted() {
		return nil, fleet.ErrDriverNotFound
	}
	c := *d
	return &c, nil
}

func (r *fleetRepository) GetVehicle(ctx context.Context, id string) (*fleet.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.vehicles[id]
	if !ok || v.Deleted() {
		return nil, fleet.ErrVehicleNotFound
	}
	c := *v
	return &c, nil
}

func (r *fleetRepository) ListDrivers(ctx context.Context, vendorID string) ([]*fleet.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var drivers []*fleet.Driver
	for _, d := range r.s.drivers {
		if d.VendorID != vendorID || d.Deleted() {
			continue
		}
		c := *d
		drivers = append(drivers, &c)
	}
	sort.Slice(drivers, func(i, j int) bool {
		return drivers[i].CreatedAt.After(drivers[j].CreatedAt)
	})
	return drivers, nil
}

func (r *fleetRepository) ListVehicles(ctx context.Context, filter fleet.VehicleFilter) ([]*fleet.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var vehicles []*fleet.Vehicle
	for _, v := range r.s.vehicles {
		if v.VendorID != filter.VendorID || v.Deleted() {
			continue
		}
		if filter.AvailableOnly && !v.Availability {
			continue
		}
		if filter.Type != "" && v.Type != filter.Type {
			continue
		}
		c := *v
		vehicles = append(vehicles, &c)
	}
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].CreatedAt.After(vehicles[j].CreatedAt)
	})
	return vehicles, nil
}
