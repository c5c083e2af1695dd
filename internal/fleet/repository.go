package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

// Repository reads drivers and vehicles. Soft-deleted rows are never returned.
type Repository interface {
	GetDriver(ctx context.Context, id string) (*Driver, error)
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	ListDrivers(ctx context.Context, vendorID string) ([]*Driver, error)
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]*Vehicle, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new fleet repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var (
	driverColumns  = []string{"id", "vendor_id", "name", "phone", "license_number", "created_at", "deleted_at"}
	vehicleColumns = []string{"id", "vendor_id", "type", "model", "plate_number", "condition_status", "availability", "created_at", "deleted_at"}
)

func (r *pgxRepository) GetDriver(ctx context.Context, id string) (*Driver, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(driverColumns...).
		From("public.drivers").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get driver query failed: %w", err)
	}

	d, err := ScanDriver(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDriverNotFound
		}
		return nil, apperror.Storage(fmt.Errorf("get driver failed: %w", err))
	}
	return d, nil
}

func (r *pgxRepository) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(vehicleColumns...).
		From("public.vehicles").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get vehicle query failed: %w", err)
	}

	v, err := ScanVehicle(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, apperror.Storage(fmt.Errorf("get vehicle failed: %w", err))
	}
	return v, nil
}

func (r *pgxRepository) ListDrivers(ctx context.Context, vendorID string) ([]*Driver, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(driverColumns...).
		From("public.drivers").
		Where(squirrel.Eq{"vendor_id": vendorID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list drivers query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("list drivers failed: %w", err))
	}
	defer rows.Close()

	var drivers []*Driver
	for rows.Next() {
		d, err := ScanDriver(rows)
		if err != nil {
			return nil, apperror.Storage(fmt.Errorf("scan driver failed: %w", err))
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(fmt.Errorf("iterate drivers failed: %w", err))
	}
	return drivers, nil
}

func (r *pgxRepository) ListVehicles(ctx context.Context, filter VehicleFilter) ([]*Vehicle, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(vehicleColumns...).
		From("public.vehicles").
		Where(squirrel.Eq{"vendor_id": filter.VendorID}).
		Where(squirrel.Eq{"deleted_at": nil})

	if filter.AvailableOnly {
		query = query.Where(squirrel.Eq{"availability": true})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"type": filter.Type})
	}

	sql, args, err := query.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list vehicles query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("list vehicles failed: %w", err))
	}
	defer rows.Close()

	var vehicles []*Vehicle
	for rows.Next() {
		v, err := ScanVehicle(rows)
		if err != nil {
			return nil, apperror.Storage(fmt.Errorf("scan vehicle failed: %w", err))
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(fmt.Errorf("iterate vehicles failed: %w", err))
	}
	return vehicles, nil
}

// DriverColumns lists the columns ScanDriver expects, in order.
func DriverColumns() []string { return append([]string(nil), driverColumns...) }

// VehicleColumns lists the columns ScanVehicle expects, in order.
func VehicleColumns() []string { return append([]string(nil), vehicleColumns...) }

// ScanDriver reads one row selected with DriverColumns.
func ScanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	if err := row.Scan(&d.ID, &d.VendorID, &d.Name, &d.Phone, &d.LicenseNumber, &d.CreatedAt, &d.DeletedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// ScanVehicle reads one row selected with VehicleColumns.
func ScanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	if err := row.Scan(&v.ID, &v.VendorID, &v.Type, &v.Model, &v.PlateNumber, &v.ConditionStatus, &v.Availability, &v.CreatedAt, &v.DeletedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
