package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
	"github.com/nekogravitycat/cab-booking-backend/internal/fleet"
	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// WithinTx runs fn in a single storage transaction. If fn returns an error
	// every write made through tx is discarded.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side of the store. Booking status and vehicle availability
// are only ever written through it.
type Tx interface {
	Insert(ctx context.Context, b *Booking) error

	// LockByID loads a booking and holds it against concurrent writers until the transaction ends.
	LockByID(ctx context.Context, id string) (*Booking, error)

	// UpdateIfStatus persists b only if the stored status still equals expected.
	// It returns ErrInvalidState when another writer got there first.
	UpdateIfStatus(ctx context.Context, b *Booking, expected Status) error

	// LockVehicle loads a vehicle, including soft-deleted ones, and holds it until the transaction ends.
	LockVehicle(ctx context.Context, id string) (*fleet.Vehicle, error)

	// GetDriver loads a driver, including soft-deleted ones.
	GetDriver(ctx context.Context, id string) (*fleet.Driver, error)

	// SetVehicleAvailability flips availability only if it currently holds the opposite value.
	// changed is false when the vehicle was already in the requested state.
	SetVehicleAvailability(ctx context.Context, vehicleID string, available bool) (changed bool, err error)

	// Associations reads association rows through this transaction. A
	// transaction must not wait on a second pooled connection while it holds
	// row locks, or concurrent writers can exhaust the pool.
	Associations() association.Repository
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"id", "company_id", "vendor_id", "driver_id", "vehicle_id",
	"guest_name", "guest_contact", "guest_location",
	"pickup_location", "dropoff_location", "pickup_time", "car_category",
	"reference_name", "trip_details",
	"status", "in_open_market", "open_market_time", "open_market_vendor_id",
	"rejection_reason", "dropoff_time", "created_at", "updated_at",
}

var sortColumns = map[SortField]string{
	SortByCreatedAt:      "created_at",
	SortByOpenMarketTime: "open_market_time",
	SortByPickupTime:     "pickup_time",
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.CompanyID, &b.VendorID, &b.DriverID, &b.VehicleID,
		&b.GuestName, &b.GuestContact, &b.GuestLocation,
		&b.PickupLocation, &b.DropoffLocation, &b.PickupTime, &b.CarCategory,
		&b.ReferenceName, &b.TripDetails,
		&b.Status, &b.InOpenMarket, &b.OpenMarketTime, &b.OpenMarketVendorID,
		&b.RejectionReason, &b.DropoffTime, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

// mapLookupError turns "no row" and malformed ids into notFound. Ids are
// validated before querying; inside a transaction a server-side parse error
// would abort every later statement.
func mapLookupError(err error, notFound error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
		return notFound
	}
	return apperror.Storage(fmt.Errorf("%s failed: %w", op, err))
}

// partyColumns follow bookingColumns in joined reads.
var partyColumns = []string{
	"c.company_name", "c.contact_person", "c.phone",
	"v.vendor_name",
	"d.name", "d.phone",
	"vh.plate_number", "vh.type", "vh.model",
}

// selectWithParties selects bookings as b, left-joined with their company,
// vendor, driver and vehicle. It must not be combined with FOR UPDATE.
func selectWithParties(extra ...string) squirrel.SelectBuilder {
	cols := make([]string, 0, len(bookingColumns)+len(partyColumns)+len(extra))
	for _, c := range bookingColumns {
		cols = append(cols, "b."+c)
	}
	cols = append(cols, partyColumns...)
	cols = append(cols, extra...)

	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(cols...).
		From("public.bookings b").
		LeftJoin("public.companies c ON c.id = b.company_id").
		LeftJoin("public.vendors v ON v.id = b.vendor_id").
		LeftJoin("public.drivers d ON d.id = b.driver_id").
		LeftJoin("public.vehicles vh ON vh.id = b.vehicle_id")
}

// partyRow receives the nullable partyColumns of one row.
type partyRow struct {
	companyName, companyContact, companyPhone *string
	vendorName                                *string
	driverName, driverPhone                   *string
	plateNumber                               *string
	vehicleType                               *fleet.CarCategory
	vehicleModel                              *string
}

func (p *partyRow) dest() []any {
	return []any{
		&p.companyName, &p.companyContact, &p.companyPhone,
		&p.vendorName,
		&p.driverName, &p.driverPhone,
		&p.plateNumber, &p.vehicleType, &p.vehicleModel,
	}
}

func (p *partyRow) attach(b *Booking) {
	if p.companyName != nil {
		b.Company = &CompanySummary{Name: *p.companyName, ContactPerson: p.companyContact, Phone: p.companyPhone}
	}
	if p.vendorName != nil {
		b.Vendor = &VendorSummary{Name: *p.vendorName}
	}
	if p.driverName != nil {
		b.Driver = &DriverSummary{Name: *p.driverName, Phone: p.driverPhone}
	}
	if p.plateNumber != nil && p.vehicleType != nil {
		b.Vehicle = &VehicleSummary{PlateNumber: *p.plateNumber, Type: *p.vehicleType, Model: p.vehicleModel}
	}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	query, args, err := selectWithParties().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var parties partyRow
	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...), parties.dest()...)
	if err != nil {
		return nil, mapLookupError(err, ErrNotFound, "get booking")
	}
	parties.attach(b)
	return b, nil
}

func lockBooking(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock booking query failed: %w", err)
	}

	b, err := scanBooking(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapLookupError(err, ErrNotFound, "lock booking")
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectWithParties("count(*) OVER() AS total_count")

	if filter.CompanyID != "" {
		query = query.Where(squirrel.Eq{"b.company_id": filter.CompanyID})
	}
	if filter.CompanyIDs != nil {
		// squirrel renders an empty IN list as (1=0)
		query = query.Where(squirrel.Eq{"b.company_id": filter.CompanyIDs})
	}
	if filter.VendorID != "" {
		query = query.Where(squirrel.Eq{"b.vendor_id": filter.VendorID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.InOpenMarket != nil {
		query = query.Where(squirrel.Eq{"b.in_open_market": *filter.InOpenMarket})
	}

	// Sorting
	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = sortColumns[SortByCreatedAt]
	}
	orderDir := "DESC"
	if filter.SortAsc {
		orderDir = "ASC"
	}
	query = query.OrderBy("b."+orderBy+" "+orderDir, "b.id "+orderDir)

	// Pagination
	if filter.Page > 0 {
		if filter.PageSize < 1 {
			filter.PageSize = 20
		}
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, apperror.Storage(fmt.Errorf("list bookings failed: %w", err))
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var parties partyRow
		b, err := scanBooking(rows, append(parties.dest(), &total)...)
		if err != nil {
			return nil, 0, apperror.Storage(fmt.Errorf("scan booking failed: %w", err))
		}
		parties.attach(b)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage(fmt.Errorf("iterate bookings failed: %w", err))
	}

	return bookings, total, nil
}

func (r *pgxRepository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperror.Storage(fmt.Errorf("begin transaction failed: %w", err))
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback(ctx)

	if err := fn(&pgxTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.Storage(fmt.Errorf("commit transaction failed: %w", err))
	}
	return nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Insert(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"company_id", "vendor_id", "driver_id", "vehicle_id",
			"guest_name", "guest_contact", "guest_location",
			"pickup_location", "dropoff_location", "pickup_time", "car_category",
			"reference_name", "trip_details",
			"status", "in_open_market", "created_at", "updated_at",
		).
		Values(
			b.CompanyID, b.VendorID, b.DriverID, b.VehicleID,
			b.GuestName, b.GuestContact, b.GuestLocation,
			b.PickupLocation, b.DropoffLocation, b.PickupTime, b.CarCategory,
			b.ReferenceName, b.TripDetails,
			b.Status, b.InOpenMarket, b.CreatedAt, b.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := t.tx.QueryRow(ctx, query, args...).Scan(&b.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrReferenceNotFound
		}
		return apperror.Storage(fmt.Errorf("create booking failed: %w", err))
	}
	return nil
}

func (t *pgxTx) Associations() association.Repository {
	return association.NewTxRepository(t.tx)
}

func (t *pgxTx) LockByID(ctx context.Context, id string) (*Booking, error) {
	return lockBooking(ctx, t.tx, id)
}

func (t *pgxTx) UpdateIfStatus(ctx context.Context, b *Booking, expected Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("vendor_id", b.VendorID).
		Set("driver_id", b.DriverID).
		Set("vehicle_id", b.VehicleID).
		Set("status", b.Status).
		Set("in_open_market", b.InOpenMarket).
		Set("open_market_time", b.OpenMarketTime).
		Set("open_market_vendor_id", b.OpenMarketVendorID).
		Set("rejection_reason", b.RejectionReason).
		Set("dropoff_time", b.DropoffTime).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Eq{"status": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrReferenceNotFound
		}
		return apperror.Storage(fmt.Errorf("update booking failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func (t *pgxTx) LockVehicle(ctx context.Context, id string) (*fleet.Vehicle, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrVehicleNotFound
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(fleet.VehicleColumns()...).
		From("public.vehicles").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock vehicle query failed: %w", err)
	}

	v, err := fleet.ScanVehicle(t.tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapLookupError(err, ErrVehicleNotFound, "lock vehicle")
	}
	return v, nil
}

func (t *pgxTx) GetDriver(ctx context.Context, id string) (*fleet.Driver, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrDriverNotFound
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(fleet.DriverColumns()...).
		From("public.drivers").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR SHARE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get driver query failed: %w", err)
	}

	d, err := fleet.ScanDriver(t.tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapLookupError(err, ErrDriverNotFound, "get driver")
	}
	return d, nil
}

func (t *pgxTx) SetVehicleAvailability(ctx context.Context, vehicleID string, available bool) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.vehicles").
		Set("availability", available).
		Where(squirrel.Eq{"id": vehicleID}).
		Where(squirrel.Eq{"availability": !available}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build set vehicle availability query failed: %w", err)
	}

	ct, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return false, apperror.Storage(fmt.Errorf("set vehicle availability failed: %w", err))
	}
	return ct.RowsAffected() == 1, nil
}
