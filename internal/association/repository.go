package association

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

	"github.com/nekogravitycat/cab-booking-backend/internal/pkg/apperror"
)

// Repository reads company-vendor and vendor-vendor association rows.
// It never mutates them.
type Repository interface {
	CompanyExists(ctx context.Context, companyID string) (bool, error)
	VendorExists(ctx context.Context, vendorID string) (bool, error)
	VendorIDsForCompany(ctx context.Context, companyID string) ([]string, error)
	CompanyIDsForVendor(ctx context.Context, vendorID string) ([]string, error)
	// PartnerIDs returns the vendor's partner network in both directions of vendor_vendor_associations.
	PartnerIDs(ctx context.Context, vendorID string) ([]string, error)
	ListCompanyVendors(ctx context.Context, companyID string) ([]*VendorSummary, error)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgxRepository struct {
	db querier
}

// NewPgxRepository creates a new association repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{db: pool}
}

// NewTxRepository reads associations on the connection of an open transaction.
// Callers already holding a pooled connection must use it instead of the pool.
func NewTxRepository(tx pgx.Tx) Repository {
	return &pgxRepository{db: tx}
}

// validID reports whether id can name a row at all. Anything else is an
// unknown account and never reaches the database.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// isMalformedID reports whether Postgres rejected an id that is not a uuid.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

func (r *pgxRepository) CompanyExists(ctx context.Context, companyID string) (bool, error) {
	return r.exists(ctx, "public.companies", companyID)
}

func (r *pgxRepository) VendorExists(ctx context.Context, vendorID string) (bool, error) {
	return r.exists(ctx, "public.vendors", vendorID)
}

func (r *pgxRepository) exists(ctx context.Context, table, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("1").
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query failed: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, apperror.Storage(fmt.Errorf("check %s exists failed: %w", table, err))
	}
	return exists, nil
}

func (r *pgxRepository) VendorIDsForCompany(ctx context.Context, companyID string) ([]string, error) {
	if !validID(companyID) {
		return []string{}, nil
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("vendor_id").
		From("public.company_vendor_associations").
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("vendor_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build company vendors query failed: %w", err)
	}
	return r.collectIDs(ctx, query, args)
}

func (r *pgxRepository) CompanyIDsForVendor(ctx context.Context, vendorID string) ([]string, error) {
	if !validID(vendorID) {
		return []string{}, nil
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("company_id").
		From("public.company_vendor_associations").
		Where(squirrel.Eq{"vendor_id": vendorID}).
		OrderBy("company_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build vendor companies query failed: %w", err)
	}
	return r.collectIDs(ctx, query, args)
}

func (r *pgxRepository) PartnerIDs(ctx context.Context, vendorID string) ([]string, error) {
	if !validID(vendorID) {
		return []string{}, nil
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	// A row (A, B) makes A and B partners of each other.
	query, args, err := psql.Select().
		Distinct().
		Column(squirrel.Expr("CASE WHEN vendor_id = ? THEN associated_vendor_id ELSE vendor_id END AS partner_id", vendorID)).
		From("public.vendor_vendor_associations").
		Where(squirrel.Or{
			squirrel.Eq{"vendor_id": vendorID},
			squirrel.Eq{"associated_vendor_id": vendorID},
		}).
		OrderBy("partner_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build partners query failed: %w", err)
	}
	return r.collectIDs(ctx, query, args)
}

func (r *pgxRepository) ListCompanyVendors(ctx context.Context, companyID string) ([]*VendorSummary, error) {
	if !validID(companyID) {
		return []*VendorSummary{}, nil
	}
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("v.id", "v.vendor_name", "v.contact_person", "v.phone").
		From("public.company_vendor_associations a").
		Join("public.vendors v ON a.vendor_id = v.id").
		Where(squirrel.Eq{"a.company_id": companyID}).
		OrderBy("v.vendor_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list company vendors query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("list company vendors failed: %w", err))
	}
	defer rows.Close()

	var vendors []*VendorSummary
	for rows.Next() {
		var v VendorSummary
		if err := rows.Scan(&v.ID, &v.Name, &v.ContactPerson, &v.Phone); err != nil {
			return nil, apperror.Storage(fmt.Errorf("scan vendor failed: %w", err))
		}
		vendors = append(vendors, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage(fmt.Errorf("iterate vendors failed: %w", err))
	}
	return vendors, nil
}

func (r *pgxRepository) collectIDs(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		if isMalformedID(err) {
			return []string{}, nil
		}
		return nil, apperror.Storage(fmt.Errorf("query association ids failed: %w", err))
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.Storage(fmt.Errorf("scan association id failed: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		// An id that is not a uuid has no associations.
		if isMalformedID(err) {
			return []string{}, nil
		}
		return nil, apperror.Storage(fmt.Errorf("iterate association ids failed: %w", err))
	}
	return ids, nil
}
