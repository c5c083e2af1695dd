package association

import (
	"context"
)

// Service is the read-only association registry.
// Lookups fail with a not-found error only when the company or vendor itself
// does not exist; an empty association set is a valid result.
type Service interface {
	VendorsForCompany(ctx context.Context, companyID string) ([]string, error)
	CompaniesForVendor(ctx context.Context, vendorID string) ([]string, error)
	PartnersOf(ctx context.Context, vendorID string) ([]string, error)
	IsCompanyVendor(ctx context.Context, companyID, vendorID string) (bool, error)
	ListCompanyVendors(ctx context.Context, companyID string) ([]*VendorSummary, error)
}

type service struct {
	repo Repository
}

// NewService creates a new association registry.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) VendorsForCompany(ctx context.Context, companyID string) ([]string, error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return s.repo.VendorIDsForCompany(ctx, companyID)
}

func (s *service) CompaniesForVendor(ctx context.Context, vendorID string) ([]string, error) {
	if err := s.requireVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.repo.CompanyIDsForVendor(ctx, vendorID)
}

func (s *service) PartnersOf(ctx context.Context, vendorID string) ([]string, error) {
	if err := s.requireVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.repo.PartnerIDs(ctx, vendorID)
}

// IsCompanyVendor reports whether the vendor is linked to the company.
// A missing company or vendor is simply not associated.
func (s *service) IsCompanyVendor(ctx context.Context, companyID, vendorID string) (bool, error) {
	if companyID == "" || vendorID == "" {
		return false, nil
	}
	vendorIDs, err := s.repo.VendorIDsForCompany(ctx, companyID)
	if err != nil {
		return false, err
	}
	for _, id := range vendorIDs {
		if id == vendorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ListCompanyVendors(ctx context.Context, companyID string) ([]*VendorSummary, error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListCompanyVendors(ctx, companyID)
}

func (s *service) requireCompany(ctx context.Context, companyID string) error {
	ok, err := s.repo.CompanyExists(ctx, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCompanyNotFound
	}
	return nil
}

func (s *service) requireVendor(ctx context.Context, vendorID string) error {
	ok, err := s.repo.VendorExists(ctx, vendorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVendorNotFound
	}
	return nil
}
