package memory

import (
	"context"
	"sort"

	"github.com/nekogravitycat/cab-booking-backend/internal/association"
)

type associationRepository struct {
	s *Store
}

func (r *associationRepository) CompanyExists(ctx context.Context, companyID string) (bool, error) {
	r.s.assocMu.RLock()
	defer r.s.assocMu.RUnlock()
	_, ok := r.s.companies[companyID]
	return ok, nil
}

func (r *associationRepository) VendorExists(ctx context.Context, vendorID string) (bool, error) {
	r.s.assocMu.RLock()
	defer r.s.assocMu.RUnlock()
	_, ok := r.s.vendors[vendorID]
	return ok, nil
}

func (r *associationRepository) VendorIDsForCompany(ctx context.Context, companyID string) ([]string, error) {
	r.s.assocMu.RLock()
	defer r.s.assocMu.RUnlock()
	return sortedKeys(r.s.companyVendors[companyID]), nil
}

func (r *associationRepository) CompanyIDsForVendor(ctx context.Context, vendorID string) ([]string, error) {
	r.s.assocMu.RLock()
	defer r.s.assocMu.RUnlock()

	ids := []string{}
	for companyID, vendors := range r.s.companyVendors {
		if _, ok := vendors[vendorID]; ok {
			ids = append(ids, companyID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *associationRepository) PartnerIDs(ctx context.Context, vendorID string) ([]string, error) {
	r.s.assocMu.RLock()
	defer r.s.assocMu.RUnlock()
	return sortedKeys(r.s.partners[vendorID]), nil
}

func (r *associationRepository) ListCompanyVendors(ctx context.Context, companyID string) ([]*association.VendorSummary, error) {
	r.s.assocMu.RLock()
	defer r.s.assocMu.RUnlock()

	var vendors []*association.VendorSummary
	for vendorID := range r.s.companyVendors[companyID] {
		v, ok := r.s.vendors[vendorID]
		if !ok {
			continue
		}
		vendors = append(vendors, &association.VendorSummary{
			ID:            v.ID,
			Name:          v.Name,
			ContactPerson: v.ContactPerson,
			Phone:         v.Phone,
		})
	}
	sort.Slice(vendors, func(i, j int) bool {
		return vendors[i].Name < vendors[j].Name
	})
	return vendors, nil
}

// sortedKeys returns a non-nil slice so empty sets encode as [].
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
