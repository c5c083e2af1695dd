package response

// PageResponse wraps one page of a newest-first booking listing.
type PageResponse[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	// Dashboards poll these endpoints; always send an array.
	if items == nil {
		items = []T{}
	}

	return PageResponse[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  page*pageSize < total,
	}
}
