package pagination

// ListMeta describes an accumulated, cursor-paged list.
type ListMeta struct {
	PageSize    int    `json:"page_size"            yaml:"page_size"`
	PagesLoaded int    `json:"pages_loaded"         yaml:"pages_loaded"`
	TotalLoaded int    `json:"total_loaded"         yaml:"total_loaded"`
	HasMore     bool   `json:"has_more"             yaml:"has_more"`
	SortField   string `json:"sort_field,omitempty" yaml:"sort_field,omitempty"`
	SortOrder   string `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
}

// NewListMeta creates list metadata from the parameters used and the final list state.
func NewListMeta(params PaginationParams, pagesLoaded, totalLoaded int, hasMore bool) ListMeta {
	meta := ListMeta{
		PageSize:    params.PageSize,
		PagesLoaded: pagesLoaded,
		TotalLoaded: totalLoaded,
		HasMore:     hasMore,
	}
	if params.SortField != "" {
		meta.SortField = params.SortField
		meta.SortOrder = params.SortOrder
	}
	return meta
}
