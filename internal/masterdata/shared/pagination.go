package shared

// ListFilters represents standard list page filters
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool

	// Entity specific filters
	Category string
	Region   string
}

// Normalize applies the default page and limit.
func (f ListFilters) Normalize() ListFilters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// Offset returns the row offset of the requested page.
func (f ListFilters) Offset() uint64 {
	f = f.Normalize()
	return uint64((f.Page - 1) * f.Limit)
}
