package models

// Page mirrors the paginator shape the frontend consumes.
type Page[T any] struct {
	CurrentPage int   `json:"current_page"`
	Data        []T   `json:"data"`
	PerPage     int   `json:"per_page"`
	Total       int   `json:"total"`
	LastPage    int   `json:"last_page"`
}

// Paginate slices items for the requested page. Pages are 1-based; an
// out-of-range page yields an empty data slice with the correct totals.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	data := make([]T, 0, end-start)
	data = append(data, items[start:end]...)

	return Page[T]{
		CurrentPage: page,
		Data:        data,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
}
