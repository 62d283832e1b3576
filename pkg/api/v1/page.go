package v1

// Page is the envelope every backend list endpoint returns.
type Page[T any] struct {
	Content      []T   `json:"content"`
	PageNumber   int   `json:"pageNumber"`
	PageSize     int   `json:"pageSize"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
}

// Normalize fills fields the backend left out. A missing content list
// becomes empty and missing paging fields fall back to the requested ones.
func (p *Page[T]) Normalize(pageNumber, pageSize int) {
	if p.Content == nil {
		p.Content = []T{}
	}
	if p.PageNumber == 0 {
		p.PageNumber = pageNumber
	}
	if p.PageSize == 0 {
		p.PageSize = pageSize
	}
	if p.TotalPages == 0 && p.PageSize > 0 {
		p.TotalPages = int((p.TotalRecords + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
}
