package service

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// ListFetchLimit 列表一次最多读取的行数，分页在内存中完成
	ListFetchLimit = 500
)

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate 第 k 页为 items[(k-1)P, kP)，超出范围返回空页
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	n := len(items)
	p := Page[T]{Page: page, PageSize: size, Total: n, TotalPages: (n + size - 1) / size, Items: []T{}}

	start := (page - 1) * size
	if start >= n {
		return p
	}
	end := min(start+size, n)
	p.Items = items[start:end]
	return p
}
