package service

import (
	"strings"

	"golang.org/x/text/cases"

	"Redrow_Exposed/internal/model"
)

// Filter 证据与投诉列表的筛选条件，空值或 "all" 表示不过滤
type Filter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Severity string `form:"severity"`
}

// Searchable 参与筛选的字段
type Searchable struct {
	Text     []string
	Category string
	Severity string
}

func unset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

func (f Filter) IsEmpty() bool {
	return unset(f.Search) && unset(f.Category) && unset(f.Severity)
}

// Match 三个条件取交集
func (f Filter) Match(s Searchable) bool {
	if !unset(f.Category) && !strings.EqualFold(strings.TrimSpace(f.Category), s.Category) {
		return false
	}
	if !unset(f.Severity) && strings.TrimSpace(f.Severity) != s.Severity {
		return false
	}
	if unset(f.Search) {
		return true
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))
	for _, t := range s.Text {
		if strings.Contains(fold.String(t), needle) {
			return true
		}
	}
	return false
}

// ApplyFilter 保持原有顺序
func ApplyFilter[T any](items []T, f Filter, fields func(*T) Searchable) []T {
	if f.IsEmpty() {
		return items
	}
	out := make([]T, 0, len(items))
	for i := range items {
		if f.Match(fields(&items[i])) {
			out = append(out, items[i])
		}
	}
	return out
}

func evidenceFields(e *model.Evidence) Searchable {
	return Searchable{
		Text:     []string{e.Title, e.Description, e.Location, e.Development},
		Category: e.Category,
		Severity: e.Severity,
	}
}

func complaintFields(c *model.Complaint) Searchable {
	return Searchable{
		Text:     []string{c.Title, c.Description, c.Development},
		Category: c.Category,
		Severity: c.Severity,
	}
}
