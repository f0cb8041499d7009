package service

import "unicode/utf8"

// Layout 证据卡片布局
type Layout string

const (
	LayoutCompactCard  Layout = "compact-card"
	LayoutGalleryFocus Layout = "gallery-focus"
	LayoutRichMedia    Layout = "rich-media"
	LayoutTextFocus    Layout = "text-focus"
	LayoutBalanced     Layout = "balanced"
)

// EvidenceLayout 按顺序匹配，第一条命中的规则生效
func EvidenceLayout(photoCount, descLen int) Layout {
	switch {
	case photoCount == 1 && descLen < 200:
		return LayoutCompactCard
	case photoCount > 3 && descLen < 50:
		return LayoutGalleryFocus
	case photoCount > 2 && descLen > 200:
		return LayoutRichMedia
	case photoCount == 0 && descLen > 100:
		return LayoutTextFocus
	default:
		return LayoutBalanced
	}
}

// DescriptionLength 按字符计数
func DescriptionLength(s string) int {
	return utf8.RuneCountInString(s)
}
