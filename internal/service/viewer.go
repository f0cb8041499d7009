package service

import "Redrow_Exposed/internal/model"

// Viewer 当前请求的用户；匿名请求 UserID 为 0
type Viewer struct {
	UserID uint64
	Role   model.Role
}

func (v Viewer) IsModerator() bool {
	return v.UserID != 0 && v.Role.AtLeast(model.RoleModerator)
}

// CanManage 作者本人或审核员
func (v Viewer) CanManage(ownerID uint64) bool {
	return v.UserID != 0 && (v.UserID == ownerID || v.IsModerator())
}
