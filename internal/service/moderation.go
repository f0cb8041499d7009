package service

import (
	"strings"
	"time"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

// buildModeration 显式审核；rejected 必须给出原因
func buildModeration(status model.ModerationStatus, reason string, moderatorID uint64) (model.Moderation, error) {
	if !status.Valid() {
		return model.Moderation{}, ErrInvalidStatus
	}
	reason = strings.TrimSpace(reason)
	if status == model.StatusRejected && reason == "" {
		return model.Moderation{}, ErrReasonRequired
	}
	if status != model.StatusRejected {
		reason = ""
	}
	now := time.Now()
	return model.Moderation{
		Status:          status,
		ModeratedBy:     &moderatorID,
		ModeratedAt:     &now,
		RejectionReason: reason,
	}, nil
}

// ParseDirection up / down
func ParseDirection(s string) (mysql.Direction, error) {
	switch d := mysql.Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case mysql.MoveUp, mysql.MoveDown:
		return d, nil
	}
	return "", ErrInvalidInput
}
