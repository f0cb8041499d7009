package model

// All AutoMigrate 使用的全部模型
func All() []any {
	return []any{
		&User{},
		&Evidence{},
		&EvidencePhoto{},
		&Claim{},
		&Complaint{},
		&FAQ{},
		&Article{},
		&SocialPost{},
		&GLOInterest{},
		&VisitorEvent{},
		&EmailTemplate{},
		&EmailTrigger{},
		&EmailLog{},
		&OutboxEvent{},
	}
}
