package service

import (
	"english_club_backend/internal/config"
	"sync/atomic"
)

// RulesHolder 保存当前生效的 XP 规则，支持配置热更新
type RulesHolder struct {
	current atomic.Pointer[XPRules]
}

func NewRulesHolder(cfg config.XPConfig) *RulesHolder {
	h := &RulesHolder{}
	h.Update(cfg)
	return h
}

func (h *RulesHolder) Get() XPRules {
	return *h.current.Load()
}

func (h *RulesHolder) Update(cfg config.XPConfig) {
	rules := NewXPRules(cfg)
	h.current.Store(&rules)
}
