package domain

import "strings"

// Tier classifica o cliente e define o teto da rota de geração.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// Valores usados quando requests_per_minute não está configurado.
const (
	DefaultRequestsPerMinute = 5
	defaultFreeLimit         = 5
	defaultBasicLimit        = 10
	defaultPremiumLimit      = 15
)

var tierMultiplier = map[Tier]int{
	TierFree:    1,
	TierBasic:   2,
	TierPremium: 5,
}

// ParseTier aceita maiúsculas/espaços; desconhecido vira (free, false).
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierMultiplier[t]; ok {
		return t, true
	}
	return TierFree, false
}

// TierLimits mapeia cada tier para o teto por janela.
type TierLimits struct {
	Free    int
	Basic   int
	Premium int
}

// NewTierLimits aplica a regra de tiers:
//   - rpm <= 0: fallback fixo 5/10/15;
//   - rpm > 0: rpm × {1, 2, 5}, salvo override explícito (> 0) por tier.
func NewTierLimits(rpm int, overrides TierLimits) TierLimits {
	if rpm <= 0 {
		return TierLimits{Free: defaultFreeLimit, Basic: defaultBasicLimit, Premium: defaultPremiumLimit}
	}
	l := TierLimits{
		Free:    rpm * tierMultiplier[TierFree],
		Basic:   rpm * tierMultiplier[TierBasic],
		Premium: rpm * tierMultiplier[TierPremium],
	}
	if overrides.Free > 0 {
		l.Free = overrides.Free
	}
	if overrides.Basic > 0 {
		l.Basic = overrides.Basic
	}
	if overrides.Premium > 0 {
		l.Premium = overrides.Premium
	}
	return l
}

// UniformLimits usa o mesmo teto para todos os tiers (camada global).
func UniformLimits(rpm int) TierLimits {
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	return TierLimits{Free: rpm, Basic: rpm, Premium: rpm}
}

func (l TierLimits) For(t Tier) int {
	switch t {
	case TierBasic:
		return l.Basic
	case TierPremium:
		return l.Premium
	default:
		return l.Free
	}
}
