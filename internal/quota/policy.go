package quota

const (
	PlanFree    = "free"
	PlanPremium = "premium"
	PlanUltra   = "ultra"
)

const (
	FreeLimitBytes    int64 = 20 << 30
	PremiumLimitBytes int64 = 1 << 40
	UltraLimitBytes   int64 = 2 << 40
)

// LimitFor maps a plan type to its storage limit in bytes. Unknown plan
// types get the free-tier allowance, not zero.
func LimitFor(planType string) int64 {
	switch planType {
	case PlanPremium:
		return PremiumLimitBytes
	case PlanUltra:
		return UltraLimitBytes
	default:
		return FreeLimitBytes
	}
}

// CanAccept reports whether a user with the given usage and plan can take
// on additionalBytes more without exceeding their limit.
func CanAccept(storageUsed int64, planType string, additionalBytes int64) bool {
	return storageUsed+additionalBytes <= LimitFor(planType)
}

// IsKnownPlan reports whether planType is one of the sellable tiers.
func IsKnownPlan(planType string) bool {
	return planType == PlanFree || planType == PlanPremium || planType == PlanUltra
}
