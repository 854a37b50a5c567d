package matcher

// ClaimRegistry enforces one-to-one consumption within a run. TryClaim is the
// only mutation point: a source and target pair is claimed atomically or not
// at all, so no scattered set-membership checks can drift out of sync.
type ClaimRegistry struct {
	sources map[string]bool
	targets map[string]bool
}

// NewClaimRegistry creates an empty registry.
func NewClaimRegistry() *ClaimRegistry {
	return &ClaimRegistry{
		sources: make(map[string]bool),
		targets: make(map[string]bool),
	}
}

// TryClaim claims the source/target pair. It fails without side effects when
// either side is already consumed.
func (c *ClaimRegistry) TryClaim(sourceID, targetID string) bool {
	if c.sources[sourceID] || c.targets[targetID] {
		return false
	}
	c.sources[sourceID] = true
	c.targets[targetID] = true
	return true
}

// ClaimSource consumes a source without a target, for classification-only
// matches where no invoice is transactionally linked.
func (c *ClaimRegistry) ClaimSource(sourceID string) bool {
	if c.sources[sourceID] {
		return false
	}
	c.sources[sourceID] = true
	return true
}

// TargetClaimed reports whether the target is already consumed. Strategies
// check this before scoring a candidate, not after.
func (c *ClaimRegistry) TargetClaimed(targetID string) bool {
	return c.targets[targetID]
}

// SourceClaimed reports whether the source is already consumed.
func (c *ClaimRegistry) SourceClaimed(sourceID string) bool {
	return c.sources[sourceID]
}

// ClaimedTargets returns the number of consumed targets.
func (c *ClaimRegistry) ClaimedTargets() int {
	return len(c.targets)
}
