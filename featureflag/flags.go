package featureflag

type Flag string

const (
	// FlagDisableBroadPhase makes contact detection test every pair of bodies
	// instead of the pairs sharing a grid cell.
	FlagDisableBroadPhase Flag = "DISABLE_BROAD_PHASE"

	// FlagDisableExactQueryFilter returns the raw grid candidates of point and
	// region queries.
	FlagDisableExactQueryFilter Flag = "DISABLE_EXACT_QUERY_FILTER"

	FlagDisableContactResponse Flag = "DISABLE_CONTACT_RESPONSE"
)
