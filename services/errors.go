package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not-found errors
	ErrConfigNotFound = errors.New("bracket config not found")
	ErrGroupNotFound  = errors.New("preliminary group not found")
	ErrTeamNotFound   = errors.New("group team not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrEntryNotFound  = errors.New("entry not found")

	// Validation errors: recoverable, nothing is persisted
	ErrEmptyRoster      = errors.New("division has no confirmed entries")
	ErrEmptySeedOrder   = errors.New("seed order is empty")
	ErrSeedOrderSize    = errors.New("positional seed order length must be a bracket size")
	ErrInvalidGroupSize = errors.New("group size must be at least 2")
	ErrGroupMismatch    = errors.New("team and target group belong to different bracket configs")
	ErrScoreRequired    = errors.New("both scores are required")
	ErrTieScore         = errors.New("tie scores are not a valid match outcome")
	ErrEmptySlot        = errors.New("cannot record a result for an unresolved match slot")
	ErrInvalidSetDetail = errors.New("set detail is malformed")
	ErrMatchNotDecided  = errors.New("set results do not decide the match")
	ErrPlayerRepeats    = errors.New("a player may only appear in one set of a tie")
	ErrScoreSetMismatch = errors.New("submitted scores do not match set results")
	ErrTooManyTeams     = errors.New("too many teams for the bracket size")

	// Sequencing errors: the caller's view of bracket state is stale
	ErrBracketLocked           = errors.New("groups can only be changed while the bracket is in draft")
	ErrGroupsEmpty             = errors.New("bracket config has no preliminary groups")
	ErrMatchesAlreadyExist     = errors.New("preliminary matches already exist")
	ErrBracketAlreadyGenerated = errors.New("main bracket has already been generated")
	ErrBracketNotGenerated     = errors.New("main bracket has not been generated")
	ErrPriorRoundIncomplete    = errors.New("previous round has unfinished matches")
	ErrBracketComplete         = errors.New("bracket has no further rounds to generate")
	ErrNotLatestRound          = errors.New("only the latest generated round can be deleted")
	ErrMatchAlreadyCompleted   = errors.New("match result has already been recorded")
	ErrMatchIsBye              = errors.New("cannot record a result for a bye")

	// Propagation failures: generation invariants were violated, not
	// recoverable by the caller
	ErrPropagationTarget = errors.New("propagation target match does not exist")
)
