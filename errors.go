package tracktruck

import "errors"

var (
	// ErrRuleNotFound is returned when a maintenance rule cannot be found.
	ErrRuleNotFound = errors.New("tracktruck: maintenance not found")

	// ErrInvalidResourceType is returned when a rule names a resource type
	// other than truck, trailer or tire.
	ErrInvalidResourceType = errors.New("tracktruck: invalid resource type")

	// ErrInvalidResourceID is returned when a rule has no resource id.
	ErrInvalidResourceID = errors.New("tracktruck: resource id is required")

	// ErrInvalidInterval is returned when an interval is negative.
	ErrInvalidInterval = errors.New("tracktruck: interval must not be negative")

	// ErrIntervalRequired is returned when Config.RequireInterval is set and a
	// rule has neither a positive km nor a positive days interval.
	ErrIntervalRequired = errors.New("tracktruck: at least one interval is required")

	// ErrNoLookup is returned by CheckAllRules when no asset lookup is configured.
	ErrNoLookup = errors.New("tracktruck: asset lookup is not configured")

	// ErrNoPublisher is returned when a notification is requested but no
	// publisher is configured.
	ErrNoPublisher = errors.New("tracktruck: notification publisher is not configured")

	// ErrForbidden is returned when the caller is not allowed to perform an
	// admin operation.
	ErrForbidden = errors.New("tracktruck: forbidden")
)
