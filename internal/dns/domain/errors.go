package domain

import "errors"

// These are expected outcomes of zone and authority resolution, not faults.
var (
	// ErrNotAuthoritative is returned when no authority is available for a query.
	ErrNotAuthoritative = errors.New("not authoritative")

	// ErrZoneNotFound is returned when neither the name nor any ancestor is a cached zone
	// and the authority's apex was never reached.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrAuthorityNotFound is returned when no SOA provider knows the name.
	ErrAuthorityNotFound = errors.New("authority not found")

	// ErrNoQuestion is returned for a DNS message without a question section.
	ErrNoQuestion = errors.New("message has no question")
)
