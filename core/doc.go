// Package core holds the domain model shared by every chronorag component:
// bi-temporal time windows and their algebra, chunk and document records,
// routing enums, validation and binary serializers.
//
// Time windows are closed-open intervals in UTC. Durations are computed in
// float seconds rather than time.Duration because windows routinely span
// more than the ~292 years a Duration can hold.
package core
