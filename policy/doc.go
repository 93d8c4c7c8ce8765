// Package policy loads, validates and versions the retrieval policy.
//
// A policy is read from YAML, checked with validator struct tags and then
// frozen into an immutable Snapshot. The Manager swaps snapshots atomically
// when a change is applied, so readers never observe a half-updated policy.
package policy
