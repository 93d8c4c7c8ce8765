// Package chrono deduplicates retrieved passages along the valid-time axis
// and reports passages whose validity windows overlap enough to conflict.
package chrono
