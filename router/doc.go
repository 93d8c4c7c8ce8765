// Package router turns a query into a temporal RouteDecision: the time
// window it is about, which time axis to search and how strictly to apply
// the window.
package router
