package ai

import "errors"

var (
	// ErrCapabilityUnavailable indicates a model-backed capability could not serve a request.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrNoCapabilityReady is returned by FirstReady when every candidate failed its readiness check.
	ErrNoCapabilityReady = errors.New("no capability ready")

	// ErrJudgeDisabled is returned when a disabled judge is asked to score passages.
	ErrJudgeDisabled = errors.New("judge disabled")
)
