package integration

import "errors"

var (
	// ErrConfiguration marks an unsupported rule, a missing collaborator or mismatched inputs, detected before any
	// geometry is computed
	ErrConfiguration = errors.New("integration configuration error")
	// ErrAlignment marks a shared face whose quadrature points could not be matched across its two cells
	ErrAlignment = errors.New("surface point alignment failed")
)
