package montecarlo

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrTooFewTeams   = errors.New("need at least two teams to simulate a season")
	ErrNotConverged  = errors.New("simulation did not converge")
)
