package fluid

import "errors"

var (
	errEmptySchedule    = errors.New("fluid: timestep schedule must have at least one entry")
	errUnsortedSchedule = errors.New("fluid: timestep schedule must be strictly ascending by nstep")
)
