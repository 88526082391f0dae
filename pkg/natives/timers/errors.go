package timers

import "fmt"

func errInvalidArgsCount(expected, received int) error {
	return fmt.Errorf("expected %d argument(s), got %d", expected, received)
}

func errInvalidDuration(kind string) error {
	return fmt.Errorf("expected a numeric duration in milliseconds, got %s", kind)
}
