package ports

import "time"

// Clock is the source of time of the environment the assets live in.
type Clock interface {
	Now() time.Time
}
