package network

import (
	"sync"
	"time"
)

type Collector struct {
	devPath string
	iface   string
	now     func() time.Time

	mu sync.Mutex
	rx counter
	tx counter
}

// counter remembers the previous reading of one direction.
type counter struct {
	bytes uint64
	at    time.Time
}
