package mid

import (
	"strconv"
	"sync"
	"time"
)

// BackupIDPrefix tags every backup id.
const BackupIDPrefix = "backup_"

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts backup id generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// TimestampIDGenerator builds ids from the clock's instant at millisecond
// resolution. Within one process ids never repeat: when two ids would land on
// the same millisecond the later one is bumped forward.
type TimestampIDGenerator struct {
	clock Clock

	mu   sync.Mutex
	last int64
}

// NewTimestampIDGenerator returns a generator reading time from clock.
func NewTimestampIDGenerator(clock Clock) *TimestampIDGenerator {
	return &TimestampIDGenerator{clock: clock}
}

func (g *TimestampIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.clock.Now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return BackupIDPrefix + strconv.FormatInt(ms, 10)
}
