package mid_test

import (
	"testing"
	"time"

	"mid-go/internal/mid"
	"mid-go/internal/testutil"
)

func TestTimestampIDGenerator(t *testing.T) {
	clock := testutil.FixedClock()
	gen := mid.NewTimestampIDGenerator(clock)

	first := gen.New()
	if first != "backup_1705314600000" {
		t.Errorf("New() = %q, want backup_1705314600000", first)
	}

	// Same instant: bumped forward instead of repeating.
	if second := gen.New(); second != "backup_1705314600001" {
		t.Errorf("New() on same instant = %q, want backup_1705314600001", second)
	}

	clock.Advance(time.Second)
	if third := gen.New(); third != "backup_1705314601000" {
		t.Errorf("New() after advance = %q, want backup_1705314601000", third)
	}
}
