package scheduling

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/barber-booking/internal/api"
)

func TestPartitionScenario(t *testing.T) {
	morning, afternoon := Partition([]api.AvailabilityItem{
		{Hour: 9, Available: true},
		{Hour: 14, Available: false},
	})

	assert.Equal(t, []Slot{{Hour: 9, Available: true, HourFormatted: "09:00"}}, morning)
	assert.Equal(t, []Slot{{Hour: 14, Available: false, HourFormatted: "14:00"}}, afternoon)
}

func TestPartitionBoundaries(t *testing.T) {
	morning, afternoon := Partition([]api.AvailabilityItem{
		{Hour: 0, Available: true},
		{Hour: 11, Available: true},
		{Hour: 12, Available: true},
		{Hour: 23, Available: false},
	})

	assert.Equal(t, []string{"00:00", "11:00"}, labels(morning))
	assert.Equal(t, []string{"12:00", "23:00"}, labels(afternoon))
}

func TestPartitionEmpty(t *testing.T) {
	morning, afternoon := Partition(nil)
	assert.NotNil(t, morning)
	assert.NotNil(t, afternoon)
	assert.Empty(t, morning)
	assert.Empty(t, afternoon)
}

func TestPartitionIsExhaustiveAndDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		n := rng.Intn(24)
		items := make([]api.AvailabilityItem, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, api.AvailabilityItem{Hour: rng.Intn(24), Available: rng.Intn(2) == 0})
		}

		morning, afternoon := Partition(items)
		if len(morning)+len(afternoon) != len(items) {
			t.Fatalf("run %d: %d + %d slots for %d items", run, len(morning), len(afternoon), len(items))
		}

		mi, ai := 0, 0
		for _, item := range items {
			var got Slot
			if item.Hour < 12 {
				got = morning[mi]
				mi++
			} else {
				got = afternoon[ai]
				ai++
			}
			if got.Hour != item.Hour || got.Available != item.Available {
				t.Fatalf("run %d: slot %+v does not match item %+v", run, got, item)
			}
		}
		for _, s := range morning {
			if s.Hour >= 12 {
				t.Fatalf("run %d: afternoon hour %d in morning bucket", run, s.Hour)
			}
		}
		for _, s := range afternoon {
			if s.Hour < 12 {
				t.Fatalf("run %d: morning hour %d in afternoon bucket", run, s.Hour)
			}
		}
	}
}

func TestFormatHour(t *testing.T) {
	assert.Equal(t, "08:00", FormatHour(8))
	assert.Equal(t, "17:00", FormatHour(17))
}

func TestIsAvailable(t *testing.T) {
	items := []api.AvailabilityItem{{Hour: 9, Available: true}, {Hour: 10, Available: false}}
	assert.True(t, IsAvailable(items, 9))
	assert.False(t, IsAvailable(items, 10))
	assert.False(t, IsAvailable(items, 11))
	assert.False(t, IsAvailable(nil, 9))
}

func labels(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.HourFormatted)
	}
	return out
}
