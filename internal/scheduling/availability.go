package scheduling

import (
	"fmt"

	"github.com/wolfman30/barber-booking/internal/api"
)

// noonHour splits the day: hours before it are morning, the rest afternoon.
const noonHour = 12

// Slot is an availability item ready for display.
type Slot struct {
	Hour          int
	Available     bool
	HourFormatted string
}

// Partition splits items into morning (hour < 12) and afternoon (hour >= 12)
// slots, keeping the input order within each bucket. Every item lands in
// exactly one bucket.
func Partition(items []api.AvailabilityItem) (morning, afternoon []Slot) {
	morning = make([]Slot, 0, len(items))
	afternoon = make([]Slot, 0, len(items))
	for _, item := range items {
		slot := Slot{
			Hour:          item.Hour,
			Available:     item.Available,
			HourFormatted: FormatHour(item.Hour),
		}
		if item.Hour < noonHour {
			morning = append(morning, slot)
		} else {
			afternoon = append(afternoon, slot)
		}
	}
	return morning, afternoon
}

// FormatHour renders an hour as "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// IsAvailable reports whether hour is present and bookable in items.
func IsAvailable(items []api.AvailabilityItem, hour int) bool {
	for _, item := range items {
		if item.Hour == hour {
			return item.Available
		}
	}
	return false
}
