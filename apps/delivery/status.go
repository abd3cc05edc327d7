package delivery

import (
	"fmt"
	"time"

	"go-boutique/apps/delivery/model"
	"go-boutique/pkg/errs"
)

var (
	ErrInvalidStatus     = errs.InvalidInput("Unknown delivery status")
	ErrIllegalTransition = errs.InvalidState("Delivery status cannot change that way")
)

// rank is the position of a status on the happy path.
func rank(s model.Status) int {
	for i, v := range model.Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

func terminal(s model.Status) bool {
	return s == model.StatusDelivered || s == model.StatusFailed
}

// CanTransition is the strict table: forward along the happy path (skipping
// is allowed), or to failed from any non-terminal status.
func CanTransition(from, to model.Status) bool {
	if terminal(from) {
		return false
	}
	if to == model.StatusFailed {
		return true
	}
	return rank(to) > rank(from)
}

// ApplyStatus moves d to next in memory. Writing the current status is a
// no-op reported as changed=false. The packed/shipped/delivered timestamps
// are set on first arrival only. Without strict any valid status is accepted.
func ApplyStatus(d *model.Delivery, next model.Status, now time.Time, strict bool) (changed bool, err error) {
	if !next.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if d.Status == next {
		return false, nil
	}
	if strict && !CanTransition(d.Status, next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.Status, next)
	}

	stamp := func(t **time.Time) {
		if *t == nil {
			ts := now
			*t = &ts
		}
	}
	switch next {
	case model.StatusPacked:
		stamp(&d.PackedAt)
	case model.StatusShipped:
		stamp(&d.ShippedAt)
	case model.StatusDelivered:
		stamp(&d.DeliveredAt)
	}
	d.Status = next
	return true, nil
}

// HistoryNote is the generated note of a staff status change.
func HistoryNote(s model.Status) string {
	return "Статусот е ажуриран: " + s.Label()
}
