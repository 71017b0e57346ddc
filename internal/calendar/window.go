package calendar

// Window is an inclusive range of days.
type Window struct {
	Start Day
	End   Day
}

// Trailing returns the window of n days ending at end, inclusive of both
// endpoints. A seven day window ending on a Sunday starts on the Monday
// before it. n below one is treated as one.
func Trailing(end Day, n int) Window {
	if n < 1 {
		n = 1
	}
	return Window{Start: end.AddDays(-(n - 1)), End: end}
}

// Contains reports whether d falls within the window.
func (w Window) Contains(d Day) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Len returns the number of days covered by the window, or zero when the
// bounds are inverted.
func (w Window) Len() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start) + 1
}

// Days lists every day in the window in ascending order.
func (w Window) Days() []Day {
	n := w.Len()
	days := make([]Day, 0, n)
	for d := w.Start; !d.After(w.End); d = d.Next() {
		days = append(days, d)
	}
	return days
}
