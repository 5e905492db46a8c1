package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Domenick1991/expertbooking/internal/availability"
	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/tracker"
)

// render prints one calendar view. Free slots show as [ ], booked as [x] and
// the viewer's just-booked slot as [*].
func render(w io.Writer, v availability.View) {
	switch v.State {
	case availability.StateLoading:
		fmt.Fprintf(w, "loading expert %s...\n", v.ExpertID)
		return
	case availability.StateFailed:
		fmt.Fprintf(w, "failed to load expert %s: %v\n", v.ExpertID, v.Err)
		return
	case availability.StateClosed:
		return
	}

	if v.Expert != nil {
		fmt.Fprintf(w, "%s (%s)\n", v.Expert.Name, v.Expert.Category)
	}
	dates := v.Dates()
	if len(dates) == 0 {
		fmt.Fprintln(w, "  no available slots")
		return
	}
	for _, date := range dates {
		var b strings.Builder
		fmt.Fprintf(&b, "  %s ", date)
		for _, s := range v.Slots(date) {
			mark := " "
			switch {
			case v.IsAcknowledged(date, s.Time):
				mark = "*"
			case s.IsBooked:
				mark = "x"
			}
			fmt.Fprintf(&b, " %s [%s]", s.Time, mark)
		}
		fmt.Fprintln(w, b.String())
	}
}

func renderBookings(w io.Writer, bookings []domain.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, "no bookings found")
		return
	}
	for _, b := range bookings {
		actions := make([]string, 0, 3)
		for _, next := range tracker.Actions(b) {
			actions = append(actions, string(next))
		}
		line := fmt.Sprintf("%s  %s %s  %-9s", b.ID, b.Date, b.TimeSlot, b.Status)
		if len(actions) > 0 {
			line += "  -> " + strings.Join(actions, ", ")
		}
		fmt.Fprintln(w, line)
	}
}

func renderExperts(w io.Writer, page *domain.ExpertPage) {
	if len(page.Experts) == 0 {
		fmt.Fprintln(w, "no experts found")
		return
	}
	for _, x := range page.Experts {
		fmt.Fprintf(w, "%s  %s (%s)  %.1f/5 from %d reviews  %d yrs  %d/hr\n",
			x.ID, x.Name, x.Category, x.Rating, x.TotalReviews, x.Experience, x.HourlyRate)
	}
	p := page.Pagination
	fmt.Fprintf(w, "page %d of %d, %d experts\n", p.CurrentPage, p.TotalPages, p.TotalExperts)
}
