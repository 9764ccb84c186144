package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/keepsafe-dev/keepsafe/internal/calendar"
)

const eventTimeLayout = "2006-01-02 15:04"

// ListEvents prints the stored calendar events ordered by start time.
func (a *App) ListEvents(ctx context.Context) error {
	return a.withSession(ctx, func(userID string, password []byte) error {
		list, err := a.cal.List(ctx, userID, password)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No events yet")
			return nil
		}
		for _, e := range list {
			when := e.Start.Format(eventTimeLayout)
			if e.AllDay {
				when = e.Start.Format("2006-01-02") + " (all day)"
			}
			fmt.Printf("%s  %s  %q\n", e.ID, when, e.Title)
		}
		return nil
	})
}

// AddEvent interactively creates a calendar event.
func (a *App) AddEvent(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	startStr, err := getSimpleText(a.reader, "Start (YYYY-MM-DD HH:MM)", os.Stdout)
	if err != nil {
		return err
	}
	start, err := time.ParseInLocation(eventTimeLayout, startStr, time.Local)
	if err != nil {
		fmt.Println("Could not parse start time:", err)
		return nil
	}
	endStr, err := getSimpleText(a.reader, "End (YYYY-MM-DD HH:MM, empty for one hour)", os.Stdout)
	if err != nil {
		return err
	}
	end := start.Add(time.Hour)
	if endStr != "" {
		end, err = time.ParseInLocation(eventTimeLayout, endStr, time.Local)
		if err != nil {
			fmt.Println("Could not parse end time:", err)
			return nil
		}
	}
	desc, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(userID string, password []byte) error {
		saved, err := a.cal.Add(ctx, userID, password, calendar.Event{
			Title:       title,
			Description: desc,
			Start:       start,
			End:         end,
		})
		if err != nil {
			return err
		}
		fmt.Println("Created event", saved.ID)
		return nil
	})
}

// RemoveEvent deletes one calendar event by id.
func (a *App) RemoveEvent(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Event id", os.Stdout)
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(userID string, password []byte) error {
		if err := a.cal.Remove(ctx, userID, password, id); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	})
}

// Agenda prints the events overlapping the next seven days.
func (a *App) Agenda(ctx context.Context) error {
	return a.withSession(ctx, func(userID string, password []byte) error {
		now := time.Now()
		list, err := a.cal.InRange(ctx, userID, password, now, now.AddDate(0, 0, 7))
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Nothing planned for the next 7 days")
			return nil
		}
		for _, e := range list {
			fmt.Printf("%s  %q\n", e.Start.Format(eventTimeLayout), e.Title)
		}
		return nil
	})
}
