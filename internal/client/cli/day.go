package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

// getMultiline is an indirection used to facilitate testing.
var getMultiline = GetMultiline

// printEntry renders a single note for the terminal.
func printEntry(e *models.Entry) {
	header := e.Date
	if e.Mood != nil {
		header = fmt.Sprintf("%s  mood %d/5", header, *e.Mood)
	}
	fmt.Println(header)
	if e.Content != "" {
		fmt.Println(e.Content)
	}
	for _, img := range e.Images {
		fmt.Printf("[image] %s\n", img)
	}
}

// showDay prints the note for the given calendar day, or a placeholder when
// the day has no note yet.
func (a *App) showDay(ctx context.Context, date string) error {
	entry, err := a.coord.GetByDate(ctx, date)
	if err != nil {
		a.logger.Warn(ctx, "error loading note", "date", date, "error", err)
		return err
	}
	if entry == nil {
		fmt.Printf("%s  (no note yet)\n", date)
		return nil
	}
	printEntry(entry)
	return nil
}

// Today moves the cursor to today and shows today's note.
func (a *App) Today(ctx context.Context) error {
	date := a.journal.TodayDate()
	if err := a.journal.SetCurrentDate(ctx, date); err != nil {
		return err
	}
	return a.showDay(ctx, date)
}

// Open prompts for a calendar date, moves the cursor there and shows the note.
func (a *App) Open(ctx context.Context) error {
	date, err := getSimpleText(a.reader, "Enter date (YYYY-MM-DD)", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.journal.SetCurrentDate(ctx, date); err != nil {
		fmt.Println("Invalid date, expected YYYY-MM-DD.")
		return err
	}
	return a.showDay(ctx, date)
}

// Write replaces the text of the note under the cursor, keeping its mood and
// images.
func (a *App) Write(ctx context.Context) error {
	date, err := a.journal.CurrentDate(ctx)
	if err != nil {
		return err
	}

	content, err := getMultiline(a.reader, fmt.Sprintf("Enter text for %s:", date), os.Stdout)
	if err != nil {
		return err
	}

	var (
		mood   *models.Mood
		images []string
	)
	if existing, err := a.journal.CurrentNote(ctx); err == nil && existing != nil {
		mood = existing.Mood
		images = existing.Images
	}

	if _, err := a.journal.SaveCurrent(ctx, content, mood, images); err != nil {
		a.logger.Warn(ctx, "error saving note", "date", date, "error", err)
		return err
	}
	fmt.Println("Saved.")
	return nil
}

// Mood prompts for a 1..5 rating and records it for today.
func (a *App) Mood(ctx context.Context) error {
	text, err := getSimpleText(a.reader, "Rate your day (1..5)", os.Stdout)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		fmt.Println("Mood must be a number from 1 to 5.")
		return err
	}

	if err := a.journal.UpdateTodayMood(ctx, models.Mood(n)); err != nil {
		fmt.Println("Mood must be a number from 1 to 5.")
		return err
	}
	fmt.Println("Saved.")
	return nil
}

// AddImage attaches an image reference to today's note.
func (a *App) AddImage(ctx context.Context) error {
	ref, err := getSimpleText(a.reader, "Enter image path or URL", os.Stdout)
	if err != nil {
		return err
	}
	if ref == "" {
		fmt.Println("Nothing to attach.")
		return nil
	}
	if err := a.journal.AddImageToToday(ctx, ref); err != nil {
		a.logger.Warn(ctx, "error attaching image", "error", err)
		return err
	}
	fmt.Println("Attached.")
	return nil
}

// RemoveImage detaches an image reference from today's note.
func (a *App) RemoveImage(ctx context.Context) error {
	ref, err := getSimpleText(a.reader, "Enter image path or URL to remove", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.journal.RemoveImageFromToday(ctx, ref); err != nil {
		a.logger.Warn(ctx, "error detaching image", "error", err)
		return err
	}
	fmt.Println("Detached.")
	return nil
}

// List prints every note, newest first.
func (a *App) List(ctx context.Context) error {
	entries, err := a.coord.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No notes yet.")
		return nil
	}
	for i := range entries {
		printEntry(&entries[i])
		fmt.Println()
	}
	return nil
}

// Search prompts for a text fragment and prints the matching notes.
func (a *App) Search(ctx context.Context) error {
	text, err := getSimpleText(a.reader, "Enter text to search for", os.Stdout)
	if err != nil {
		return err
	}
	entries, err := a.coord.Search(ctx, text)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for i := range entries {
		printEntry(&entries[i])
		fmt.Println()
	}
	return nil
}

// Prune deletes notes older than a user-chosen number of days.
func (a *App) Prune(ctx context.Context) error {
	text, err := getSimpleText(a.reader, "Delete notes older than how many days?", os.Stdout)
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(text)
	if err != nil || days < 0 {
		fmt.Println("Expected a non-negative number of days.")
		return err
	}
	if err := a.coord.DeleteOlderThan(ctx, days); err != nil {
		return err
	}
	fmt.Println("Done.")
	return nil
}

// Clear deletes every note after an explicit confirmation.
func (a *App) Clear(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Delete ALL notes? Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if strings.ToLower(answer) != "yes" {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := a.coord.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Println("All notes deleted.")
	return nil
}
