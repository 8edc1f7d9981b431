package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-repair-console/console"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

func printList(app *App, d entity.Descriptor, view console.ListView) error {
	if app.JSON {
		return writeJSON(app.Out, map[string]any{
			"data":       view.Records,
			"pagination": view.Pagination,
		})
	}

	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	header := append([]string{"ID"}, upper(d.Columns)...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, rec := range view.Records {
		row := []string{rec.String("id")}
		for _, col := range d.Columns {
			row = append(row, rec.String(col))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := view.Pagination
	_, err := fmt.Fprintf(app.Out, "page %d of %d, %d total\n", p.Page, p.Pages, p.Total)
	return err
}

func printRecord(app *App, rec entity.Record, actions []console.RowAction) error {
	if app.JSON {
		return writeJSON(app.Out, rec)
	}

	names := []string{"id"}
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	names = append(names, "created_at", "updated_at")

	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		if _, ok := rec.Value(name); !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, rec.String(name))
	}
	if len(actions) > 0 {
		var allowed []string
		for _, action := range actions {
			if action.Enabled {
				allowed = append(allowed, string(action.Name))
			}
		}
		fmt.Fprintf(tw, "actions\t%s\n", strings.Join(allowed, ", "))
	}
	return tw.Flush()
}

func printFieldErrors(app *App, errs map[string]string, pageError string) {
	if pageError != "" {
		fmt.Fprintln(app.Err, pageError)
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(app.Err, "  %s: %s\n", name, errs[name])
	}
}

func printSearch(app *App, view console.SearchView) error {
	if app.JSON {
		out := make(map[string]any, len(view.Groups))
		for _, group := range view.Groups {
			if group.Err != nil {
				out[group.Group.String()] = map[string]any{"error": group.Err.Error()}
				continue
			}
			out[group.Group.String()] = group.Records
		}
		return writeJSON(app.Out, out)
	}

	for _, group := range view.Groups {
		switch {
		case group.Err != nil:
			fmt.Fprintf(app.Out, "%s: failed: %v\n", group.Group, group.Err)
		case len(group.Records) == 0:
			continue
		default:
			fmt.Fprintf(app.Out, "%s (%d)\n", group.Group, group.Total)
			for _, rec := range group.Records {
				fmt.Fprintf(app.Out, "  %d\t%s\n", rec.ID, summary(rec))
			}
		}
	}
	return nil
}

func printStats(app *App, stats entity.Stats) error {
	if app.JSON {
		return writeJSON(app.Out, stats)
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%v\n", name, stats[name])
	}
	return tw.Flush()
}

// summary picks the first display field a record carries.
func summary(rec entity.Record) string {
	for _, name := range []string{"name", "title", "email", "sku"} {
		if s := rec.String(name); s != "" {
			return s
		}
	}
	return ""
}

func upper(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.ToUpper(name)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// notifier prints toasts to stderr.
type notifier struct {
	w io.Writer
}

func (n *notifier) Notify(_ context.Context, note interfaces.Notification) {
	line := fmt.Sprintf("[%s] %s", note.Level, note.Title)
	if note.Message != "" {
		line += ": " + note.Message
	}
	fmt.Fprintln(n.w, line)
}

// navigator ignores routes; a terminal has no screens to switch.
type navigator struct{}

func (navigator) Navigate(context.Context, string) {}

// catalog resolves message keys to English text.
type catalog map[string]string

func (c catalog) Translate(key string, args ...any) string {
	msg, ok := c[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

var messages = catalog{
	console.MsgSaveSuccess:      "Saved",
	console.MsgSaveFailed:       "Save failed",
	console.MsgDeleteSuccess:    "Deleted",
	console.MsgDeleteFailed:     "Delete failed",
	console.MsgValidationFailed: "Please fix the highlighted fields",
	console.MsgNetworkError:     "Network error, check your connection",
	console.MsgLoadFailed:       "Could not load data",
	entity.MsgRequired:          "is required",
	entity.MsgTooShort:          "is too short",
	entity.MsgPasswordTooShort:  "must be at least 6 characters",
	entity.MsgNumber:            "must be a number",
}
