package main

import (
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/console"
	"github.com/goliatone/go-repair-console/entity"
)

var errAborted = goerrors.New("repairctl: delete not confirmed, pass --yes", goerrors.CategoryBadInput).
	WithTextCode("DELETE_NOT_CONFIRMED")

type ListCmd struct {
	Group   string            `arg:"" help:"Entity group."`
	Page    int               `help:"Page number." default:"1"`
	Search  string            `help:"Search term."`
	Filters map[string]string `help:"Entity filter, e.g. category=parts." name:"filter" short:"f"`
}

func (c *ListCmd) Run(app *App) error {
	ctx := app.Context()
	list, err := app.Container.ListController(entity.Group(c.Group))
	if err != nil {
		return err
	}
	defer list.Close()

	d := list.Descriptor()
	names := make([]string, 0, len(c.Filters))
	for name := range c.Filters {
		if !d.HasFilter(name) {
			return goerrors.New("repairctl: "+c.Group+" has no filter "+name, goerrors.CategoryBadInput).
				WithTextCode("UNKNOWN_FILTER")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// each step reloads; the last one leaves the wanted query loaded
	var steps []func() console.Outcome
	for _, name := range names {
		steps = append(steps, func() console.Outcome { return list.SetFilter(ctx, name, c.Filters[name]) })
	}
	if c.Search != "" {
		list.SetSearchInput(c.Search)
		steps = append(steps, func() console.Outcome { return list.CommitSearch(ctx) })
	}
	if c.Page > 1 {
		steps = append(steps, func() console.Outcome { return list.SetPage(ctx, c.Page) })
	}
	if len(steps) == 0 {
		steps = append(steps, func() console.Outcome { return list.Mount(ctx) })
	}
	for _, step := range steps {
		if out := step(); !out.OK {
			return out.Err
		}
	}

	view := list.View()
	return printList(app, d, view)
}

type ShowCmd struct {
	Group string `arg:"" help:"Entity group."`
	ID    int64  `arg:"" help:"Record id."`
}

func (c *ShowCmd) Run(app *App) error {
	detail, err := app.Container.DetailController(entity.Group(c.Group), c.ID)
	if err != nil {
		return err
	}
	defer detail.Close()

	if out := detail.Mount(app.Context()); !out.OK {
		return out.Err
	}
	return printRecord(app, detail.View().Record, detail.RowActions(app.Context()))
}

type CreateCmd struct {
	Group  string            `arg:"" help:"Entity group."`
	Values map[string]string `help:"Field value, e.g. name=Jane." name:"set" short:"s"`
}

func (c *CreateCmd) Run(app *App) error {
	form, err := app.Container.CreateForm(entity.Group(c.Group))
	if err != nil {
		return err
	}
	defer form.Close()
	return submitForm(app, form, c.Values)
}

type UpdateCmd struct {
	Group  string            `arg:"" help:"Entity group."`
	ID     int64             `arg:"" help:"Record id."`
	Values map[string]string `help:"Field value, e.g. city=Rome." name:"set" short:"s"`
}

func (c *UpdateCmd) Run(app *App) error {
	form, err := app.Container.EditForm(entity.Group(c.Group), c.ID)
	if err != nil {
		return err
	}
	defer form.Close()
	return submitForm(app, form, c.Values)
}

func submitForm(app *App, form *console.FormController, values map[string]string) error {
	ctx := app.Context()
	if out := form.Mount(ctx); !out.OK {
		return out.Err
	}
	for name, value := range values {
		if _, ok := form.Descriptor().Field(name); !ok {
			return goerrors.New("repairctl: unknown field "+name, goerrors.CategoryBadInput).
				WithTextCode("UNKNOWN_FIELD")
		}
		form.SetValue(name, value)
	}

	out := form.Submit(ctx)
	if !out.OK {
		view := form.View()
		printFieldErrors(app, view.Errors, view.PageError)
		return out.Err
	}
	return printRecord(app, out.Record, nil)
}

type DeleteCmd struct {
	Group string `arg:"" help:"Entity group."`
	ID    int64  `arg:"" help:"Record id."`
	Yes   bool   `help:"Confirm the delete." short:"y"`
}

func (c *DeleteCmd) Run(app *App) error {
	ctx := app.Context()
	detail, err := app.Container.DetailController(entity.Group(c.Group), c.ID)
	if err != nil {
		return err
	}
	defer detail.Close()

	if out := detail.Mount(ctx); !out.OK {
		return out.Err
	}
	if err := detail.RequestDelete(ctx); err != nil {
		return err
	}
	if !c.Yes {
		detail.CancelDelete()
		return errAborted
	}
	if out := detail.ConfirmDelete(ctx); !out.OK {
		return out.Err
	}
	fmt.Fprintf(app.Out, "deleted %s %d\n", c.Group, c.ID)
	return nil
}

type SearchCmd struct {
	Term []string `arg:"" help:"Search term."`
}

func (c *SearchCmd) Run(app *App) error {
	search := app.Container.SearchController()
	defer search.Close()

	if out := search.Search(app.Context(), strings.Join(c.Term, " ")); !out.OK {
		return out.Err
	}
	return printSearch(app, search.View())
}

type DashboardCmd struct{}

func (c *DashboardCmd) Run(app *App) error {
	dash := app.Container.DashboardController()
	defer dash.Close()

	if out := dash.Mount(app.Context()); !out.OK {
		return out.Err
	}
	return printStats(app, dash.View().Stats)
}
