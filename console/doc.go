// Package console holds the screen controllers of the repair-shop admin
// console: entity lists, detail pages, create and edit forms, global search
// and the dashboard.
//
// Controllers are UI-toolkit agnostic. They read through the cached
// repositories, expose a View snapshot and an OnChange listener, and report
// every operation as an Outcome instead of panicking or throwing.
//
// # Lifecycle
//
// A controller is built, mounted, driven by user input and closed:
//
//	list := console.NewListController(repo, env)
//	list.OnChange(render)
//	list.Mount(ctx)
//	list.CommitSearch(ctx, "belt")
//	defer list.Close()
//
// Closing detaches the controller from the query cache. Responses that land
// after Close are dropped and never toast or navigate.
//
// # Feedback
//
// Env carries the session, notifier, navigator and translator. Successful
// mutations toast and, for forms, navigate back to the entity list after
// the affected queries were invalidated. Failures are classified by
// Classify into validation, API field, API general, network and permission
// errors.
package console
