package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// List prints the resources of one kind owned by the logged-in user.
func (a *App) List(ctx context.Context, kind string) error {
	token, id, err := a.session()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch kind {
	case "businesses":
		list, err := a.api.Businesses(ctx, token, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tCITY\tCATEGORY")
		for _, b := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, b.Name, b.City, b.Category)
		}
	case "reviews":
		list, err := a.api.Reviews(ctx, token, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tBUSINESS\tSTARS\tDOLLARS\tREVIEW")
		for _, r := range list {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", r.ID, r.BusinessID, r.Stars, r.Dollars, r.Review)
		}
	case "photos":
		list, err := a.api.Photos(ctx, token, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tBUSINESS\tCAPTION\tURL")
		for _, p := range list {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", p.ID, p.BusinessID, p.Caption, p.URL)
		}
	default:
		return fmt.Errorf("%w: unknown resource %q", ErrUsage, kind)
	}
	return nil
}
