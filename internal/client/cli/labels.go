package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ListLabels prints the user's labels.
func (a *App) ListLabels(ctx context.Context) error {
	list, err := a.client.ListLabels(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No labels")
		return nil
	}
	for _, l := range list {
		fmt.Fprintf(a.out, "%s  %s\n", l.ID, l.Name)
	}
	return nil
}

// AddLabel creates a label named by the joined args.
func (a *App) AddLabel(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		return errors.New("a label name is required")
	}
	id, err := a.client.CreateLabel(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Label created: %s\n", id)
	return nil
}
