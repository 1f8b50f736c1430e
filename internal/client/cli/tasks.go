package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
)

var errUsageID = errors.New("a task id is required")

const defaultPriority = "Medium"

// ListTasks prints the user's tasks as a table.
func (a *App) ListTasks(ctx context.Context) error {
	list, err := a.client.ListTasks(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tDEADLINE\tDONE\tLABELS")
	for _, t := range list {
		done := ""
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Priority, t.Deadline.Format("2006-01-02"), done, strings.Join(t.Labels, ","))
	}
	return tw.Flush()
}

// AddTask asks for the task fields one by one.
func (a *App) AddTask(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	priority, err := getSimpleText(a.reader, "Priority: High, Medium or Low [Medium]", a.out)
	if err != nil {
		return err
	}
	if priority == "" {
		priority = defaultPriority
	}
	deadline, err := getSimpleText(a.reader, "Deadline (YYYY-MM-DD or YYYY-MM-DDTHH:MM)", a.out)
	if err != nil {
		return err
	}
	labels, err := getSimpleText(a.reader, "Labels, comma separated (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.client.CreateTask(ctx, client.NewTask{
		Title:       title,
		Description: description,
		Priority:    normalizePriority(priority),
		Deadline:    deadline,
		Labels:      splitList(labels),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Task created: %s\n", id)
	return nil
}

// Done marks the task args[0] completed.
func (a *App) Done(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsageID
	}
	completed := true
	if err := a.client.UpdateTask(ctx, args[0], client.TaskUpdate{Completed: &completed}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Task completed")
	return nil
}

// Remove deletes the task args[0].
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsageID
	}
	if err := a.client.DeleteTask(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Task deleted")
	return nil
}

// Tag replaces the labels of task args[0] with args[1:]. No labels clears
// them.
func (a *App) Tag(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsageID
	}
	if err := a.client.AssignLabels(ctx, args[0], args[1:]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Labels updated")
	return nil
}

// normalizePriority accepts any letter case, e.g. "high".
func normalizePriority(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return p
	}
	return strings.ToUpper(p[:1]) + p[1:]
}
