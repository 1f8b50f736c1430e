package client

import "context"

// Client is the API surface the CLI depends on.
type Client interface {
	Ping(ctx context.Context) (*Health, error)
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context) error
	LoggedIn() bool
	Me(ctx context.Context) (*User, error)

	CreateTask(ctx context.Context, t NewTask) (string, error)
	ListTasks(ctx context.Context) ([]Task, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) error
	DeleteTask(ctx context.Context, id string) error
	AssignLabels(ctx context.Context, id string, labels []string) error

	CreateLabel(ctx context.Context, name string) (string, error)
	ListLabels(ctx context.Context) ([]Label, error)
}
