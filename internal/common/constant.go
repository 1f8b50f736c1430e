package common

// AuthorizationHeaderName carries the bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// Collection names shared by every storage backend.
const (
	UsersCollection  = "users"
	TasksCollection  = "tasks"
	LabelsCollection = "labels"
)
