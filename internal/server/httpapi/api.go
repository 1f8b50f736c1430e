package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/go-chi/chi/v5"
)

// Users is implemented by *services.UserService.
type Users interface {
	Signup(ctx context.Context, username, email, password string) (ident.ID, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Tasks is implemented by *services.TaskService.
type Tasks interface {
	Create(ctx context.Context, owner *models.User, in services.NewTask) (*models.Task, error)
	List(ctx context.Context, owner *models.User) ([]models.Task, error)
	Update(ctx context.Context, owner *models.User, taskID string, upd models.TaskUpdate) (bool, error)
	Delete(ctx context.Context, owner *models.User, taskID string) error
	AssignLabels(ctx context.Context, owner *models.User, taskID string, labels []string) error
}

// Labels is implemented by *services.LabelService.
type Labels interface {
	Create(ctx context.Context, owner *models.User, name string) (*models.Label, error)
	List(ctx context.Context, owner *models.User) ([]models.Label, error)
}

// StorageStatus reports the backend chosen at startup.
type StorageStatus interface {
	Backend() storage.Backend
	Degraded() bool
}

// API holds the handler dependencies.
type API struct {
	users   Users
	tasks   Tasks
	labels  Labels
	storage StorageStatus
	log     logging.Logger
}

func New(users Users, tasks Tasks, labels Labels, st StorageStatus, log logging.Logger) *API {
	return &API{
		users:   users,
		tasks:   tasks,
		labels:  labels,
		storage: st,
		log:     log.With("module", "http"),
	}
}

// Router builds the route tree.
func (a *API) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(a.log))
	r.Use(Recoverer(a.log))
	r.Use(CORS(corsOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "resource not found", RequestID: RequestIDFrom(r.Context())})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", RequestID: RequestIDFrom(r.Context())})
	})

	r.Get("/", a.Health)
	r.Get("/healthz", a.Health)

	r.Post("/signup", a.Signup)
	r.Post("/login", a.Login)
	r.Post("/logout", a.Logout)

	r.Group(func(r chi.Router) {
		r.Use(a.Authenticator)

		r.Get("/me", a.Me)

		r.Route("/api", func(r chi.Router) {
			r.Post("/tasks", a.CreateTask)
			r.Get("/tasks", a.ListTasks)
			r.Put("/tasks/{taskID}", a.UpdateTask)
			r.Delete("/tasks/{taskID}", a.DeleteTask)
			r.Patch("/tasks/{taskID}/labels", a.AssignLabels)

			r.Post("/labels", a.CreateLabel)
			r.Get("/labels", a.ListLabels)
		})
	})

	return r
}
