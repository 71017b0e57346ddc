package http

import (
	"net/http"
	"strings"
)

// APIPrefix is the path prefix of every API route.
const APIPrefix = "/api"

type RouterConfig struct {
	Auth        *AuthHandler
	Habits      *HabitHandler
	Completions *CompletionHandler
	Dashboard   *DashboardHandler
	Health      *HealthHandler
	// RequireSession wraps every route except signup, login and health.
	RequireSession func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.RequireSession == nil {
			return h
		}
		return cfg.RequireSession(h)
	}

	if cfg.Auth != nil {
		api.HandleFunc("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Signup(w, r)
		})
		api.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		api.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Habits != nil {
		api.Handle("/habits", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Habits.List(w, r)
			case http.MethodPost:
				cfg.Habits.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		api.Handle("/habits/", protect(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/habits/"), "/")
			id, sub, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithHabitID(r.Context(), id))

			switch sub {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Habits.Get(w, r)
				case http.MethodPut:
					cfg.Habits.Update(w, r)
				case http.MethodDelete:
					cfg.Habits.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "analytics":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Habits.Analytics(w, r)
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Completions != nil {
		api.Handle("/completion/complete", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Completions.Complete(w, r)
		}))
		api.Handle("/completion/habit/", protect(func(w http.ResponseWriter, r *http.Request) {
			id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/completion/habit/"), "/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Completions.ListForHabit(w, r.WithContext(ContextWithHabitID(r.Context(), id)))
		}))
	}

	if cfg.Dashboard != nil {
		api.Handle("/dashboard/stats", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Dashboard.Stats(w, r)
		}))
		api.Handle("/dashboard/analytics", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Dashboard.Analytics(w, r)
		}))
	}

	root := http.NewServeMux()
	root.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, api))
	if cfg.Health != nil {
		root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	var handler http.Handler = root
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
