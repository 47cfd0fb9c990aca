package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"adopt-meow/internal/adapters/cache"
	mem "adopt-meow/internal/adapters/storage/memory"
	pg "adopt-meow/internal/adapters/storage/postgres"
	"adopt-meow/internal/domain/cats"
	"adopt-meow/internal/domain/users"
	"adopt-meow/internal/middleware"
	"adopt-meow/internal/platform/logger"
	"adopt-meow/internal/ports/auth"
)

type Options struct {
	// Verifier de tokens. Puede ser nil (modo dev: X-Debug-User-ID).
	AuthVerifier auth.AuthVerifier

	// Servicio de usuarios ya construido (comparte el TokenService con
	// el verifier). Si es nil, se arma uno in-memory (modo dev/tests).
	UsersService *users.Service

	// Opcional: si viene, usa Postgres para cats. Si no, in-memory.
	DB *sql.DB

	// Opcional: cache de listados sobre el repo de cats.
	Redis *redis.Client

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	usersSvc := opts.UsersService
	verifier := opts.AuthVerifier
	if usersSvc == nil {
		// Stack dev: todo in-memory, tokens con secret fijo.
		tokens := users.NewTokenService("dev-secret", "adopt-meow", 0)
		var userRepo users.Repository
		if opts.DB != nil {
			userRepo = pg.NewUsersRepo(opts.DB)
		} else {
			userRepo = mem.NewUserRepo()
		}
		usersSvc = users.NewService(userRepo, tokens)
		if verifier == nil {
			verifier = tokens
		}
	}

	r.Use(middleware.AuthContext(verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var catRepo cats.Repository
	if opts.DB != nil {
		catRepo = pg.NewCatsRepo(opts.DB)
	} else {
		catRepo = mem.NewCatRepo()
	}
	if opts.Redis != nil {
		catRepo = cache.NewListingRepo(catRepo, opts.Redis, opts.Logger)
	}

	catsSvc := cats.NewService(catRepo, opts.Logger)

	r.Route("/api", func(ar chi.Router) {
		users.RegisterRoutes(ar, usersSvc)
		cats.RegisterRoutes(ar, catsSvc)
	})

	return r
}
