package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/internal/realtime"
	"github.com/gatherly/eventhub/internal/service"
	"github.com/gatherly/eventhub/pkg/auth"
	"github.com/gatherly/eventhub/pkg/config"
	"github.com/go-chi/chi/v5"
)

// ---------- Mocks ----------

type mockAuthService struct {
	registerFn func(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error)
	loginFn    func(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error)
	guestFn    func(ctx context.Context) (*domain.User, string, error)
	checkFn    func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) GuestLogin(ctx context.Context) (*domain.User, string, error) {
	return m.guestFn(ctx)
}

func (m *mockAuthService) CheckAuth(ctx context.Context, token string) (*domain.User, error) {
	return m.checkFn(ctx, token)
}

type mockEventService struct {
	createFn func(ctx context.Context, ownerID int64, req *domain.CreateEventRequest, image *service.Upload) (*domain.Event, error)
	updateFn func(ctx context.Context, actorID, id int64, req *domain.UpdateEventRequest, image *service.Upload) (*domain.Event, error)
	deleteFn func(ctx context.Context, actorID, id int64) error
	joinFn   func(ctx context.Context, actorID, id int64) (*domain.Event, error)
	listFn   func(ctx context.Context, filter domain.ListEventsFilter) ([]domain.Event, error)
}

func (m *mockEventService) Create(ctx context.Context, ownerID int64, req *domain.CreateEventRequest, image *service.Upload) (*domain.Event, error) {
	return m.createFn(ctx, ownerID, req, image)
}

func (m *mockEventService) Update(ctx context.Context, actorID, id int64, req *domain.UpdateEventRequest, image *service.Upload) (*domain.Event, error) {
	return m.updateFn(ctx, actorID, id, req, image)
}

func (m *mockEventService) Delete(ctx context.Context, actorID, id int64) error {
	return m.deleteFn(ctx, actorID, id)
}

func (m *mockEventService) Join(ctx context.Context, actorID, id int64) (*domain.Event, error) {
	return m.joinFn(ctx, actorID, id)
}

func (m *mockEventService) List(ctx context.Context, filter domain.ListEventsFilter) ([]domain.Event, error) {
	return m.listFn(ctx, filter)
}

// ---------- Fixtures ----------

const testSecret = "handlers-test-secret"

func testCfg() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  testSecret,
			SessionTTL: time.Hour,
			CookieName: "token",
		},
	}
}

func newTestRouter(authSvc service.AuthService, eventSvc service.EventService, hub *realtime.Hub) (chi.Router, *Handlers) {
	if hub == nil {
		hub = realtime.NewHub()
	}
	h := New(authSvc, eventSvc, hub, testCfg())

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/guest", h.GuestLogin)
		r.Get("/check", h.CheckAuth)
		r.Post("/logout", h.Logout)
	})
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{id}/live", h.LiveEvents)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Post("/", h.CreateEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Post("/{id}/join", h.JoinEvent)
		})
	})
	return r, h
}

func sessionCookie(sub int64, role string) *http.Cookie {
	token, _ := auth.NewSessionToken(sub, role, testSecret, time.Hour)
	return &http.Cookie{Name: "token", Value: token}
}

func sampleEvent(id, ownerID int64, attendees ...int64) *domain.Event {
	if attendees == nil {
		attendees = []int64{}
	}
	return &domain.Event{
		ID:        id,
		Name:      "Launch Party",
		DateTime:  time.Now().Add(48 * time.Hour),
		Category:  domain.CategorySocial,
		OwnerID:   ownerID,
		Attendees: attendees,
		Image:     domain.Image{ID: "img-1", URL: "https://media.test/img-1"},
	}
}

func doRequest(r chi.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
