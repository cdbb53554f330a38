package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"courrierkit/internal/backend"
	"courrierkit/internal/console"
	"courrierkit/internal/logging"
	"courrierkit/internal/models"
	"courrierkit/internal/shared"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "header.payload.sig"

// fakeBackend is an in-memory stand-in for the Node API.
type fakeBackend struct {
	mu       sync.Mutex
	services []map[string]interface{}
	mails    []map[string]interface{}
	archives []map[string]interface{}
	shares   []map[string]interface{}
	internal int
	nextID   int
	// brokenArchives makes /api/archives fail.
	brokenArchives bool
	// stuckInternal keeps the internal counter from moving.
	stuckInternal bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID: 100,
		services: []map[string]interface{}{
			{"id": 1, "code": "COMPTABLE", "nom": "Comptabilité", "actif": 1, "has_archive_page": 1, "archive_icon": "cilCalculator", "archive_color": "primary"},
			{"id": 2, "code": "TRESORERIE", "nom": "Trésorerie", "actif": 1, "has_archive_page": 0},
			{"id": 3, "code": "RESSOURCES_HUMAINES", "nom": "Ressources humaines", "actif": 1, "has_archive_page": 1, "archive_icon": "cilPeople", "archive_color": "info"},
		},
		mails: []map[string]interface{}{
			{"id": 10, "ref_code": "CE-10", "subject": "Facture", "status": "Nouveau", "assigned_service": "COMPTABLE", "statut_global": "En Traitement"},
			{"id": 11, "ref_code": "CE-11", "subject": "Relance", "status": "Indexé", "assigned_service": "COMPTABLE", "statut_global": "Indexé"},
		},
		archives: []map[string]interface{}{
			{"id": 1, "reference": "AR-1", "service_code": "COMPTABLE", "created_at": "2025-03-05 10:00:00"},
			{"id": 2, "reference": "AR-2", "service_code": "COMPTABLE", "created_at": "2025-01-05 10:00:00"},
		},
		internal: 4,
	}
}

func (f *fakeBackend) json(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeBackend) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeBackend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" && r.URL.Path != "/health" && r.Header.Get("Authorization") != "Bearer "+testToken {
			f.json(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeBackend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(f.requireAuth)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("OK")) })
	r.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "adminpassword" && body["password"] != "comptablepass" {
			f.json(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
			return
		}
		f.json(w, http.StatusOK, map[string]interface{}{
			"token": testToken, "role": "ADMIN",
			"user": map[string]interface{}{"id": 1, "username": "admin", "role_name": "ADMIN"},
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/rbac/me", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, map[string]interface{}{"role": "ADMIN"})
	})

	r.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		out := []map[string]interface{}{}
		for _, s := range f.services {
			if r.URL.Query().Get("active") == "true" && s["actif"] != 1 {
				continue
			}
			out = append(out, s)
		}
		f.json(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		for _, s := range f.services {
			if s["code"] == body["code"] {
				f.json(w, http.StatusConflict, map[string]string{"error": "exists"})
				return
			}
		}
		id := f.id()
		body["id"] = id
		body["actif"] = 1
		body["has_archive_page"] = 1
		f.services = append(f.services, body)
		f.json(w, http.StatusCreated, map[string]int{"id": id})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/services/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(r)["id"])
		for i, s := range f.services {
			if fmt.Sprint(s["id"]) == strconv.Itoa(id) {
				f.services = append(f.services[:i], f.services[i+1:]...)
				f.json(w, http.StatusOK, map[string]string{"message": "Service supprimé"})
				return
			}
		}
		http.NotFound(w, r)
	}).Methods(http.MethodDelete)

	r.HandleFunc("/api/mails/incoming", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out := []map[string]interface{}{}
		for _, m := range f.mails {
			if v := q.Get("assigned_service"); v != "" && m["assigned_service"] != v {
				continue
			}
			if v := q.Get("status"); v != "" && m["status"] != v {
				continue
			}
			out = append(out, m)
		}
		f.json(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/mails/incoming/{id}", func(w http.ResponseWriter, r *http.Request) {
		m := f.mail(mux.Vars(r)["id"])
		if m == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodPut {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			for _, s := range f.services {
				if fmt.Sprint(s["id"]) == fmt.Sprint(body["indexed_function_id"]) {
					m["assigned_service"] = s["code"]
					m["indexed_function_id"] = body["indexed_function_id"]
				}
			}
			m["status"] = body["status"]
			f.json(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
		f.json(w, http.StatusOK, map[string]interface{}{"mail": m})
	}).Methods(http.MethodGet, http.MethodPut)
	r.HandleFunc("/api/mails/incoming/{id}/disposition", func(w http.ResponseWriter, r *http.Request) {
		m := f.mail(mux.Vars(r)["id"])
		m["statut_global"] = "En Traitement"
		f.json(w, http.StatusOK, map[string]bool{"success": true})
	}).Methods(http.MethodPut)
	r.HandleFunc("/api/mails/shared", func(w http.ResponseWriter, r *http.Request) {
		out := []map[string]interface{}{}
		for _, s := range f.shares {
			if s["to"] == r.URL.Query().Get("service") {
				out = append(out, s)
			}
		}
		f.json(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/mails/{id}/share", func(w http.ResponseWriter, r *http.Request) {
		var body backend.ShareRequest
		json.NewDecoder(r.Body).Decode(&body)
		m := f.mail(mux.Vars(r)["id"])
		for _, code := range body.ServiceCodes {
			f.shares = append(f.shares, map[string]interface{}{
				"id": f.id(), "ref_code": m["ref_code"], "to": code,
				"shared_by_name": "admin", "shared_from_service": m["assigned_service"],
			})
		}
		f.json(w, http.StatusOK, map[string]bool{"success": true})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/archives", func(w http.ResponseWriter, r *http.Request) {
		if f.brokenArchives {
			f.json(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		out := []map[string]interface{}{}
		for _, a := range f.archives {
			if v := r.URL.Query().Get("service"); v != "" && a["service_code"] != v {
				continue
			}
			out = append(out, a)
		}
		f.json(w, http.StatusOK, map[string]interface{}{"archives": out})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/archives", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		m := f.mail(fmt.Sprint(body["incoming_mail_id"]))
		id := f.id()
		f.archives = append(f.archives, map[string]interface{}{
			"id": id, "incoming_mail_id": body["incoming_mail_id"], "service_code": m["assigned_service"],
			"created_at": "2025-03-10T09:00:00.000Z",
		})
		f.json(w, http.StatusCreated, map[string]int{"id": id})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/courriers-sortants/stats", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, map[string]interface{}{"period": r.URL.Query().Get("period"), "total": 3})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		f.json(w, http.StatusOK, map[string]interface{}{"stats": []map[string]interface{}{
			{"title": "Courriers Entrants", "value": len(f.mails)},
			{"title": internalCounter, "value": strconv.Itoa(f.internal)},
		}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/correspondances-internes", func(w http.ResponseWriter, r *http.Request) {
		if !f.stuckInternal {
			f.internal++
		}
		f.json(w, http.StatusCreated, map[string]int{"id": f.id()})
	}).Methods(http.MethodPost)

	return r
}

func (f *fakeBackend) mail(id string) map[string]interface{} {
	for _, m := range f.mails {
		if fmt.Sprint(m["id"]) == id {
			return m
		}
	}
	return nil
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) UsersByRoleName(ctx context.Context, name string) (*models.Role, []models.User, error) {
	args := m.Called(ctx, name)
	role, _ := args.Get(0).(*models.Role)
	users, _ := args.Get(1).([]models.User)
	return role, users, args.Error(2)
}

func newTestRunner(t *testing.T, fake *fakeBackend, dir RoleDirectory) (*Runner, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)

	quiet := logging.NewLogger("error", "json", io.Discard)
	client := backend.New(srv.URL, 5*time.Second)
	client.Logger = quiet

	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	return NewRunner(client, console.New(&buf), quiet, opts, dir), &buf
}

func TestLookup(t *testing.T) {
	s, err := Lookup("share")
	require.NoError(t, err)
	assert.Equal(t, "share", s.Name)

	_, err = Lookup("nope")
	assert.ErrorIs(t, err, shared.ErrUnknownScenario)
	assert.Len(t, Names(), len(Scenarios()))
}

func TestScenarios_Pass(t *testing.T) {
	for _, name := range []string{
		"login", "services", "create-service", "service-lifecycle", "share", "shared",
		"outgoing-stats", "dashboard-count", "archive-provenance", "dynamic-menu",
		"service-dashboard", "diagnose-401",
	} {
		t.Run(name, func(t *testing.T) {
			runner, out := newTestRunner(t, newFakeBackend(), nil)
			err := runner.Run(context.Background(), name)
			require.NoError(t, err, out.String())
			assert.NotContains(t, out.String(), console.IconFail)
		})
	}
}

func TestCreateService_ConflictIsAWarning(t *testing.T) {
	fake := newFakeBackend()
	runner, out := newTestRunner(t, fake, nil)
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx, "create-service"))
	require.NoError(t, runner.Run(ctx, "create-service"))
	assert.Contains(t, out.String(), "Service COMMUNICATION déjà existant")
	assert.Contains(t, out.String(), "← NOUVEAU")
}

func TestServiceLifecycle_ReusesExisting(t *testing.T) {
	fake := newFakeBackend()
	fake.services = append(fake.services, map[string]interface{}{"id": 50, "code": "SERVICE_TEST_AUTO", "nom": "x", "actif": 1, "has_archive_page": 1})
	runner, out := newTestRunner(t, fake, nil)

	require.NoError(t, runner.Run(context.Background(), "service-lifecycle"))
	assert.Contains(t, out.String(), "Service existant trouvé avec ID: 50")
	for _, s := range fake.services {
		assert.NotEqual(t, "SERVICE_TEST_AUTO", s["code"])
	}
}

func TestShare_NoMail(t *testing.T) {
	fake := newFakeBackend()
	fake.mails = nil
	runner, _ := newTestRunner(t, fake, nil)

	err := runner.Run(context.Background(), "share")
	assert.ErrorIs(t, err, shared.ErrCheckFailed)
}

func TestDashboardCount_StuckCounter(t *testing.T) {
	fake := newFakeBackend()
	fake.stuckInternal = true
	runner, out := newTestRunner(t, fake, nil)

	err := runner.Run(context.Background(), "dashboard-count")
	assert.ErrorIs(t, err, shared.ErrCheckFailed)
	assert.Contains(t, out.String(), "comptage incorrect (4 -> 4)")
}

func TestArchiveProvenance_Fields(t *testing.T) {
	fake := newFakeBackend()
	runner, out := newTestRunner(t, fake, nil)

	require.NoError(t, runner.Run(context.Background(), "archive-provenance"))
	assert.Contains(t, out.String(), "Provenance archive correspond au service indexé: COMPTABLE")
	assert.Equal(t, "En Traitement", fake.mails[0]["statut_global"])
}

func TestDynamicMenu(t *testing.T) {
	t.Run("routes", func(t *testing.T) {
		runner, out := newTestRunner(t, newFakeBackend(), nil)
		require.NoError(t, runner.Run(context.Background(), "dynamic-menu"))
		assert.Contains(t, out.String(), "/finances-administration/archive-ressources-humaines")
		assert.Contains(t, out.String(), "/api/archives?service=COMPTABLE&limit=10")
	})

	t.Run("broken endpoint", func(t *testing.T) {
		fake := newFakeBackend()
		fake.brokenArchives = true
		runner, _ := newTestRunner(t, fake, nil)
		assert.ErrorIs(t, runner.Run(context.Background(), "dynamic-menu"), shared.ErrCheckFailed)
	})
}

func TestServiceDashboard_Counts(t *testing.T) {
	runner, out := newTestRunner(t, newFakeBackend(), nil)

	require.NoError(t, runner.Run(context.Background(), "service-dashboard"))
	text := out.String()
	assert.Contains(t, text, "/services/comptable/dashboard")
	assert.Contains(t, text, "En Traitement: 1")
	assert.Contains(t, text, "Total archives: 2")
	assert.Contains(t, text, "Archives ce mois: 1")
}

func TestRoleAccess(t *testing.T) {
	email := "compta@mail.com"
	dir := new(mockDirectory)
	dir.On("UsersByRoleName", mock.Anything, "comptable").
		Return(&models.Role{ID: 4, Name: "comptable"}, []models.User{{ID: 2, Email: &email}}, nil)

	runner, out := newTestRunner(t, newFakeBackend(), dir)
	require.NoError(t, runner.Run(context.Background(), "role-access"))
	assert.Contains(t, out.String(), "Connexion compta@mail.com OK")
	assert.Contains(t, out.String(), "2 archive(s)")
	dir.AssertExpectations(t)
}

func TestRoleAccess_NoUsers(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("UsersByRoleName", mock.Anything, "comptable").Return(&models.Role{ID: 4, Name: "comptable"}, []models.User{}, nil)

	runner, _ := newTestRunner(t, newFakeBackend(), dir)
	assert.ErrorIs(t, runner.Run(context.Background(), "role-access"), shared.ErrCheckFailed)
}

func TestLogin_BadPassword(t *testing.T) {
	runner, out := newTestRunner(t, newFakeBackend(), nil)
	runner.opts.Password = "wrong"

	err := runner.Run(context.Background(), "login")
	assert.Equal(t, http.StatusUnauthorized, backend.StatusCode(err))
	assert.Contains(t, out.String(), console.IconFail)
}

func TestRunAll(t *testing.T) {
	fake := newFakeBackend()
	fake.stuckInternal = true
	runner, out := newTestRunner(t, fake, nil)

	results, err := runner.RunAll(context.Background())
	assert.ErrorIs(t, err, shared.ErrCheckFailed)
	assert.Contains(t, err.Error(), "dashboard-count")
	require.Len(t, results, len(Scenarios()))

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.True(t, byName["role-access"].Skipped)
	assert.Error(t, byName["dashboard-count"].Err)
	assert.NoError(t, byName["login"].Err)
	assert.Contains(t, out.String(), "Résumé")
}
