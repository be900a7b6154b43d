//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"review_dashboard/internal/app"
	"review_dashboard/internal/domain"
	mysqlrepo "review_dashboard/internal/storage/mysql"
)

// ---------- helpers ----------
func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- tiny HTTP around repo (keeps wiring simple) ----------
type testAPI struct{ repo *mysqlrepo.Repo }

func (a *testAPI) propertyReviews(w http.ResponseWriter, r *http.Request) {
	// Expect /api/properties/{propertyID}/reviews
	rest := strings.TrimPrefix(r.URL.Path, "/api/properties/")
	propertyID := strings.TrimSuffix(rest, "/reviews")
	if propertyID == "" || propertyID == rest {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	q := domain.ReviewsQuery{PropertyID: &propertyID, Limit: 50}
	if ds := r.URL.Query().Get("display"); ds != "" {
		d := ds == "true"
		q.DisplayOnWebsite = &d
	}
	rs, err := a.repo.ListReviews(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "result": rs})
}

func (a *testAPI) setDisplay(w http.ResponseWriter, r *http.Request) {
	// Expect /api/reviews/{id}/display
	rest := strings.TrimPrefix(r.URL.Path, "/api/reviews/")
	id := strings.TrimSuffix(rest, "/display")
	var body struct {
		DisplayOnWebsite bool `json:"displayOnWebsite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if err := a.repo.SetDisplayOnWebsite(r.Context(), id, body.DisplayOnWebsite); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ---------- the test ----------
func TestHTTP_EndToEnd_CurationFlow(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reviews")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// Apply real migrations
	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// Seed through the real normalization path.
	raws := []map[string]any{
		{
			"id": 7453.0, "type": "guest-to-host", "status": "published",
			"publicReview": "Lovely flat",
			"reviewCategory": []any{
				map[string]any{"category": "cleanliness", "rating": 10.0},
			},
			"submittedAt": "2025-03-01 10:00:00",
			"guestName":   "Shane Finkelstein",
			"listingName": "2B N1 A - 29 Shoreditch Heights",
		},
		{
			"id": 7531.0, "type": "guest-to-host", "status": "published",
			"rating": 8.0, "publicReview": "Nice stay",
			"submittedAt": "2025-03-02 09:00:00",
			"guestName":   "Maria Lopez",
			"listingName": "2B N1 A - 29 Shoreditch Heights",
		},
	}
	if err := repo.UpsertReviews(ctx, app.NormalizeBatch(raws, now)); err != nil {
		t.Fatalf("UpsertReviews: %v", err)
	}

	// Spin up minimal HTTP server exposing the routes we need
	api := &testAPI{repo: repo}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/properties/", api.propertyReviews)
	mux.HandleFunc("/api/reviews/", api.setDisplay)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	// Nothing approved yet: the public page sees zero reviews.
	var body struct {
		Status string          `json:"status"`
		Result []domain.Review `json:"result"`
	}
	getJSON := func(url string) {
		t.Helper()
		res, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
		body.Result = nil
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}

	displayedURL := fmt.Sprintf("%s/api/properties/2b-n1-a-29-shoreditch-heights/reviews?display=true", ts.URL)
	getJSON(displayedURL)
	if len(body.Result) != 0 {
		t.Fatalf("expected no displayed reviews before approval, got %+v", body.Result)
	}

	// Manager approves one review.
	req, _ := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/api/reviews/7453/display", ts.URL),
		bytes.NewBufferString(`{"displayOnWebsite": true}`))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d", res.StatusCode)
	}

	// The public page now shows exactly the approved review.
	getJSON(displayedURL)
	if len(body.Result) != 1 || body.Result[0].ID != "7453" {
		t.Fatalf("expected approved review 7453, got %+v", body.Result)
	}
	if body.Result[0].GuestName != "Shane Finkelstein" {
		t.Fatalf("unexpected guest: %+v", body.Result[0])
	}
	if body.Result[0].Rating == nil || *body.Result[0].Rating != 10 {
		t.Fatalf("expected category-derived rating 10, got %v", body.Result[0].Rating)
	}
}
