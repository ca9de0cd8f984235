package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"timetracker/internal/app/server"
	"timetracker/internal/domain/auth"
	"timetracker/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:                dbURL,
		JWTSecret:                  "test-secret",
		TokenTTL:                   time.Hour,
		Environment:                "test",
		BusinessTimezone:           "America/Los_Angeles",
		SubmissionReminderInterval: time.Hour,
		ExpirationReminderInterval: 24 * time.Hour,
		SeedAdminEmail:             "admin@test.local",
		SeedAdminPassword:          "ChangeMe123!",
		EmailFrom:                  "no-reply@test.local",
		RunMigrations:              true,
		RunSeed:                    true,
		MaxBodyBytes:               1048576,
	}
}

func TestTimesheetSubmissionJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	f := newFixture(t, app)
	employee := f.createAccount("employee", "Journey", "Tester")
	manager := f.createAccount("manager", "Manny", "Manager")
	projectID := f.createProject("Journey Project", "weekly", false)
	f.assignManager(projectID, manager.employeeID)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	employeeToken := login(t, client, ts.URL, employee.email, employee.password)
	managerToken := login(t, client, ts.URL, manager.email, manager.password)

	current := getJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/current?projectId=%d", ts.URL, projectID), employeeToken)
	if current["status"] != "draft" {
		t.Fatalf("expected fresh timesheet in draft, got %v", current["status"])
	}
	timesheetID := int64(current["id"].(float64))

	today := time.Now().In(app.Config.BusinessLocation()).Format("2006-01-02")
	updated := putJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/entries", ts.URL, timesheetID), employeeToken, map[string]any{
		"entries": []map[string]any{
			{"date": today, "hours": 8},
		},
	})
	if updated["totalHours"].(float64) != 8 {
		t.Fatalf("expected total hours 8, got %v", updated["totalHours"])
	}

	submitted := postJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/submit", ts.URL, timesheetID), employeeToken, map[string]any{})
	if submitted["status"] != "pending" {
		t.Fatalf("expected status pending after submit, got %v", submitted["status"])
	}

	rejected := postJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/reject", ts.URL, timesheetID), managerToken, map[string]any{
		"reason": "missing task breakdown",
	})
	if rejected["status"] != "rejected" {
		t.Fatalf("expected status rejected, got %v", rejected["status"])
	}
	if rejected["rejectionReason"] != "missing task breakdown" {
		t.Fatalf("expected rejection reason to be stored, got %v", rejected["rejectionReason"])
	}

	fixed := putJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/entries", ts.URL, timesheetID), employeeToken, map[string]any{
		"entries": []map[string]any{
			{"date": today, "hours": 0, "tasks": []map[string]any{
				{"name": "development", "hours": 6},
				{"name": "review", "hours": 2},
			}},
		},
	})
	if fixed["totalHours"].(float64) != 8 {
		t.Fatalf("expected task hours to roll up to 8, got %v", fixed["totalHours"])
	}

	resubmitted := postJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/submit", ts.URL, timesheetID), employeeToken, map[string]any{})
	if resubmitted["status"] != "pending" {
		t.Fatalf("expected status pending after resubmit, got %v", resubmitted["status"])
	}
	if resubmitted["rejectionReason"] != nil {
		t.Fatalf("expected rejection reason cleared on resubmit, got %v", resubmitted["rejectionReason"])
	}

	approved := postJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/approve", ts.URL, timesheetID), managerToken, map[string]any{})
	if approved["status"] != "approved" {
		t.Fatalf("expected status approved, got %v", approved["status"])
	}
	if int64(approved["approvedBy"].(float64)) != manager.employeeID {
		t.Fatalf("expected approvedBy %d, got %v", manager.employeeID, approved["approvedBy"])
	}
}

func TestAutoApproveProjectSkipsReview(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	f := newFixture(t, app)
	employee := f.createAccount("employee", "Auto", "Approver")
	projectID := f.createProject("Auto Project", "weekly", true)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	token := login(t, client, ts.URL, employee.email, employee.password)

	current := getJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/current?projectId=%d", ts.URL, projectID), token)
	timesheetID := int64(current["id"].(float64))

	today := time.Now().In(app.Config.BusinessLocation()).Format("2006-01-02")
	putJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/entries", ts.URL, timesheetID), token, map[string]any{
		"entries": []map[string]any{{"date": today, "hours": 7.5}},
	})

	submitted := postJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/submit", ts.URL, timesheetID), token, map[string]any{})
	if submitted["status"] != "approved" {
		t.Fatalf("expected auto-approved status, got %v", submitted["status"])
	}
	if submitted["approvedBy"] != nil {
		t.Fatalf("expected no approver on auto-approval, got %v", submitted["approvedBy"])
	}
	if submitted["approvedAt"] == nil {
		t.Fatal("expected approvedAt to be set on auto-approval")
	}
}

func TestEmployeeCannotApproveOwnTimesheet(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	f := newFixture(t, app)
	employee := f.createAccount("employee", "Eager", "Approver")
	projectID := f.createProject("Locked Project", "weekly", false)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	token := login(t, client, ts.URL, employee.email, employee.password)

	current := getJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/current?projectId=%d", ts.URL, projectID), token)
	timesheetID := int64(current["id"].(float64))

	today := time.Now().In(app.Config.BusinessLocation()).Format("2006-01-02")
	putJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/entries", ts.URL, timesheetID), token, map[string]any{
		"entries": []map[string]any{{"date": today, "hours": 4}},
	})
	postJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/submit", ts.URL, timesheetID), token, map[string]any{})

	postJSONStatus(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/approve", ts.URL, timesheetID), token, map[string]any{}, http.StatusForbidden)
}

func TestSubmitEmptyTimesheetRejected(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	f := newFixture(t, app)
	employee := f.createAccount("employee", "Empty", "Sheet")
	projectID := f.createProject("Empty Project", "monthly", false)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	token := login(t, client, ts.URL, employee.email, employee.password)

	current := getJSONMap(t, client, fmt.Sprintf("%s/api/v1/timesheets/current?projectId=%d", ts.URL, projectID), token)
	timesheetID := int64(current["id"].(float64))

	postJSONStatus(t, client, fmt.Sprintf("%s/api/v1/timesheets/%d/submit", ts.URL, timesheetID), token, map[string]any{}, http.StatusBadRequest)
}

type account struct {
	userID     int64
	employeeID int64
	email      string
	password   string
}

type fixture struct {
	t   *testing.T
	app *server.App
}

func newFixture(t *testing.T, app *server.App) *fixture {
	return &fixture{t: t, app: app}
}

func (f *fixture) createAccount(role, firstName, lastName string) account {
	f.t.Helper()
	ctx := context.Background()
	email := fmt.Sprintf("%s-%d@example.com", firstName, time.Now().UnixNano())
	password := "Passw0rd!"

	hash, err := auth.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}

	var userID int64
	if err := f.app.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role, active)
    VALUES ($1, $2, $3, true)
    RETURNING id
  `, email, hash, role).Scan(&userID); err != nil {
		f.t.Fatalf("failed to create user: %v", err)
	}

	var employeeID int64
	if err := f.app.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, first_name, last_name, email, active)
    VALUES ($1, $2, $3, $4, true)
    RETURNING id
  `, userID, firstName, lastName, email).Scan(&employeeID); err != nil {
		f.t.Fatalf("failed to create employee: %v", err)
	}

	return account{userID: userID, employeeID: employeeID, email: email, password: password}
}

func (f *fixture) createProject(name, periodType string, autoApprove bool) int64 {
	f.t.Helper()
	var id int64
	err := f.app.DB.QueryRow(context.Background(), `
    INSERT INTO projects (name, period_type, auto_approve, active)
    VALUES ($1, $2, $3, true)
    RETURNING id
  `, fmt.Sprintf("%s %d", name, time.Now().UnixNano()), periodType, autoApprove).Scan(&id)
	if err != nil {
		f.t.Fatalf("failed to create project: %v", err)
	}
	return id
}

func (f *fixture) assignManager(projectID, employeeID int64) {
	f.t.Helper()
	_, err := f.app.DB.Exec(context.Background(), `
    INSERT INTO project_managers (project_id, employee_id)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, projectID, employeeID)
	if err != nil {
		f.t.Fatalf("failed to assign manager: %v", err)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func getJSONMap(t *testing.T, client *http.Client, url, token string) map[string]any {
	t.Helper()
	resp := getJSON(t, client, url, token)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode response from %s: %v", url, err)
	}
	return payload
}

func postJSONMap(t *testing.T, client *http.Client, url, token string, body any) map[string]any {
	t.Helper()
	resp := postJSON(t, client, url, token, body)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode response from %s: %v", url, err)
	}
	return payload
}

func putJSONMap(t *testing.T, client *http.Client, url, token string, body any) map[string]any {
	t.Helper()
	resp := doJSON(t, client, http.MethodPut, url, token, body, 0)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode response from %s: %v", url, err)
	}
	return payload
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, 0)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, want)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, 0)
}

// doJSON performs a request and decodes the response envelope. When
// want is zero any status below 400 passes, otherwise the status must
// match exactly.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if want == 0 {
		if resp.StatusCode >= 400 {
			t.Fatalf("unexpected status %d from %s: %s", resp.StatusCode, url, string(raw))
		}
	} else if resp.StatusCode != want {
		t.Fatalf("expected status %d from %s, got %d: %s", want, url, resp.StatusCode, string(raw))
	}
	return env
}
