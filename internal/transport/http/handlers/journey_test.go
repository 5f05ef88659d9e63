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

	"companygrow/internal/app/server"
	"companygrow/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		ReportsDir:         "../../../../data/reports",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func TestCourseEnrollmentJourney(t *testing.T) {
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

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	employeeEmail := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeePassword := "Employee123!"
	employeeID := createUser(t, client, ts.URL, adminToken, employeeEmail, employeePassword)

	courseName := fmt.Sprintf("Go Fundamentals %d", time.Now().UnixNano())
	courseID := createCourse(t, client, ts.URL, adminToken, courseName)

	employeeToken := login(t, client, ts.URL, employeeEmail, employeePassword)
	moduleIDs := courseModuleIDs(t, client, ts.URL, employeeToken, courseID)
	if len(moduleIDs) != 4 {
		t.Fatalf("expected 4 modules, got %d", len(moduleIDs))
	}

	postJSON(t, client, fmt.Sprintf("%s/api/course/enrollCourse/%s/%s", ts.URL, employeeID, courseID), employeeToken, nil)

	// Enrolling twice is a conflict.
	postJSONStatus(t, client, fmt.Sprintf("%s/api/course/enrollCourse/%s/%s", ts.URL, employeeID, courseID), employeeToken, nil, http.StatusBadRequest)

	want := []int{25, 50, 75, 100}
	for i, moduleID := range moduleIDs {
		resp := postJSON(t, client, fmt.Sprintf("%s/api/course/completeModule/%s/%s/%s", ts.URL, employeeID, courseID, moduleID), employeeToken, nil)
		var payload map[string]int
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			t.Fatalf("failed to decode progress response: %v", err)
		}
		if payload["progress"] != want[i] {
			t.Fatalf("expected progress %d after module %d, got %d", want[i], i+1, payload["progress"])
		}
	}

	// Repeat completion does not move progress.
	resp := postJSON(t, client, fmt.Sprintf("%s/api/course/completeModule/%s/%s/%s", ts.URL, employeeID, courseID, moduleIDs[0]), employeeToken, nil)
	var repeat map[string]int
	if err := json.Unmarshal(resp.Data, &repeat); err != nil {
		t.Fatalf("failed to decode progress response: %v", err)
	}
	if repeat["progress"] != 100 {
		t.Fatalf("expected progress to stay at 100, got %d", repeat["progress"])
	}

	// The goal side of the write landed too.
	perf := getJSON(t, client, fmt.Sprintf("%s/api/user/getUserPerf/%s", ts.URL, employeeID), employeeToken)
	var periods []struct {
		Goals []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"goals"`
		Badges []struct {
			Title string `json:"title"`
		} `json:"badgesEarned"`
	}
	if err := json.Unmarshal(perf.Data, &periods); err != nil {
		t.Fatalf("failed to decode performance response: %v", err)
	}
	foundGoal := false
	foundBadge := false
	for _, period := range periods {
		for _, goal := range period.Goals {
			if goal.Title == courseName && goal.Status == "completed" {
				foundGoal = true
			}
		}
		if len(period.Badges) > 0 {
			foundBadge = true
		}
	}
	if !foundGoal {
		t.Fatal("expected a completed goal for the course")
	}
	if !foundBadge {
		t.Fatal("expected a badge for finishing the course")
	}

	status := getJSON(t, client, fmt.Sprintf("%s/api/user/getCourseStatus/%s/%s", ts.URL, employeeID, courseID), employeeToken)
	var courseStatus struct {
		Progress         int      `json:"progress"`
		CompletedModules []string `json:"completedModules"`
	}
	if err := json.Unmarshal(status.Data, &courseStatus); err != nil {
		t.Fatalf("failed to decode course status: %v", err)
	}
	if courseStatus.Progress != 100 || len(courseStatus.CompletedModules) != 4 {
		t.Fatalf("unexpected course status %+v", courseStatus)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
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

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	// Wrong password and unknown email answer identically.
	postJSONStatus(t, client, ts.URL+"/api/auth/login", "", map[string]any{
		"email":    cfg.SeedAdminEmail,
		"password": "wrong-password",
	}, http.StatusBadRequest)
	postJSONStatus(t, client, ts.URL+"/api/auth/login", "", map[string]any{
		"email":    "nobody@test.local",
		"password": "wrong-password",
	}, http.StatusBadRequest)
}

func TestProjectCompletionJourney(t *testing.T) {
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

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	employeeEmail := fmt.Sprintf("assignee-%d@example.com", time.Now().UnixNano())
	employeeID := createUser(t, client, ts.URL, adminToken, employeeEmail, "Employee123!")

	resp := postJSON(t, client, ts.URL+"/api/project/addProject", adminToken, map[string]any{
		"name":        fmt.Sprintf("Migration %d", time.Now().UnixNano()),
		"description": "Move the billing stack",
		"priority":    "high",
		"budget":      25000,
		"badgeReward": "Red",
	})
	var created map[string]string
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("failed to decode project response: %v", err)
	}
	projectID := created["id"]
	if projectID == "" {
		t.Fatal("expected project id")
	}

	putJSON(t, client, ts.URL+"/api/project/modifyUsers/"+projectID, adminToken, map[string]any{
		"assignedUsers": []string{employeeID},
	})

	postJSON(t, client, ts.URL+"/api/project/completeProject/"+projectID, adminToken, nil)

	// Completing twice is an invalid state.
	postJSONStatus(t, client, ts.URL+"/api/project/completeProject/"+projectID, adminToken, nil, http.StatusBadRequest)

	employeeToken := login(t, client, ts.URL, employeeEmail, "Employee123!")
	perf := getJSON(t, client, fmt.Sprintf("%s/api/user/getUserPerf/%s", ts.URL, employeeID), employeeToken)
	var periods []struct {
		Badges []struct {
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"badgesEarned"`
	}
	if err := json.Unmarshal(perf.Data, &periods); err != nil {
		t.Fatalf("failed to decode performance response: %v", err)
	}
	found := false
	for _, period := range periods {
		for _, badge := range period.Badges {
			if badge.Title == "Red" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected assignee to earn the project badge")
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/auth/login", "", map[string]any{
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

func createUser(t *testing.T, client *http.Client, baseURL, token, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/user/addUser", token, map[string]any{
		"email":    email,
		"password": password,
		"name":     "Journey Tester",
		"role":     "employee",
	})
	var payload map[string]string
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode user response: %v", err)
	}
	if payload["id"] == "" {
		t.Fatal("expected user id")
	}
	return payload["id"]
}

func createCourse(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	content := []map[string]any{}
	for i := 1; i <= 4; i++ {
		content = append(content, map[string]any{"title": fmt.Sprintf("Module %d", i)})
	}
	resp := postJSON(t, client, baseURL+"/api/course/addCourse", token, map[string]any{
		"name":        name,
		"category":    "engineering",
		"badgeReward": "Blue",
		"content":     content,
	})
	var payload map[string]string
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode course response: %v", err)
	}
	if payload["id"] == "" {
		t.Fatal("expected course id")
	}
	return payload["id"]
}

func courseModuleIDs(t *testing.T, client *http.Client, baseURL, token, courseID string) []string {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/course/getAllCourses", token)
	var courses []struct {
		ID      string `json:"id"`
		Content []struct {
			ID string `json:"id"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Data, &courses); err != nil {
		t.Fatalf("failed to decode course list: %v", err)
	}
	for _, course := range courses {
		if course.ID != courseID {
			continue
		}
		ids := make([]string, 0, len(course.Content))
		for _, m := range course.Content {
			ids = append(ids, m.ID)
		}
		return ids
	}
	t.Fatalf("course %s not found in listing", courseID)
	return nil
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, 0)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, body, want)
}

func putJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPut, url, token, body, 0)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, 0)
}

// doJSON performs the request and decodes the envelope. A zero want accepts
// any 2xx and fails on error statuses.
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
			t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
		}
	} else if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
	return env
}
