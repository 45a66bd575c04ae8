package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"gurukulx/internal/app"
	"gurukulx/internal/domain"
	"gurukulx/internal/infra/memory"
	"gurukulx/internal/security"
)

type testServer struct {
	server *httptest.Server
	boards *app.ScoreboardService
	ledger *app.ProfileService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := memory.NewKV()
	identity := memory.NewIdentityStore(kv)
	profiles := memory.NewProfileStore(kv)
	boardRepo := memory.NewScoreboardStore(kv)

	ledger := app.NewProfileService(profiles, identity, boardRepo)
	boards := app.NewScoreboardService(boardRepo, profiles, identity)
	questions := memory.NewQuestionSource(memory.DefaultQuizBank(), 1)
	games := app.NewGameService(questions, ledger, boards, 0)

	tokens := security.NewTokenManager("test-access", "test-refresh")
	auth := app.NewAuthService(memory.NewAccountStore(), security.NewPasswordHasher(), tokens, identity, ledger)
	learning := app.NewLearningService(memory.NewLearningStore())

	router := NewRouter(
		NewAuthHandler(auth),
		NewProfileHandler(ledger, boards, games, auth),
		NewLearningHandler(learning),
		NewWSHandler(boards),
		tokens,
		auth,
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{server: server, boards: boards, ledger: ledger}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (ts *testServer) register(t *testing.T, name, role, class string) string {
	t.Helper()
	resp, _ := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": name, "password": "secret123", "role": role, "class": class,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", name, resp.StatusCode)
	}
	resp, body := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"name": name, "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", name, resp.StatusCode)
	}
	tokens, _ := body["tokens"].(map[string]any)
	access, _ := tokens["accessToken"].(string)
	if access == "" {
		t.Fatalf("login %s: no access token in %v", name, body)
	}
	return access
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Aditi", "password": "secret123", "class": "6A",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Aditi", "password": "other-secret",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", resp.StatusCode)
	}

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"name": "Aditi", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d, want 401", resp.StatusCode)
	}

	resp, body := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"name": "Aditi", "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	tokens, _ := body["tokens"].(map[string]any)
	refresh, _ := tokens["refreshToken"].(string)
	if refresh == "" {
		t.Fatalf("login response missing refresh token: %v", body)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refreshToken": refresh,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: status %d", resp.StatusCode)
	}
	if body["accessToken"] == "" {
		t.Fatalf("refresh response missing access token: %v", body)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", resp.StatusCode)
	}

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/profile", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", resp.StatusCode)
	}
}

func TestProfileReadAndClassPatch(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Aditi", "student", "6A")

	resp, body := ts.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile: status %d", resp.StatusCode)
	}
	profile, _ := body["profile"].(map[string]any)
	if profile["name"] != "Aditi" {
		t.Fatalf("profile name = %v, want Aditi", profile["name"])
	}
	if got := profile["streak"].(float64); got != 1 {
		t.Fatalf("streak after first visit = %v, want 1", got)
	}

	resp, body = ts.do(t, http.MethodPut, "/api/v1/profile", token, map[string]any{
		"class": "7A",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put profile: status %d", resp.StatusCode)
	}
	user, _ := body["user"].(map[string]any)
	if user["class"] != "7A" {
		t.Fatalf("class = %v, want 7A", user["class"])
	}

	resp, body = ts.do(t, http.MethodPut, "/api/v1/profile", token, map[string]any{
		"resetProgress": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset progress: status %d", resp.StatusCode)
	}
	profile, _ = body["profile"].(map[string]any)
	if got := profile["progress"].(float64); got != 0 {
		t.Fatalf("progress after reset = %v, want 0", got)
	}
}

func TestClassPatchScopedToAuthenticatedUser(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "Alice", "student", "6A")
	// Bob logs in last, so the session identity belongs to him
	bob := ts.register(t, "Bob", "student", "6B")

	resp, body := ts.do(t, http.MethodPut, "/api/v1/profile", alice, map[string]any{
		"class": "7C",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put profile: status %d", resp.StatusCode)
	}
	user, _ := body["user"].(map[string]any)
	if user["name"] != "Alice" || user["class"] != "7C" {
		t.Fatalf("patch answered with user %v, want Alice in 7C", user)
	}
	if profile, _ := body["profile"].(map[string]any); profile["name"] != "Alice" {
		t.Fatalf("patch answered with profile %v, want Alice's", profile)
	}

	// Bob's account and session are untouched
	resp, body = ts.do(t, http.MethodGet, "/api/v1/profile", bob, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile: status %d", resp.StatusCode)
	}
	user, _ = body["user"].(map[string]any)
	if user["name"] != "Bob" || user["class"] != "6B" {
		t.Fatalf("Bob's profile after Alice's patch: %v, want Bob in 6B", user)
	}

	// Alice's patch sticks across requests
	resp, body = ts.do(t, http.MethodGet, "/api/v1/profile", alice, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile: status %d", resp.StatusCode)
	}
	user, _ = body["user"].(map[string]any)
	if user["class"] != "7C" {
		t.Fatalf("Alice's class = %v, want 7C", user["class"])
	}

	// and lands on her leaderboard row, not someone else's
	resp, body = ts.do(t, http.MethodGet, "/api/v1/leaderboard", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: status %d", resp.StatusCode)
	}
	entries, _ := body["entries"].([]any)
	for _, e := range entries {
		entry := e.(map[string]any)
		if entry["name"] == "Alice" && entry["class"] != "7C" {
			t.Fatalf("Alice's leaderboard class = %v, want 7C", entry["class"])
		}
		if entry["name"] == "Bob" && entry["class"] == "7C" {
			t.Fatalf("Bob's leaderboard row took Alice's class: %v", entry)
		}
	}
}

func TestResultIngestUpdatesProfileAndLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Aditi", "student", "6A")

	resp, body := ts.do(t, http.MethodPost, "/api/v1/results", token, map[string]any{
		"gameType": "quiz", "score": 150, "xpEarned": 150, "progressEarned": 20,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("post result: status %d", resp.StatusCode)
	}
	profile, _ := body["profile"].(map[string]any)
	if got := profile["score"].(float64); got != 150 {
		t.Fatalf("score = %v, want 150", got)
	}
	if got := profile["progress"].(float64); got != 20 {
		t.Fatalf("progress = %v, want 20", got)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/v1/leaderboard", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: status %d", resp.StatusCode)
	}
	entries, _ := body["entries"].([]any)
	found := false
	for _, e := range entries {
		entry := e.(map[string]any)
		if entry["name"] == "Aditi" && entry["score"].(float64) == 150 {
			found = true
		}
	}
	if !found {
		t.Fatalf("leaderboard missing Aditi with score 150: %v", entries)
	}
}

func TestGameFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Rahul", "student", "6B")

	resp, body := ts.do(t, http.MethodPost, "/api/v1/games/start", token, map[string]any{
		"gameType": "quiz",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}

	for i := 0; i < 10; i++ {
		question, _ := body["question"].(map[string]any)
		if question == nil {
			t.Fatalf("round %d: no question in %v", i, body)
		}
		for _, o := range question["options"].([]any) {
			if _, leaked := o.(map[string]any)["correct"]; leaked {
				t.Fatalf("question payload leaks the correct flag: %v", o)
			}
		}
		options := question["options"].([]any)
		resp, body = ts.do(t, http.MethodPost, "/api/v1/games/answer", token, map[string]any{
			"questionId": question["id"],
			"optionId":   options[0].(map[string]any)["id"],
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("answer: status %d", resp.StatusCode)
		}
		outcome := body["outcome"].(map[string]any)
		if outcome["done"] == true {
			return
		}
	}
	t.Fatalf("quiz never finished")
}

func TestAbandonedGameLeavesNoTrace(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Meera", "student", "7A")

	before := ts.ledger.Profile("Meera")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/games/start", token, map[string]any{"gameType": "quiz"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodPost, "/api/v1/games/abandon", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("abandon: status %d", resp.StatusCode)
	}

	after := ts.ledger.Profile("Meera")
	if before.Score != after.Score || before.XP != after.XP || before.Progress != after.Progress {
		t.Fatalf("abandoned game changed the ledger: before %+v after %+v", before, after)
	}

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/games/answer", token, map[string]any{
		"questionId": "q1", "optionId": "q1-a",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("answer after abandon: status %d, want 409", resp.StatusCode)
	}
}

func TestTeacherOnlyEndpoints(t *testing.T) {
	ts := newTestServer(t)
	student := ts.register(t, "Aditi", "student", "6A")
	teacher := ts.register(t, "MsSharma", "teacher", "")

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/students", student, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("students as student: status %d, want 403", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/students", teacher, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("students as teacher: status %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/stats/class", teacher, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("class stats as teacher: status %d", resp.StatusCode)
	}
}

func TestAssignmentLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.register(t, "MsSharma", "teacher", "")
	student := ts.register(t, "Aditi", "student", "6A")

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/assignments", student, map[string]any{
		"title": "Fractions worksheet", "class": "6A",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("create as student: status %d, want 403", resp.StatusCode)
	}

	resp, body := ts.do(t, http.MethodPost, "/api/v1/assignments", teacher, map[string]any{
		"title": "Fractions worksheet", "subject": "Maths", "class": "6A", "dueDate": "2026-09-05",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	assignment := body["assignment"].(map[string]any)
	id, _ := assignment["id"].(string)
	if id == "" {
		t.Fatalf("created assignment has no id: %v", assignment)
	}

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/assignments/"+id+"/submit", student, map[string]any{
		"answer": "3/4 is larger than 2/3",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/v1/assignments", student, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	assignments, _ := body["assignments"].([]any)
	if len(assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(assignments))
	}

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/assignments/nope/submit", student, map[string]any{
		"answer": "x",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("submit to missing assignment: status %d, want 404", resp.StatusCode)
	}
}

func TestDoubtAndFeedbackFlow(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.register(t, "MsSharma", "teacher", "")
	student := ts.register(t, "Rahul", "student", "6B")

	resp, body := ts.do(t, http.MethodPost, "/api/v1/doubts", student, map[string]any{
		"subject": "Science", "question": "Why is the sky blue?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ask doubt: status %d", resp.StatusCode)
	}
	doubt := body["doubt"].(map[string]any)
	id, _ := doubt["id"].(string)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/doubts/"+id+"/answer", student, map[string]any{
		"answer": "scattering",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("answer as student: status %d, want 403", resp.StatusCode)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/v1/doubts/"+id+"/answer", teacher, map[string]any{
		"answer": "Sunlight scatters off air molecules.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer: status %d", resp.StatusCode)
	}
	if got := body["doubt"].(map[string]any)["status"]; got != string(domain.DoubtAnswered) {
		t.Fatalf("status = %v, want answered", got)
	}

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/feedback", student, map[string]any{
		"message": "Love the balloon game", "rating": 5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("feedback: status %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/feedback", student, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("list feedback as student: status %d, want 403", resp.StatusCode)
	}
	resp, body = ts.do(t, http.MethodGet, "/api/v1/feedback", teacher, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list feedback as teacher: status %d", resp.StatusCode)
	}
	if feedback, _ := body["feedback"].([]any); len(feedback) != 1 {
		t.Fatalf("feedback entries = %d, want 1", len(feedback))
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("healthz body = %v", body)
	}
}
