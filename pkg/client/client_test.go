package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/openlingo/openlingo/pkg/client"
	"github.com/openlingo/openlingo/pkg/client/session"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newClient(t *testing.T, h http.Handler) (*client.Client, *session.Store, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	sess, err := session.NewStore(session.NewMemStorage())
	if err != nil {
		t.Fatal(err)
	}
	return client.New(srv.URL, sess), sess, &calls
}

func TestLoginStoresSession(t *testing.T) {
	c, sess, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome","data":{"access_token":"tok123",
			"user":{"id":"u1","username":"ann","role":"user"}}}`))
	}))

	res, err := c.Login(context.Background(), "ann", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if res.AccessToken != "tok123" || res.User.Username != "ann" {
		t.Errorf("result = %+v", res)
	}
	if sess.Token() != "tok123" || !sess.IsAuthenticated() {
		t.Error("session not stored after login")
	}
}

func TestWithHTTPClientOverridesTransport(t *testing.T) {
	sess, err := session.NewStore(session.NewMemStorage())
	if err != nil {
		t.Fatal(err)
	}
	var hit bool
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		hit = true
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"data":[]}`)),
		}, nil
	})}
	c := client.New("http://example.invalid", sess, client.WithHTTPClient(hc))

	if _, err := c.GrammarTopics(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("configured http client was not used")
	}

	// answer options stay a distinct type from client configuration options
	opts := []client.Option{{Text: "a"}, {Text: "b"}}
	client.SetCorrectOption(opts, 1)
	if opts[0].Correct || !opts[1].Correct {
		t.Errorf("options = %+v", opts)
	}
}

func TestInvalidFormNeverReachesNetwork(t *testing.T) {
	c, _, calls := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server was called for an invalid form")
	}))

	_, err := c.SaveTopic(context.Background(), client.Topic{Name: "", RequiredLevel: "A1"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Fields["name"] == "" {
		t.Errorf("fields = %v", apiErr.Fields)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d", calls.Load())
	}

	_, err = c.SaveQuestion(context.Background(), "grammar", client.Question{
		Type: "MULTIPLE_CHOICE", Text: "pick", Points: 5,
		Options: []client.Option{{Text: "a"}, {Text: "b"}},
	})
	if !errors.As(err, &apiErr) || apiErr.Fields["options"] == "" {
		t.Errorf("question err = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestServerErrorCarriesMessageAndFields(t *testing.T) {
	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"validation failed","errors":{"title":"title is required"}}`))
	}))

	_, err := c.SaveTopic(context.Background(), client.Topic{Name: "ok", RequiredLevel: "A1"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity ||
		apiErr.Message != "validation failed" ||
		apiErr.Fields["title"] != "title is required" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	c, sess, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	if err := sess.SetSession("stale-token", session.User{ID: "u1", Role: "user"}); err != nil {
		t.Fatal(err)
	}

	_, err := c.GrammarTopics(context.Background())
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	// the plain-text error body still surfaces as the message
	if apiErr.Message != "bad token" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if sess.IsAuthenticated() {
		t.Error("session survived a 401")
	}
}

func TestBearerHeaderSentWhenAuthenticated(t *testing.T) {
	var gotAuth string
	c, sess, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	_ = sess.SetSession("tok", session.User{ID: "u1", Role: "user"})

	if _, err := c.GrammarTopics(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestReadingTreeSynthesizesOneTopic(t *testing.T) {
	c, _, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"id":"r1","kind":"reading","type":"THEORY","title":"One","unlocked":true,"completed":true},
			{"id":"r2","kind":"reading","type":"THEORY","title":"Two","unlocked":true}
		]}`))
	}))

	topics, err := c.Reading().LoadTree(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 1 || topics[0].ID != "reading" {
		t.Fatalf("topics = %+v", topics)
	}
	if topics[0].TotalCount != 2 || topics[0].CompletedCount != 1 {
		t.Errorf("counters = %d/%d", topics[0].CompletedCount, topics[0].TotalCount)
	}
}
