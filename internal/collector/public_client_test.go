package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*PublicClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	pc, err := NewPublicClient("test-agent", time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	pc.baseURL = server.URL
	return pc, server
}

func TestPublicClientSearch(t *testing.T) {
	longBody := strings.Repeat("x", 1500)

	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "acme payroll" {
			t.Errorf("unexpected query: %s", q.Get("q"))
		}
		if q.Get("t") != "week" || q.Get("sort") != "new" || q.Get("limit") != "25" {
			t.Errorf("unexpected params: %v", q)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("missing user agent")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"children":[
			{"data":{"id":"abc","title":"Acme question","subreddit":"payroll","author":"alice",
			 "selftext":"` + longBody + `","permalink":"/r/payroll/comments/abc/x/",
			 "score":12,"num_comments":7,"created_utc":1700000000}}
		]}}`))
	})

	posts, err := pc.Search(context.Background(), domain.Query{Label: "test", Query: "acme payroll"}, "week", 25)
	if err != nil {
		t.Fatalf("Search(): %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}

	p := posts[0]
	if p.ID != "abc" || p.Title != "Acme question" || p.Subreddit != "payroll" {
		t.Errorf("unexpected post: %+v", p)
	}
	if len(p.SelfText) != 1000 {
		t.Errorf("selftext not truncated: %d chars", len(p.SelfText))
	}
	if p.URL != "https://reddit.com/r/payroll/comments/abc/x/" {
		t.Errorf("unexpected URL: %s", p.URL)
	}
}

func TestPublicClientSearchSubredditRestriction(t *testing.T) {
	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/payroll/search.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("restrict_sr") != "on" {
			t.Errorf("restrict_sr not set")
		}
		w.Write([]byte(`{"data":{"children":[]}}`))
	})

	posts, err := pc.Search(context.Background(), domain.Query{Query: "acme", Subreddit: "payroll"}, "month", 10)
	if err != nil {
		t.Fatalf("Search(): %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts, want 0", len(posts))
	}
}

func TestPublicClientSearchHTTPError(t *testing.T) {
	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := pc.Search(context.Background(), domain.Query{Query: "q"}, "week", 25); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestPublicClientSearchMalformedJSON(t *testing.T) {
	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>rate limited</html>`))
	})
	if _, err := pc.Search(context.Background(), domain.Query{Query: "q"}, "week", 25); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

// commentsPayload mirrors the thread endpoint: a two-element array of
// listings, with comments nested under replies and a "more" node that
// must be skipped.
const commentsPayload = `[
 {"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
 {"kind":"Listing","data":{"children":[
   {"kind":"t1","data":{"id":"c1","author":"alice","body":"top level","score":10,
     "replies":{"kind":"Listing","data":{"children":[
       {"kind":"t1","data":{"id":"c2","author":"bob","body":"nested reply","score":4,"replies":""}},
       {"kind":"more","data":{"count":12}}
     ]}}}},
   {"kind":"t1","data":{"id":"c3","author":"carol","body":"another top level","score":2,"replies":""}},
   {"kind":"unknown_kind","data":{"whatever":true}}
 ]}}
]`

func TestPublicClientFetchComments(t *testing.T) {
	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/payroll/comments/abc.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(commentsPayload))
	})

	comments, err := pc.FetchComments(context.Background(), "abc", "payroll")
	if err != nil {
		t.Fatalf("FetchComments(): %v", err)
	}

	var ids []string
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	// Depth-first: c1, its nested reply c2, then sibling c3. The
	// "more" and unknown nodes are skipped.
	want := []string{"c1", "c2", "c3"}
	if len(ids) != len(want) {
		t.Fatalf("got comments %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got comments %v, want %v", ids, want)
		}
	}

	if comments[1].Author != "bob" || comments[1].Score != 4 {
		t.Errorf("nested comment fields wrong: %+v", comments[1])
	}
}

func TestPublicClientFetchCommentsShortPayload(t *testing.T) {
	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"kind":"Listing","data":{"children":[]}}]`))
	})

	comments, err := pc.FetchComments(context.Background(), "abc", "payroll")
	if err != nil {
		t.Fatalf("FetchComments(): %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("got %d comments, want 0", len(comments))
	}
}

func TestPublicClientFetchCommentsMalformedNesting(t *testing.T) {
	// Replies holding a number instead of a listing must be treated as
	// a leaf, not a failure.
	pc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
		 {"kind":"Listing","data":{"children":[]}},
		 {"kind":"Listing","data":{"children":[
		   {"kind":"t1","data":{"id":"c1","author":"a","body":"ok","score":1,"replies":42}}
		 ]}}
		]`))
	})

	comments, err := pc.FetchComments(context.Background(), "abc", "payroll")
	if err != nil {
		t.Fatalf("FetchComments(): %v", err)
	}
	if len(comments) != 1 || comments[0].ID != "c1" {
		t.Errorf("unexpected comments: %+v", comments)
	}
}
