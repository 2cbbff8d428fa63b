package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer per-call" {
			t.Errorf("expected per-call token, got %q", got)
		}
		fmt.Fprint(w, `{"login":"octo","html_url":"https://github.com/octo","bio":"builds things"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "fallback", discardLogger())
	profile, err := client.FetchProfile(context.Background(), "octo", "per-call")
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profile.Username != "octo" || profile.Bio != "builds things" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestFetchRepositories_EnrichesRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"name":"svc","stargazers_count":4,"size":800,"language":"Go","owner":{"login":"octo"}}]`)
	})
	mux.HandleFunc("/repos/octo/svc/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go":12345}`)
	})
	mux.HandleFunc("/repos/octo/svc/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/repos/octo/svc/stats/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"total":42,"author":{"login":"octo"}},{"total":7,"author":{"login":"other"}}]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "", discardLogger())
	repos, err := client.FetchRepositories(context.Background(), "octo", "")
	if err != nil {
		t.Fatalf("fetch repositories: %v", err)
	}
	if len(repos) != 1 {
		t.Fatalf("expected 1 repo, got %d", len(repos))
	}

	repo := repos[0]
	if !repo.Owned {
		t.Fatalf("repo owned by the user must be marked owned")
	}
	if repo.LanguageBytes["Go"] != 12345 {
		t.Fatalf("expected language bytes, got %v", repo.LanguageBytes)
	}
	if !repo.HasReadme {
		t.Fatalf("expected readme detected")
	}
	if repo.UserCommits != 42 {
		t.Fatalf("expected the user's contributor total, got %d", repo.UserCommits)
	}
}

func TestFetchRepositories_FallsBackWhileStatsCompute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"name":"svc","size":200,"owner":{"login":"octo"}}]`)
	})
	mux.HandleFunc("/repos/octo/svc/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/repos/octo/svc/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/repos/octo/svc/stats/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/repos/octo/svc/commits", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("author") != "octo" {
			t.Errorf("commit listing must filter by author")
		}
		fmt.Fprint(w, `[{},{},{}]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "", discardLogger())
	repos, err := client.FetchRepositories(context.Background(), "octo", "")
	if err != nil {
		t.Fatalf("fetch repositories: %v", err)
	}
	if repos[0].UserCommits != 3 {
		t.Fatalf("expected 3 commits via fallback, got %d", repos[0].UserCommits)
	}
	if repos[0].HasReadme {
		t.Fatalf("404 readme must report false")
	}
}

func TestFetchRepositories_EmptyRepoConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"name":"bare","size":10,"owner":{"login":"octo"}}]`)
	})
	mux.HandleFunc("/repos/octo/bare/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/repos/octo/bare/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/repos/octo/bare/stats/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/repos/octo/bare/commits", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "", discardLogger())
	repos, err := client.FetchRepositories(context.Background(), "octo", "")
	if err != nil {
		t.Fatalf("fetch repositories: %v", err)
	}
	if repos[0].UserCommits != 0 {
		t.Fatalf("empty repo must report 0 commits, got %d", repos[0].UserCommits)
	}
}

func TestFetchProfile_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1770000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", discardLogger())
	_, err := client.FetchProfile(context.Background(), "octo", "")
	if err == nil {
		t.Fatalf("expected rate limit error")
	}
}
