// Package github 通过 GitHub REST API v3 拉取分析器所需的公开仓库数据。
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nexthire/internal/analyzer"
)

const (
	reposPerPage = 100
	// commitScanCap 限制降级扫描 commit 列表的上限，
	// 用于贡献者统计仍在服务端计算中的仓库。
	commitScanCap = 300
)

// Client 封装对 GitHub REST API 的访问。
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建 Client。token 可以为空，此时请求为匿名访问，
// 受匿名速率限制约束。
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// withToken 返回使用另一个 token 的客户端副本，
// 用于候选人绑定了自己的 OAuth token 的场景。
func (c *Client) withToken(token string) *Client {
	if token == "" {
		return c
	}
	clone := *c
	clone.token = token
	return &clone
}

type apiUser struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
	Bio     string `json:"bio"`
}

type apiRepo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	SizeKB      int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"pushed_at"`
	Fork        bool      `json:"fork"`
	Archived    bool      `json:"archived"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type apiContributorStat struct {
	Total  int `json:"total"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
}

// FetchProfile 返回 username 的公开个人资料。token 非空时，
// 本次调用使用它覆盖客户端的兜底 token。
func (c *Client) FetchProfile(ctx context.Context, username, token string) (analyzer.Profile, error) {
	c = c.withToken(token)

	path := "/users/" + url.PathEscape(username)

	var user apiUser
	if err := c.getJSON(ctx, path, &user); err != nil {
		return analyzer.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}

	return analyzer.Profile{
		Username:   user.Login,
		ProfileURL: user.HTMLURL,
		Bio:        user.Bio,
	}, nil
}

// FetchRepositories 列出 username 的全部仓库，并补充每个仓库的
// 语言字节分布、README 检查以及该用户的提交数（贡献者统计可用时）。
func (c *Client) FetchRepositories(ctx context.Context, username, token string) ([]analyzer.Repository, error) {
	c = c.withToken(token)

	raw, err := c.listRepos(ctx, username)
	if err != nil {
		return nil, err
	}

	repos := make([]analyzer.Repository, 0, len(raw))
	for _, r := range raw {
		repo := analyzer.Repository{
			Name:        r.Name,
			Description: r.Description,
			HTMLURL:     r.HTMLURL,
			Language:    r.Language,
			Stars:       r.Stars,
			Forks:       r.Forks,
			SizeKB:      r.SizeKB,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			Fork:        r.Fork,
			Archived:    r.Archived,
			Owned:       r.Owner.Login == username,
		}

		if repo.Archived || repo.SizeKB <= 0 {
			repos = append(repos, repo)
			continue
		}

		langs, err := c.fetchLanguages(ctx, username, r.Name)
		if err != nil {
			c.logger.Warn("fetch languages failed", "repo", r.Name, "error", err)
		} else {
			repo.LanguageBytes = langs
		}

		repo.HasReadme = c.hasReadme(ctx, username, r.Name)

		commits, err := c.fetchUserCommits(ctx, username, r.Name)
		if err != nil {
			c.logger.Warn("fetch commit count failed", "repo", r.Name, "error", err)
		} else {
			repo.UserCommits = commits
		}

		repos = append(repos, repo)
	}

	return repos, nil
}

func (c *Client) listRepos(ctx context.Context, username string) ([]apiRepo, error) {
	var all []apiRepo
	for page := 1; ; page++ {
		path := fmt.Sprintf(
			"/users/%s/repos?per_page=%d&page=%d&sort=updated",
			url.PathEscape(username), reposPerPage, page,
		)
		var batch []apiRepo
		if err := c.getJSON(ctx, path, &batch); err != nil {
			return nil, fmt.Errorf("list repos page %d: %w", page, err)
		}
		all = append(all, batch...)
		if len(batch) < reposPerPage {
			return all, nil
		}
	}
}

func (c *Client) fetchLanguages(ctx context.Context, owner, repo string) (map[string]int64, error) {
	path := fmt.Sprintf("/repos/%s/%s/languages", url.PathEscape(owner), url.PathEscape(repo))
	langs := make(map[string]int64)
	if err := c.getJSON(ctx, path, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

func (c *Client) hasReadme(ctx context.Context, owner, repo string) bool {
	path := fmt.Sprintf("/repos/%s/%s/readme", url.PathEscape(owner), url.PathEscape(repo))
	status, err := c.head(ctx, path)
	if err != nil {
		return false
	}
	return status == http.StatusOK
}

// fetchUserCommits 优先使用贡献者统计端点。统计尚在计算时 GitHub
// 返回 202，此时降级为遍历 commit 列表计数，并设上限以免超大仓库开销失控。
func (c *Client) fetchUserCommits(ctx context.Context, owner, repo string) (int, error) {
	path := fmt.Sprintf("/repos/%s/%s/stats/contributors", url.PathEscape(owner), url.PathEscape(repo))

	var stats []apiContributorStat
	status, err := c.get(ctx, path, &stats)
	if err != nil {
		return 0, err
	}
	if status == http.StatusOK {
		for _, s := range stats {
			if s.Author.Login == owner {
				return s.Total, nil
			}
		}
		return 0, nil
	}
	if status != http.StatusAccepted {
		return 0, fmt.Errorf("contributor stats: unexpected status %d", status)
	}

	return c.countCommits(ctx, owner, repo)
}

func (c *Client) countCommits(ctx context.Context, owner, repo string) (int, error) {
	total := 0
	for page := 1; total < commitScanCap; page++ {
		path := fmt.Sprintf(
			"/repos/%s/%s/commits?author=%s&per_page=%d&page=%d",
			url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(owner), reposPerPage, page,
		)
		var batch []json.RawMessage
		status, err := c.get(ctx, path, &batch)
		if err != nil {
			return total, err
		}
		// 409 表示仓库为空。
		if status == http.StatusConflict {
			return 0, nil
		}
		if status != http.StatusOK {
			return total, fmt.Errorf("list commits: unexpected status %d", status)
		}
		total += len(batch)
		if len(batch) < reposPerPage {
			break
		}
	}
	if total > commitScanCap {
		total = commitScanCap
	}
	return total, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	status, err := c.get(ctx, path, out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", status, path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return resp.StatusCode, rateLimitError(resp.Header.Get("X-RateLimit-Reset"))
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) head(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func rateLimitError(reset string) error {
	if ts, err := strconv.ParseInt(reset, 10, 64); err == nil {
		return fmt.Errorf("rate limit exceeded, resets at %s", time.Unix(ts, 0).Format(time.RFC3339))
	}
	return fmt.Errorf("rate limit exceeded")
}
