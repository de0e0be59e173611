package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/crates/pkg/github"
	crateslogger "github.com/papercomputeco/crates/pkg/logger"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		logger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = crateslogger.Nop()
	})

	Describe("GetUser", func() {
		It("should return the authenticated user with proper headers", func() {
			var gotPath, gotAuth, gotAccept string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotAccept = r.Header.Get("Accept")
				json.NewEncoder(w).Encode(github.User{ID: 7, Login: "alice"})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			user, err := client.GetUser(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Login).To(Equal("alice"))
			Expect(gotPath).To(Equal("/user"))
			Expect(gotAuth).To(Equal("Bearer ghp_test"))
			Expect(gotAccept).To(Equal("application/vnd.github.v3+json"))
		})
	})

	Describe("ListRepos", func() {
		It("should follow pagination to the end", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				page, _ := strconv.Atoi(r.URL.Query().Get("page"))
				var repos []github.Repository
				switch page {
				case 1:
					for i := 0; i < 100; i++ {
						repos = append(repos, github.Repository{FullName: fmt.Sprintf("octocat/repo-%d", i)})
					}
				case 2:
					repos = []github.Repository{
						{FullName: "octocat/repo-100"},
						{FullName: "octocat/repo-101"},
						{FullName: "octocat/repo-102"},
					}
				}
				json.NewEncoder(w).Encode(repos)
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			repos, err := client.ListRepos(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(repos).To(HaveLen(103))
			Expect(repos[0].FullName).To(Equal("octocat/repo-0"))
			Expect(repos[102].FullName).To(Equal("octocat/repo-102"))
		})

		It("should return a single short page as-is", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]github.Repository{
					{FullName: "octocat/hello-world", DefaultBranch: "main"},
				})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			repos, err := client.ListRepos(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(repos).To(HaveLen(1))
			Expect(repos[0].FullName).To(Equal("octocat/hello-world"))
		})
	})

	Describe("GetRepository", func() {
		It("should return repository information", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(github.Repository{
					FullName:      "octocat/hello-world",
					DefaultBranch: "develop",
					Private:       true,
				})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			repo, err := client.GetRepository(ctx, "octocat", "hello-world")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.DefaultBranch).To(Equal("develop"))
			Expect(repo.Private).To(BeTrue())
		})

		It("should surface API errors with status code", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message":"Not Found"}`))
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			_, err := client.GetRepository(ctx, "octocat", "missing")
			Expect(err).To(MatchError(ContainSubstring("github API error 404")))
		})
	})

	Describe("ListFiles", func() {
		It("should return only blobs from the recursive tree", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"truncated": false,
					"tree": []map[string]any{
						{"path": "README.md", "type": "blob", "size": 12, "sha": "s1"},
						{"path": "src", "type": "tree", "sha": "s2"},
						{"path": "src/main.go", "type": "blob", "size": 40, "sha": "s3"},
					},
				})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			files, err := client.ListFiles(ctx, "octocat", "hello-world", "main")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(2))
			Expect(files[0].Path).To(Equal("README.md"))
			Expect(files[1].Path).To(Equal("src/main.go"))
		})

		It("should resolve the default branch when ref is empty", func() {
			var treePath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/repos/octocat/hello-world":
					json.NewEncoder(w).Encode(github.Repository{
						FullName:      "octocat/hello-world",
						DefaultBranch: "develop",
					})
				case "/repos/octocat/hello-world/git/trees/develop":
					treePath = r.URL.Path
					json.NewEncoder(w).Encode(map[string]any{
						"truncated": false,
						"tree": []map[string]any{
							{"path": "main.go", "type": "blob", "size": 10, "sha": "s1"},
						},
					})
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			files, err := client.ListFiles(ctx, "octocat", "hello-world", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))
			Expect(treePath).To(Equal("/repos/octocat/hello-world/git/trees/develop"))
		})

		It("should fall back to walking contents when the tree is truncated", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/repos/octocat/big-repo/git/trees/main":
					json.NewEncoder(w).Encode(map[string]any{
						"truncated": true,
						"tree":      []map[string]any{},
					})
				case "/repos/octocat/big-repo/contents/":
					json.NewEncoder(w).Encode([]map[string]any{
						{"path": "README.md", "type": "file", "size": 5, "sha": "s1"},
						{"path": "src", "type": "dir", "sha": "s2"},
					})
				case "/repos/octocat/big-repo/contents/src":
					json.NewEncoder(w).Encode([]map[string]any{
						{"path": "src/main.go", "type": "file", "size": 40, "sha": "s3"},
						{"path": "src/internal", "type": "dir", "sha": "s4"},
					})
				case "/repos/octocat/big-repo/contents/src/internal":
					json.NewEncoder(w).Encode([]map[string]any{
						{"path": "src/internal/deep.go", "type": "file", "size": 20, "sha": "s5"},
					})
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			files, err := client.ListFiles(ctx, "octocat", "big-repo", "main")
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(3))
			Expect(files[0].Path).To(Equal("README.md"))
			Expect(files[1].Path).To(Equal("src/main.go"))
			Expect(files[2].Path).To(Equal("src/internal/deep.go"))
		})
	})

	Describe("GetFileContent", func() {
		It("should decode base64 content with embedded newlines", func() {
			encoded := base64.StdEncoding.EncodeToString([]byte("hello crates\n"))
			// GitHub wraps base64 payloads across lines.
			wrapped := encoded[:8] + "\n" + encoded[8:]

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"path":     "hello.txt",
					"content":  wrapped,
					"encoding": "base64",
				})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			data, err := client.GetFileContent(ctx, "octocat", "hello-world", "hello.txt", "main")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("hello crates\n")))
		})

		It("should error on unexpected encodings", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"path":     "huge.bin",
					"content":  "",
					"encoding": "none",
				})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			_, err := client.GetFileContent(ctx, "octocat", "hello-world", "huge.bin", "main")
			Expect(err).To(MatchError(ContainSubstring("unexpected encoding")))
		})
	})

	Describe("FetchContents", func() {
		It("should fetch small files and skip oversized and failing ones", func() {
			aContent := base64.StdEncoding.EncodeToString([]byte("hello"))

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/repos/octocat/hello-world/git/trees/main":
					json.NewEncoder(w).Encode(map[string]any{
						"truncated": false,
						"tree": []map[string]any{
							{"path": "a.txt", "type": "blob", "size": 5, "sha": "s1"},
							{"path": "big.bin", "type": "blob", "size": 2_000_000, "sha": "s2"},
							{"path": "broken.txt", "type": "blob", "size": 6, "sha": "s3"},
						},
					})
				case "/repos/octocat/hello-world/contents/a.txt":
					json.NewEncoder(w).Encode(map[string]any{
						"path": "a.txt", "content": aContent, "encoding": "base64",
					})
				case "/repos/octocat/hello-world/contents/broken.txt":
					w.WriteHeader(http.StatusNotFound)
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			files, skipped, err := client.FetchContents(ctx, "octocat", "hello-world", "main", 1<<20)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))
			Expect(files["a.txt"]).To(Equal([]byte("hello")))
			Expect(skipped).To(Equal(2))
		})
	})

	Describe("retries", func() {
		It("should wait for the rate limit reset and retry", func() {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&attempts, 1) == 1 {
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
					w.WriteHeader(http.StatusForbidden)
					return
				}
				json.NewEncoder(w).Encode(github.User{Login: "alice"})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			user, err := client.GetUser(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Login).To(Equal("alice"))
			Expect(atomic.LoadInt32(&attempts)).To(Equal(int32(2)))
		})

		It("should retry on server errors", func() {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&attempts, 1) == 1 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				json.NewEncoder(w).Encode(github.User{Login: "alice"})
			}))
			defer server.Close()

			client := github.NewClient(github.Config{Target: server.URL, Token: "ghp_test"}, logger)

			user, err := client.GetUser(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Login).To(Equal("alice"))
			Expect(atomic.LoadInt32(&attempts)).To(Equal(int32(2)))
		})
	})
})
