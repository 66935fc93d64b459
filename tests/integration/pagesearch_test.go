package integration

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/app"
	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/hitstore"
	"github.com/sha1n/pagesearch/internal/pagesearch"
	"github.com/sha1n/pagesearch/internal/pagexml"
	"github.com/sha1n/pagesearch/tests/integration/testkit"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolicy = `[document]
extension = ".xml"

[copy]
rules = [".xml > .xml", ".jpg > .jpg", ".txt"]
rewrite_extension = ".jpg"

[exclude]
files = ["mets.xml"]
folders = ["archive"]
`

// buildCorpus creates a small two-volume corpus with excluded content.
func buildCorpus(t *testing.T) *testkit.Corpus {
	t.Helper()
	c := testkit.NewCorpus(t)
	c.AddPage("vol1/0001.xml", "Hello world", "", "Hello again")
	c.AddImage("vol1/0001.jpg")
	c.AddFile("vol1/0001.txt", []byte("transcript"))
	c.AddPage("vol1/0002.xml", "nothing to see")
	c.AddImage("vol1/0002.jpg")
	c.AddPage("vol2/0003.xml", "Grüße, Hello")
	c.AddPage("vol2/mets.xml", "Hello from metadata")
	c.AddPage("archive/0004.xml", "Hello archived")
	c.AddFile("vol2/0005.xml", []byte("<PcGts><Page>"))
	return c
}

// cliParams returns production runner dependencies writing to stdout.
func cliParams(stdout io.Writer) app.RunParams {
	params := app.DefaultRunParams()
	params.Stdout = stdout
	params.Stderr = io.Discard
	return params
}

func cliFlags(args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	app.RegisterGlobalFlags(flags)
	app.RegisterSearchFlags(flags)
	_ = flags.Parse(append([]string{"--log-level", "error", "--color", "never"}, args...))
	return flags
}

func writeTerms(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "search.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCLI_ExportWithPolicyFile(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	require.NoError(t, os.WriteFile(config.DefaultPolicyPath, []byte(testPolicy), 0644))

	corpus := buildCorpus(t)
	terms := writeTerms(t, work, "# greetings\nHello\n\nGrüße\n")
	output := filepath.Join(work, "export")

	var stdout bytes.Buffer
	err := app.RunSearch(context.Background(), cliParams(&stdout), cliFlags("--manifest", "--sqlite"), app.SearchArgs{
		SearchFile: terms,
		Input:      corpus.Dir,
		Output:     output,
		Recursive:  true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout.String(), "Done! ("+filepath.Join(output, pagesearch.CSVFilename)+")"))
	assert.Contains(t, stdout.String(), "2 documents, 4 hits, 4 files copied, 2 skipped")

	csv, err := os.ReadFile(filepath.Join(output, pagesearch.CSVFilename))
	require.NoError(t, err)
	assert.Equal(t,
		"search,file,line,text,original\n"+
			"Hello,00001,1,Hello world,vol1/0001\n"+
			"Hello,00001,3,Hello again,vol1/0001\n"+
			"Hello,00002,1,\"Grüße, Hello\",vol2/0003\n"+
			"Grüße,00002,1,\"Grüße, Hello\",vol2/0003\n",
		string(csv))

	var names []string
	entries, err := os.ReadDir(output)
	require.NoError(t, err)
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"00001.xml", "00001.jpg", "00001.txt", "00002.xml",
		pagesearch.CSVFilename, pagesearch.ManifestFilename, hitstore.Filename,
	}, names)

	for id, image := range map[string]string{"00001": "00001.jpg", "00002": "00002.jpg"} {
		got, err := pagexml.ImageFilename(filepath.Join(output, id+".xml"))
		require.NoError(t, err)
		assert.Equal(t, image, got)
	}

	manifest, err := pagesearch.LoadManifest(filepath.Join(output, pagesearch.ManifestFilename))
	require.NoError(t, err)
	require.Len(t, manifest.Documents, 2)
	assert.Equal(t, "vol2/0003", manifest.Documents[1].Original)
	assert.Len(t, manifest.Documents[1].Missing, 2)

	store, err := hitstore.Open(filepath.Join(output, hitstore.Filename))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, manifest.RunID, runs[0].ID)
	hits, err := store.Hits(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestCLI_ConsoleAndNoOps(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	require.NoError(t, os.WriteFile(config.DefaultPolicyPath, []byte(testPolicy), 0644))
	corpus := buildCorpus(t)

	tests := []struct {
		name      string
		terms     string
		recursive bool
		console   bool
		want      string
	}{
		{"case sensitive", "hello\n#comment\n\n", true, true, app.MsgNothingFound + "\n"},
		{"empty search", "#only comments\n", true, true, app.MsgSearchEmpty + "\n"},
		{"no output directory", "Hello\n", true, false, app.MsgNoOutputDirectory + "\n"},
		{"non-recursive root has no documents", "Hello\n", false, true, app.MsgNothingFound + "\n"},
		{"console", "again\n", true, true,
			corpus.Path("vol1/0001.xml") + "\n\tFound again in line 3: \"Hello again\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			err := app.RunSearch(context.Background(), cliParams(&stdout), cliFlags(), app.SearchArgs{
				SearchFile: writeTerms(t, t.TempDir(), tt.terms),
				Input:      corpus.Dir,
				Console:    tt.console,
				Recursive:  tt.recursive,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestCLI_ExportIsIdempotent(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	require.NoError(t, os.WriteFile(config.DefaultPolicyPath, []byte(testPolicy), 0644))
	corpus := buildCorpus(t)
	terms := writeTerms(t, work, "Hello\n")

	run := func(output string) []byte {
		err := app.RunSearch(context.Background(), cliParams(io.Discard), cliFlags(), app.SearchArgs{
			SearchFile: terms, Input: corpus.Dir, Output: output, Recursive: true,
		})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(output, pagesearch.CSVFilename))
		require.NoError(t, err)
		return data
	}

	output := filepath.Join(work, "out")
	first := run(output)
	require.NoError(t, os.RemoveAll(output))
	second := run(output)

	assert.Equal(t, first, second)
}

func TestCLI_CSVToTermsToSearch(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	require.NoError(t, os.WriteFile(config.DefaultPolicyPath, []byte(testPolicy), 0644))
	corpus := buildCorpus(t)

	csvPath := filepath.Join(work, "terms.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("again,note\n,skipped\nsee\n"), 0644))
	termsPath := filepath.Join(work, "terms.txt")
	require.NoError(t, app.RunCSV2Txt(cliParams(io.Discard), cliFlags(), csvPath, termsPath))

	var stdout bytes.Buffer
	err := app.RunSearch(context.Background(), cliParams(&stdout), cliFlags(), app.SearchArgs{
		SearchFile: termsPath, Input: corpus.Dir, Console: true, Recursive: true,
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Found again in line 3")
	assert.Contains(t, stdout.String(), "Found see in line 1: \"nothing to see\"")
}

func TestCLI_MissingPolicy(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	corpus := buildCorpus(t)

	err := app.RunSearch(context.Background(), cliParams(io.Discard), cliFlags(), app.SearchArgs{
		SearchFile: writeTerms(t, work, "Hello\n"), Input: corpus.Dir, Console: true,
	})

	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.DefaultPolicyPath, cfgErr.Path)
}

// apiKeyTransport adds the API key header to every request.
type apiKeyTransport struct {
	key string
}

func (a apiKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-API-Key", a.key)
	return http.DefaultTransport.RoundTrip(r)
}

func TestMCP_OverSSE(t *testing.T) {
	corpus := buildCorpus(t)
	policy, err := func() (*config.Policy, error) {
		path := filepath.Join(t.TempDir(), "policy.toml")
		if err := os.WriteFile(path, []byte(testPolicy), 0644); err != nil {
			return nil, err
		}
		return config.LoadPolicy(path)
	}()
	require.NoError(t, err)

	flags := testkit.NewServeFlags(t, &testkit.FlagOptions{
		AuthType: config.AuthTypeAPIKey,
		APIKeys:  []string{"secret-key"},
		Root:     corpus.Dir,
	})
	settings, err := config.LoadSettingsWithFlags(flags)
	require.NoError(t, err)
	require.NoError(t, config.ValidateSettings(settings))

	server, err := app.CreateMCPServer(settings, policy, "test")
	require.NoError(t, err)

	env := testkit.NewTestEnv(testkit.NewSSEService(server, settings))
	props, err := env.Start()
	require.NoError(t, err)
	defer func() { _ = env.Stop() }()

	baseURL := props[testkit.PropBaseURL].(string)
	sseURL := props[testkit.PropSSEURL].(string)

	t.Run("health is public", func(t *testing.T) {
		resp, err := http.Get(baseURL + app.HealthPath)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("sse requires the api key", func(t *testing.T) {
		resp, err := http.Get(sseURL)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.SSEClientTransport{
		Endpoint:   sseURL,
		HTTPClient: &http.Client{Transport: apiKeyTransport{key: "secret-key"}},
	}, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	t.Run("lists tools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err)
		var names []string
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"search_pages", "export_pages"}, names)
	})

	t.Run("search_pages", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "search_pages",
			Arguments: map[string]any{"terms": []string{"Hello"}, "recursive": true},
		})
		require.NoError(t, err)
		require.False(t, res.IsError)

		text := toolText(t, res)
		assert.Contains(t, text, "Found 3 hits in 2 of 4 documents")
		assert.Contains(t, text, "vol1/0001.xml")
		assert.Contains(t, text, "vol2/0005.xml")
		assert.NotContains(t, text, "archive")
		assert.NotContains(t, text, "mets.xml")
	})

	t.Run("export_pages", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "export_pages",
			Arguments: map[string]any{
				"terms":     []string{"again"},
				"input":     "vol1",
				"output":    "mcp-out",
				"recursive": false,
			},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, toolText(t, res))
		assert.Contains(t, toolText(t, res), "Done! (mcp-out/results.csv)")

		csv, err := os.ReadFile(corpus.Path("mcp-out/results.csv"))
		require.NoError(t, err)
		assert.Equal(t, "search,file,line,text,original\nagain,00001,3,Hello again,0001\n", string(csv))
	})

	t.Run("export_pages outside root", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "export_pages",
			Arguments: map[string]any{"terms": []string{"Hello"}, "output": "../escape"},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}
