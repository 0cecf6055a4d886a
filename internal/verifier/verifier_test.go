package verifier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verify/internal/config"
	verifyerrors "verify/internal/errors"
	"verify/internal/slogutil"
	"verify/internal/storage"
	"verify/internal/target"
	"verify/internal/testutil"
	"verify/internal/typename"
)

var orderID = uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

type order struct {
	ID     uuid.UUID `json:"id"`
	Parent uuid.UUID `json:"parent"`
	Placed time.Time `json:"placed"`
	Items  []string  `json:"items"`
	Notes  []string  `json:"notes"`
	Secret string    `json:"secret,omitempty"`
}

func newVerifier(t *testing.T, mutate func(*config.Config), opts ...func(*Options)) (*Verifier, string) {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	o := Options{
		Root:   root,
		Dir:    filepath.Join(root, "snapshots"),
		Config: cfg,
		Logger: slogutil.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	v, err := New(o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v, root
}

func TestVerify_MissingThenAccepted(t *testing.T) {
	v, _ := newVerifier(t, nil)
	ctx := context.Background()

	out, err := v.Verify(ctx, "Greeting", "hello\r\nworld  \n")
	require.Error(t, err)
	assert.Equal(t, verifyerrors.SnapshotMissing, verifyerrors.CodeOf(err))
	require.Len(t, out.Files, 1)

	f := out.Files[0]
	assert.Equal(t, storage.StatusMissing, f.Status)
	assert.Equal(t, filepath.Join(v.Dir(), "Greeting.verified.txt"), f.Verified)
	assert.Equal(t, filepath.Join(v.Dir(), "Greeting.received.txt"), f.Received)

	received, err := os.ReadFile(f.Received)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(received))

	require.NoError(t, os.Rename(f.Received, f.Verified))

	out, err = v.Verify(ctx, "Greeting", "hello\nworld")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusMatched, out.Files[0].Status)
	assert.NoFileExists(t, f.Received)
}

func TestVerify_Mismatch(t *testing.T) {
	v, _ := newVerifier(t, nil)
	testutil.WriteTree(t, v.Dir(), map[string]string{"Greeting.verified.txt": "hello\n"})

	out, err := v.Verify(context.Background(), "Greeting", "goodbye")
	require.Error(t, err)

	var ve *verifyerrors.VerifyError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, verifyerrors.SnapshotMismatch, ve.Code)
	assert.Contains(t, ve.Message, "-hello")
	assert.Contains(t, ve.Message, "+goodbye")
	require.NotEmpty(t, ve.SuggestedFixes)
	assert.Equal(t, "verify accept --dir "+v.Dir(), ve.SuggestedFixes[0].Command)
	assert.Equal(t, "verify accept --dir ${snapshot_dir}", verifyerrors.ErrorActions[verifyerrors.SnapshotMismatch][0].Command)

	failed := out.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, storage.StatusMismatch, failed[0].Status)
	assert.Equal(t, failed, ve.Details)

	files := testutil.ReadTree(t, v.Dir())
	assert.Equal(t, "hello\n", files["Greeting.verified.txt"])
	assert.Equal(t, "goodbye\n", files["Greeting.received.txt"])
}

func TestVerify_Accepting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		update bool
		opts   []Option
	}{
		{name: "update flag", update: true},
		{name: "auto verify config", mutate: func(c *config.Config) { c.AutoVerify = true }},
		{name: "auto verify option", opts: []Option{AutoVerify()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newVerifier(t, tt.mutate, func(o *Options) { o.Update = tt.update })
			testutil.WriteTree(t, v.Dir(), map[string]string{
				"Greeting.verified.txt": "hello\n",
				"Greeting.received.txt": "stale\n",
			})

			out, err := v.Verify(context.Background(), "Greeting", "goodbye", tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, storage.StatusAccepted, out.Files[0].Status)
			assert.Equal(t, map[string]string{"Greeting.verified.txt": "goodbye\n"}, testutil.ReadTree(t, v.Dir()))
		})
	}
}

func TestVerify_ObjectRendering(t *testing.T) {
	v, _ := newVerifier(t, nil)
	value := order{
		ID:     orderID,
		Parent: orderID,
		Placed: time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC),
		Items:  []string{"a", "b"},
	}

	out, err := v.Verify(context.Background(), "Order", value)
	require.Error(t, err)

	want := `{
  "id": "Guid_1",
  "parent": "Guid_1",
  "placed": "DateTime_1",
  "items": [
    "a",
    "b"
  ]
}
`
	received, err := os.ReadFile(out.Files[0].Received)
	require.NoError(t, err)
	assert.Equal(t, want, string(received))
	assert.True(t, strings.HasSuffix(out.Files[0].Received, "Order.received.txt"))
}

func TestVerify_Extension(t *testing.T) {
	v, _ := newVerifier(t, func(c *config.Config) { c.Extension = "json" })

	out, err := v.Verify(context.Background(), "Order", order{ID: orderID})
	require.Error(t, err)
	assert.Equal(t, filepath.Join(v.Dir(), "Order.received.json"), out.Files[0].Received)

	out, err = v.Verify(context.Background(), "Notes", "text", WithExtension("md"))
	require.Error(t, err)
	assert.Equal(t, filepath.Join(v.Dir(), "Notes.received.md"), out.Files[0].Received)

	_, err = v.Verify(context.Background(), "Image", []byte{1, 2}, WithExtension("txt"))
	assert.Equal(t, verifyerrors.ExtensionKindMismatch, verifyerrors.CodeOf(err))
}

func TestVerify_TextScrubbing(t *testing.T) {
	v, root := newVerifier(t, nil)
	logged := time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)
	text := fmt.Sprintf("order %s\nfile %s\nlogged %s\nagain %s",
		orderID,
		filepath.Join(root, "orders.csv"),
		logged.Format("2006-01-02 15:04:05"),
		strings.ToUpper(orderID.String()),
	)

	out, err := v.Verify(context.Background(), "Log", text,
		WithDateTimeLayout("2006-01-02 15:04:05"),
		WithScrubber(func(s string) string { return strings.ReplaceAll(s, "again", "repeat") }),
	)
	require.Error(t, err)

	received, err := os.ReadFile(out.Files[0].Received)
	require.NoError(t, err)
	assert.Equal(t, "order Guid_1\nfile {ProjectDirectory}/orders.csv\nlogged DateTime_1\nrepeat Guid_1\n", string(received))
}

func TestVerify_ScrubbingDisabled(t *testing.T) {
	v, _ := newVerifier(t, func(c *config.Config) {
		c.Scrub.Guids = false
		c.Scrub.DateTimes = false
	})

	out, err := v.Verify(context.Background(), "Order", order{ID: orderID})
	require.Error(t, err)

	received, err := os.ReadFile(out.Files[0].Received)
	require.NoError(t, err)
	assert.Contains(t, string(received), orderID.String())
	assert.Contains(t, string(received), `"placed": "0001-01-01T00:00:00Z"`)
}

func TestVerify_NamedValues(t *testing.T) {
	v, _ := newVerifier(t, nil)
	other := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	out, err := v.Verify(context.Background(), "Named", map[uuid.UUID]uuid.UUID{other: orderID},
		WithNamedGuid(orderID, "orderId"))
	require.Error(t, err)

	received, err := os.ReadFile(out.Files[0].Received)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Guid_1\": \"orderId\"\n}\n", string(received))

	_, err = v.Verify(context.Background(), "Named", "x",
		WithNamedGuid(orderID, "a"), WithNamedGuid(orderID, "b"))
	assert.Equal(t, verifyerrors.DuplicateNamedToken, verifyerrors.CodeOf(err))
}

func TestVerify_MultipleTargets(t *testing.T) {
	v, _ := newVerifier(t, nil)

	first, err := target.NewString("txt", "first", target.DefaultName)
	require.NoError(t, err)
	second, err := target.NewString("csv", "a,b", "table")
	require.NoError(t, err)
	third, err := target.NewBytes("png", []byte{0x89, 'P', 'N', 'G'}, "")
	require.NoError(t, err)

	out, err := v.Verify(context.Background(), "Report", []target.Target{first, second, third}, AutoVerify())
	require.NoError(t, err)
	require.Len(t, out.Files, 3)

	assert.Equal(t, map[string]string{
		"Report.00.verified.txt":       "first\n",
		"Report.01.table.verified.csv": "a,b\n",
		"Report.02.verified.png":       "\x89PNG",
	}, testutil.ReadTree(t, v.Dir()))
}

func TestVerify_Binary(t *testing.T) {
	v, _ := newVerifier(t, nil)
	testutil.WriteTree(t, v.Dir(), map[string]string{"Blob.verified.bin": "\x00\x01"})

	out, err := v.Verify(context.Background(), "Blob", []byte{0, 1})
	require.NoError(t, err)
	assert.Equal(t, storage.StatusMatched, out.Files[0].Status)

	out, err = v.Verify(context.Background(), "Blob", strings.NewReader("\x00\x02\x03"))
	assert.Equal(t, verifyerrors.SnapshotMismatch, verifyerrors.CodeOf(err))
	assert.Equal(t, "binary content differs: 2 bytes verified, 3 bytes received", out.Files[0].Diff)
}

func TestVerify_StaleFiles(t *testing.T) {
	v, _ := newVerifier(t, nil)
	testutil.WriteTree(t, v.Dir(), map[string]string{
		"Report.verified.txt":         "current\n",
		"Report.05.verified.txt":      "old target\n",
		"Report.07.name.received.txt": "old output\n",
		"ReportSummary.verified.txt":  "other test\n",
		"ReportSummary.received.txt":  "other test\n",
		"Report.verified.json":        "old extension\n",
		"Report.backup.verified.txt":  "not numbered\n",
	})

	out, err := v.Verify(context.Background(), "Report", "current")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(v.Dir(), "Report.05.verified.txt"),
		filepath.Join(v.Dir(), "Report.verified.json"),
	}, out.Stale)

	files := testutil.ReadTree(t, v.Dir())
	assert.NotContains(t, files, "Report.07.name.received.txt")
	assert.Contains(t, files, "Report.05.verified.txt")
	assert.Contains(t, files, "ReportSummary.received.txt")
	assert.Contains(t, files, "Report.backup.verified.txt")

	out, err = v.Verify(context.Background(), "Report", "current", AutoVerify())
	require.NoError(t, err)
	assert.Empty(t, out.Stale)
	files = testutil.ReadTree(t, v.Dir())
	assert.NotContains(t, files, "Report.05.verified.txt")
	assert.NotContains(t, files, "Report.verified.json")
	assert.Contains(t, files, "ReportSummary.verified.txt")
}

func TestVerify_WithDirectory(t *testing.T) {
	v, root := newVerifier(t, nil)
	dir := filepath.Join(root, "elsewhere")

	out, err := v.Verify(context.Background(), "Moved", "x", WithDirectory(dir))
	require.Error(t, err)
	assert.Equal(t, filepath.Join(dir, "Moved.received.txt"), out.Files[0].Received)
}

func TestVerify_Errors(t *testing.T) {
	v, _ := newVerifier(t, nil)

	_, err := v.Verify(context.Background(), " ", "x")
	assert.Equal(t, verifyerrors.EmptyName, verifyerrors.CodeOf(err))

	_, err = v.Verify(context.Background(), "Empty", []target.Target{})
	assert.Equal(t, verifyerrors.UnsupportedValue, verifyerrors.CodeOf(err))

	_, err = v.Verify(context.Background(), "Func", func() {})
	assert.Equal(t, verifyerrors.UnsupportedValue, verifyerrors.CodeOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.Verify(ctx, "Cancelled", "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, v.Dir())
}

func TestNew_RulesFile(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		".verify/rules.toml": `
ignored_names = ["secret"]
remove_lines = ["\"id\""]

[members]
"verifier.order" = ["parent"]

[replace]
"Guid_1" = "{Order}"
`,
	})

	v, err := New(Options{
		Root:   root,
		Dir:    filepath.Join(root, "snapshots"),
		Types:  typename.NewRegistry(reflect.TypeFor[order]()),
		Logger: slogutil.NewDiscardLogger(),
	})
	require.NoError(t, err)
	defer v.Close()

	out, err := v.Verify(context.Background(), "Order", order{ID: orderID, Parent: orderID, Secret: "hunter2", Items: []string{"a"}})
	require.Error(t, err)

	received, err := os.ReadFile(out.Files[0].Received)
	require.NoError(t, err)
	assert.NotContains(t, string(received), "hunter2")
	assert.NotContains(t, string(received), "parent")
	assert.NotContains(t, string(received), `"id"`)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Extension = ""

	_, err := New(Options{Root: t.TempDir(), Config: cfg, Logger: slogutil.NewDiscardLogger()})
	assert.Equal(t, verifyerrors.ConfigInvalid, verifyerrors.CodeOf(err))

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{".verify/rules.yaml": "members:\n  missing.Type: [a]\n"})
	_, err = New(Options{Root: root, Logger: slogutil.NewDiscardLogger()})
	assert.Equal(t, verifyerrors.UnresolvedType, verifyerrors.CodeOf(err))
}

func TestVerify_Ledger(t *testing.T) {
	v, root := newVerifier(t, func(c *config.Config) { c.Ledger.Enabled = true })
	testutil.WriteTree(t, v.Dir(), map[string]string{"Match.verified.txt": "same\n"})

	_, err := v.Verify(context.Background(), "Match", "same")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "Miss", "new")
	require.Error(t, err)
	require.NoError(t, v.Close())

	db, err := storage.Open(filepath.Join(root, ".verify", "results.db"), slogutil.NewDiscardLogger())
	require.NoError(t, err)
	defer db.Close()

	results, err := storage.NewLedger(db).Recent(10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Miss", results[0].Test)
	assert.Equal(t, storage.StatusMissing, results[0].Status)
	assert.Equal(t, "snapshots/Miss.verified.txt", results[0].File)
	assert.Equal(t, storage.StatusMatched, results[1].Status)
	assert.Equal(t, results[0].RunID, results[1].RunID)
}

type fakeTB struct {
	testing.TB
	name   string
	errors []string
}

func (f *fakeTB) Helper()      {}
func (f *fakeTB) Name() string { return f.name }
func (f *fakeTB) Error(args ...any) {
	f.errors = append(f.errors, fmt.Sprint(args...))
}

func TestCheck(t *testing.T) {
	v, _ := newVerifier(t, nil)
	testutil.WriteTree(t, v.Dir(), map[string]string{"TestOrders_by_id.verified.txt": "ok\n"})

	tb := &fakeTB{name: "TestOrders/by id"}
	v.Check(tb, "ok")
	assert.Empty(t, tb.errors)

	v.Check(tb, "changed")
	require.Len(t, tb.errors, 1)
	assert.Contains(t, tb.errors[0], "SNAPSHOT_MISMATCH")
}

func TestTestPrefix(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"TestOrders", "TestOrders"},
		{"TestOrders/by_id", "TestOrders_by_id"},
		{"TestOrders/a:b*c?", "TestOrders_a_b_c_"},
		{`TestOrders/"x"|<y>\z`, "TestOrders__x___y__z"},
		{"TestParse/go1.21", "TestParse_go1_21"},
	}

	for _, tt := range tests {
		if got := TestPrefix(tt.name); got != tt.want {
			t.Errorf("TestPrefix(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestVerify_SubtestsSharingPrefix(t *testing.T) {
	v, _ := newVerifier(t, nil)
	ctx := context.Background()

	_, err := v.Verify(ctx, TestPrefix("TestParse/go1.21"), "newer", AutoVerify())
	require.NoError(t, err)
	out, err := v.Verify(ctx, TestPrefix("TestParse/go1"), "older", AutoVerify())
	require.NoError(t, err)
	assert.Empty(t, out.Stale)

	files := testutil.ReadTree(t, v.Dir())
	assert.Equal(t, map[string]string{
		"TestParse_go1_21.verified.txt": "newer\n",
		"TestParse_go1.verified.txt":    "older\n",
	}, files)
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"go.mod":              "module example\n",
		"pkg/inner/file.go":   "package inner\n",
		"tool/.verify/x.json": "{}",
	})

	assert.Equal(t, root, FindRoot(filepath.Join(root, "pkg", "inner")))
	assert.Equal(t, filepath.Join(root, "tool"), FindRoot(filepath.Join(root, "tool")))
	assert.Equal(t, testutil.ProjectRoot(t), FindRoot(testutil.ProjectRoot(t)))
}
