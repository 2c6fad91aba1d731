package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/gaintrack/internal/ledger"
	"github.com/Veraticus/gaintrack/internal/storage"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	dir        string
	configPath string
	ledgerPath string
}

// newTestEnv writes a config file pointing the ledger into a temp directory.
func newTestEnv(t *testing.T, backend, extra string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	name := "ledger.json"
	if backend == "sqlite" {
		name = "ledger.db"
	}
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		ledgerPath: filepath.Join(dir, name),
	}

	yaml := "storage:\n  backend: " + backend + "\n  path: " + env.ledgerPath + "\n" + extra
	require.NoError(t, os.WriteFile(env.configPath, []byte(yaml), 0600))

	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *testEnv) runWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", e.configPath, "--log-level", "error"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return out
}

func TestAddListSummaryRemove(t *testing.T) {
	env := newTestEnv(t, "file", "")

	out := env.mustRun(t, "add", "3,000,000", "--tag", "Salary", "--date", "2024-03-01")
	assert.Contains(t, out, "Recorded gain #1")
	assert.Contains(t, out, "3,000,000 from Salary on 2024-03-01 (taxable)")

	out = env.mustRun(t, "add", "500000", "--tag", "Gift", "--date", "2024-03-05")
	assert.Contains(t, out, "Recorded gain #2")
	assert.Contains(t, out, "(exempt)")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "Gift")
	assert.Contains(t, out, "2 gains, total 3,500,000")

	out = env.mustRun(t, "summary", "--period", "2024-03")
	assert.Contains(t, out, "Summary (2024-03)")
	assert.Contains(t, out, "3,500,000")
	assert.Contains(t, out, "330,000")
	assert.Contains(t, out, "By source")

	out = env.mustRun(t, "remove", "1", "7")
	assert.Contains(t, out, "Removed gain #1")
	assert.Contains(t, out, "No gain with id 7")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "1 gains, total 500,000")

	// Ids are never reused after a removal.
	out = env.mustRun(t, "add", "10", "--tag", "Other")
	assert.Contains(t, out, "Recorded gain #3")
}

func TestRemoveNewest_IDNotReusedByLaterRuns(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			env := newTestEnv(t, backend, "")

			env.mustRun(t, "add", "100", "--tag", "Salary", "--date", "2024-03-01")
			env.mustRun(t, "add", "200", "--tag", "Salary", "--date", "2024-03-02")
			out := env.mustRun(t, "remove", "2")
			assert.Contains(t, out, "Removed gain #2")

			out = env.mustRun(t, "add", "300", "--tag", "Salary", "--date", "2024-03-03")
			assert.Contains(t, out, "Recorded gain #3")
		})
	}
}

func TestSummary_MonthLabelsItsTaxEstimate(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "1,000,000", "--tag", "Salary", "--date", "2024-02-10")
	env.mustRun(t, "add", "1,000,000", "--tag", "Salary", "--date", "2024-03-05")

	out := env.mustRun(t, "summary", "--period", "2024-03")
	assert.Contains(t, out, "Tax on period alone")
	assert.Contains(t, out, "30,000")
	assert.Contains(t, out, "Estimated tax, all time")
	assert.Contains(t, out, "180,000")

	out = env.mustRun(t, "summary")
	assert.Contains(t, out, "Estimated tax")
	assert.NotContains(t, out, "Tax on period alone")
	assert.NotContains(t, out, "Estimated tax, all time")
	assert.Contains(t, out, "180,000")
}

func TestAdd_InvalidInput(t *testing.T) {
	env := newTestEnv(t, "file", "")

	tests := []struct {
		name string
		args []string
	}{
		{name: "not a number", args: []string{"add", "abc", "--tag", "Salary"}},
		{name: "negative", args: []string{"add", "--tag", "Salary", "--", "-5"}},
		{name: "bad date", args: []string{"add", "100", "--tag", "Salary", "--date", "03/01/2024"}},
		{name: "missing tag", args: []string{"add", "100"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run(t, tt.args...)
			assert.Error(t, err)
		})
	}

	out := env.mustRun(t, "list")
	assert.Contains(t, out, "No gains in all time")
}

func TestAdd_UnknownTag(t *testing.T) {
	env := newTestEnv(t, "file", "")

	out := env.mustRun(t, "add", "100", "--tag", "Lottery")
	assert.Contains(t, out, "Recorded gain #1")
	assert.Contains(t, out, "(unknown)")
	assert.Contains(t, out, `"Lottery" is not in the catalog`)

	out = env.mustRun(t, "graph")
	assert.Contains(t, out, "Lottery")
	assert.Contains(t, out, "[unknown]")
}

func TestAdd_StrictCategories(t *testing.T) {
	env := newTestEnv(t, "file", "ledger:\n  strict_categories: true\n")

	_, _, err := env.run(t, "add", "100", "--tag", "Lottery")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput), err.Error())

	env.mustRun(t, "add", "100", "--tag", "Salary")
}

func TestList_EmptyPeriod(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "100", "--tag", "Salary", "--date", "2024-03-01")

	out := env.mustRun(t, "list", "--period", "2024-04")
	assert.Contains(t, out, "No gains in 2024-04")

	_, _, err := env.run(t, "list", "--period", "2024-13")
	assert.Error(t, err)
}

func TestExport_CSVToStdout(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "3000000", "--tag", "Salary", "--date", "2024-03-01")
	env.mustRun(t, "add", "250", "--tag", "Gift", "--date", "2024-02-10")

	out := env.mustRun(t, "export", "--period", "2024-03")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Source,Amount,Tax status", lines[0])
	assert.Equal(t, "2024-03-01,Salary,3000000,taxable", lines[1])
}

func TestExport_XLSXFile(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "3000000", "--tag", "Salary", "--date", "2024-03-01")

	dest := filepath.Join(env.dir, "gains.xlsx")
	_, stderr, err := env.run(t, "export", "--format", "xlsx", "--output", dest)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 1 gains to "+dest)

	f, err := excelize.OpenFile(dest)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestExport_NothingToExport(t *testing.T) {
	env := newTestEnv(t, "file", "")

	out, stderr, err := env.run(t, "export")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "No gains to export for all time")
}

func TestExport_UnknownFormat(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "1", "--tag", "Salary")

	_, _, err := env.run(t, "export", "--format", "pdf")
	assert.ErrorContains(t, err, "unknown export format")
}

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DIRECTDEP
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>2500.00
<FITID>2024011501
<NAME>DIRECT DEP ACME CORP PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240122120000[0:GMT]
<TRNAMT>300.00
<FITID>2024012201
<NAME>ACH CREDIT CLIENT CO
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func writeStatement(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "checking.qfx")
	require.NoError(t, os.WriteFile(path, []byte(statementOFX), 0600))
	return path
}

func TestImportOFX_DryRun(t *testing.T) {
	env := newTestEnv(t, "file", "")
	statement := writeStatement(t, env.dir)

	out := env.mustRun(t, "import-ofx", "--dry-run", statement)
	assert.Contains(t, out, "ACME CORP PAYROLL")
	assert.Contains(t, out, "2 credits, total 2,800")
	assert.Contains(t, out, "Dry run complete")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "No gains in all time")
}

func TestImportOFX_RecordsAndSkipsDuplicates(t *testing.T) {
	env := newTestEnv(t, "file", "")
	statement := writeStatement(t, env.dir)

	out := env.mustRun(t, "import-ofx", "--yes", statement)
	assert.Contains(t, out, "Recorded 2 gains")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "2 gains, total 2,800")

	out = env.mustRun(t, "import-ofx", "--yes", statement)
	assert.Contains(t, out, "Skipping 2 credits already in the ledger")
	assert.Contains(t, out, "No new credits to import")
}

func TestImportOFX_Declined(t *testing.T) {
	env := newTestEnv(t, "file", "")
	statement := writeStatement(t, env.dir)

	out, _, err := env.runWithInput(t, "n\n", "import-ofx", "--tag", "Freelance", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "Freelance")
	assert.Contains(t, out, "Import canceled")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "No gains in all time")
}

func TestImportOFX_NoFiles(t *testing.T) {
	env := newTestEnv(t, "file", "")

	_, _, err := env.run(t, "import-ofx", filepath.Join(env.dir, "missing-*.ofx"))
	assert.ErrorContains(t, err, "no files found")
}

func TestCategoriesAndGraph(t *testing.T) {
	env := newTestEnv(t, "file", "")

	out := env.mustRun(t, "graph")
	assert.Contains(t, out, "(no gains)")

	env.mustRun(t, "add", "100", "--tag", "Salary")
	env.mustRun(t, "add", "50", "--tag", "Gift")

	out = env.mustRun(t, "categories")
	for _, name := range []string{"Salary", "Freelance", "Dividends", "Gift", "Other"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Tax-free up to 800,000")

	out = env.mustRun(t, "graph")
	assert.Contains(t, out, "├── ")
	assert.Contains(t, out, "└── ")
	assert.Contains(t, out, "[taxable]")
	assert.Contains(t, out, "[exempt]")
	assert.Less(t, strings.Index(out, "Salary"), strings.Index(out, "Gift"), "catalog order")
}

func TestCheckpoint_CreateRestoreDelete(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "100", "--tag", "Salary")

	out := env.mustRun(t, "checkpoint", "create", "--tag", "before", "--description", "one gain")
	assert.Contains(t, out, "Created checkpoint before")
	assert.Contains(t, out, "one gain")

	env.mustRun(t, "add", "200", "--tag", "Gift")
	out = env.mustRun(t, "list")
	assert.Contains(t, out, "2 gains")

	out, _, err := env.runWithInput(t, "no\n", "checkpoint", "restore", "before")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore canceled")

	out = env.mustRun(t, "checkpoint", "restore", "before", "--force")
	assert.Contains(t, out, "Restored 1 gains from checkpoint before")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "1 gains, total 100")

	out = env.mustRun(t, "checkpoint", "list")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "auto-restore-")

	out = env.mustRun(t, "checkpoint", "delete", "before", "--force")
	assert.Contains(t, out, "Deleted checkpoint before")

	_, _, err = env.run(t, "checkpoint", "restore", "before", "--force")
	assert.Error(t, err)
}

func TestCheckpoint_NothingSaved(t *testing.T) {
	env := newTestEnv(t, "file", "")

	_, _, err := env.run(t, "checkpoint", "create")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNothingToCheckpoint))

	out := env.mustRun(t, "checkpoint", "list")
	assert.Contains(t, out, "No checkpoints found.")
}

func TestSQLiteBackend(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")

	env.mustRun(t, "add", "3,000,000", "--tag", "Salary", "--date", "2024-03-01")
	out := env.mustRun(t, "summary")
	assert.Contains(t, out, "330,000")

	out = env.mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Current version: 1")
	assert.NotContains(t, out, "Last saved:      never")
}

func TestMigrate_FileBackend(t *testing.T) {
	env := newTestEnv(t, "file", "")

	out := env.mustRun(t, "migrate")
	assert.Contains(t, out, "The file backend has no schema to migrate")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, "file", "")

	out := env.mustRun(t, "version")
	assert.Equal(t, "gaintrack dev\n", out)
}

func TestReportWriteFailure(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, reportWriteFailure(&buf, nil))
	assert.Empty(t, buf.String())

	err := reportWriteFailure(&buf, errors.Join(ledger.ErrPersistenceWrite, errors.New("disk full")))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "could not be saved")

	other := errors.New("boom")
	assert.Equal(t, other, reportWriteFailure(&buf, other))
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 10 * time.Second, want: "just now"},
		{ago: time.Minute, want: "1 minute ago"},
		{ago: 5 * time.Minute, want: "5 minutes ago"},
		{ago: 3 * time.Hour, want: "3 hours ago"},
		{ago: 30 * time.Hour, want: "yesterday"},
		{ago: 3 * 24 * time.Hour, want: "3 days ago"},
		{ago: 30 * 24 * time.Hour, want: "2024-02-14 12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatRelativeTime(now.Add(-tt.ago), now))
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}
