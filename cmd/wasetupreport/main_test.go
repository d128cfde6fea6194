package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/windowsadmins/wasetupreport/pkg/config"
	"github.com/windowsadmins/wasetupreport/pkg/filter"
)

const waSetup = `<WaSetup>
<TelemetryData>{"specialize": {"StartTime": "2024-01-01T00:00:00Z", "EndTime": "2024-01-01T00:00:00.1Z"},
"Setup": {"TickCount": 200}}</TelemetryData>
</WaSetup>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newOptions(base, output string) options {
	return options{
		baseDir:  base,
		output:   output,
		machines: filter.NewMachineFilter(nil),
	}
}

func TestRunWritesReport(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "VM-A", "Panther", "WaSetup.xml"), waSetup)
	writeFile(t, filepath.Join(base, "VM-A", "Panther", "PASetup.log"), "NonCVMInstall_total took 1234.5 ms\n")
	writeFile(t, filepath.Join(base, "VM-B", "panther", "WaSetup.xml"), "garbage")
	writeFile(t, filepath.Join(base, "VM-C", "Logs", "WaSetup.xml"), waSetup)

	outDir := t.TempDir()
	opts := newOptions(base, filepath.Join(outDir, "report.xlsx"))
	opts.details = filepath.Join(outDir, "details.yaml")
	opts.verbosity = 1

	var out bytes.Buffer
	require.Equal(t, 0, run(opts, &out))
	assert.Contains(t, out.String(), "Report generated")

	f, err := excelize.OpenFile(opts.output)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("WA_Setup_Report")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Machine, specialize, oobeSystem, SetupCl, Setup, OobeLdr, provisioning, PaSetup, Total
	assert.Equal(t, []string{"VM-A", "100", "", "", "200", "", "", "1234.5", "1534.5"}, rows[1])
	assert.Equal(t, []string{"VM-B"}, rows[2])

	assert.FileExists(t, opts.details)
}

func TestRunNonNumericTickLeavesCellEmpty(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "VM-A", "Panther", "WaSetup.xml"),
		`<WaSetup><TelemetryData>{"Setup": {"TickCount": "NaN"}, "specialize": {"TickCount": "100"}}</TelemetryData></WaSetup>`)

	opts := newOptions(base, filepath.Join(t.TempDir(), "report.xlsx"))
	var out bytes.Buffer
	require.Equal(t, 0, run(opts, &out))

	f, err := excelize.OpenFile(opts.output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("WA_Setup_Report")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"VM-A", "100", "", "", "", "", "", "", "100"}, rows[1])
}

func TestRunReportsEachFailureOnce(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "VM-B", "Panther", "WaSetup.xml"), "garbage")

	opts := newOptions(base, filepath.Join(t.TempDir(), "report.xlsx"))
	var out bytes.Buffer
	require.Equal(t, 0, run(opts, &out))

	assert.Equal(t, 1, strings.Count(out.String(), "VM-B: Failed to parse"))
	assert.NotContains(t, out.String(), "Failed to parse primary log")
}

func TestRunMachineFilter(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "VM-A", "Panther", "WaSetup.xml"), waSetup)
	writeFile(t, filepath.Join(base, "VM-B", "Panther", "WaSetup.xml"), waSetup)

	opts := newOptions(base, filepath.Join(t.TempDir(), "report.xlsx"))
	opts.machines.SetMachines([]string{"vm-b"})

	var out bytes.Buffer
	require.Equal(t, 0, run(opts, &out))

	f, err := excelize.OpenFile(opts.output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("WA_Setup_Report")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "VM-B", rows[1][0])
}

func TestRunMissingBaseDir(t *testing.T) {
	opts := newOptions(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "report.xlsx"))

	var out bytes.Buffer
	assert.Equal(t, 1, run(opts, &out))
	assert.Contains(t, out.String(), "Directory not accessible")
	assert.NoFileExists(t, opts.output)
}

func TestRunNothingFound(t *testing.T) {
	opts := newOptions(t.TempDir(), filepath.Join(t.TempDir(), "report.xlsx"))

	var out bytes.Buffer
	assert.Equal(t, 0, run(opts, &out))
	assert.NoFileExists(t, opts.output)
}

func TestRunOutputIsDirectory(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "VM-A", "Panther", "WaSetup.xml"), waSetup)

	output := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, os.Mkdir(output, 0755))

	var out bytes.Buffer
	assert.Equal(t, 1, run(newOptions(base, output), &out))
	assert.Contains(t, out.String(), "output path is a directory")
	assert.DirExists(t, output)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 0, run(options{showVersion: true, machines: filter.NewMachineFilter(nil)}, &out))
	assert.Contains(t, out.String(), "wasetupreport")
}

func TestRunWriteConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "wasetupreport.yaml")

	opts := newOptions(`D:\Collected`, "custom.xlsx")
	opts.writeConfig = cfgPath
	var out bytes.Buffer
	require.Equal(t, 0, run(opts, &out))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, `D:\Collected`, cfg.BaseDir)
	assert.Equal(t, "custom.xlsx", cfg.OutputFile)
}

func TestRunBadConfig(t *testing.T) {
	opts := newOptions(t.TempDir(), "")
	opts.configPath = filepath.Join(t.TempDir(), "missing.yaml")

	var out bytes.Buffer
	assert.Equal(t, 1, run(opts, &out))
	assert.Contains(t, out.String(), "Failed to load configuration")
}
