package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	baselineDir := filepath.Join(dataDir, "baseline_mini")
	require.NoError(t, os.MkdirAll(baselineDir, 0o755))

	// One baseline from the built-in catalog; the other eleven are absent
	// and must be skipped without failing the run.
	content := "user_id,total_power_consumption\nu1,120\nu2,45\nu3,300\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(baselineDir, "ranked_process_classifications.csv"),
		[]byte(content), 0o644))

	cmd := NewRunCmd()
	cmd.SetArgs([]string{
		"--mechanism", "laplace",
		"--database", "mini",
		"--data-dir", dataDir,
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(dataDir, "dp_laplace_mini", "laplace_metric_summary.csv"))
	assert.FileExists(t, filepath.Join(dataDir, "dp_laplace_mini", "eps_inf", "ranked_process_classifications.csv"))
	assert.FileExists(t, filepath.Join(dataDir, "dp_laplace_mini", "eps_0.01", "ranked_process_classifications.csv"))
}

func TestRunCommandRejectsUnknownMechanism(t *testing.T) {
	cmd := NewRunCmd()
	cmd.SetArgs([]string{"--mechanism", "exponential", "--data-dir", t.TempDir()})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	require.Error(t, cmd.Execute())
}

func TestRegistryCommandListsQueries(t *testing.T) {
	cmd := NewRegistryCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "12 queries registered")
	assert.Contains(t, out.String(), "most_popular_browser_in_each_country.csv")
}
