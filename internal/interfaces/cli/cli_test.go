package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Flags(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	for _, name := range []string{"config", "log-level", "output", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag %s", name)
	}

	subs := make(map[string]bool)
	for _, c := range root.Commands() {
		subs[strings.Fields(c.Use)[0]] = true
	}
	for _, name := range []string{"extract", "fields", "search", "migrate"} {
		assert.True(t, subs[name], "subcommand %s", name)
	}
}

func TestExtractCommand_LotTable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "avis.txt")
	text := "1 EQUIPEMENT MEDICAL 100 000 150 000\n2 FORMATION 50 000 60 000"
	require.NoError(t, os.WriteFile(file, []byte(text), 0o644))

	stdout, _, err := runCommand(t, "extract", file, "-o", "json")
	require.NoError(t, err)

	var out ExtractResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Records, 2)
	assert.Equal(t, 1, out.Records[0].LotNumero)
	assert.Equal(t, "EQUIPEMENT MEDICAL", out.Records[0].Intitule)
	assert.Equal(t, 2, out.Records[1].LotNumero)
}

func TestExtractCommand_TableOutput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "avis.txt")
	require.NoError(t, os.WriteFile(file, []byte("1 EQUIPEMENT MEDICAL 100 000 150 000"), 0o644))

	stdout, _, err := runCommand(t, "extract", file, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, stdout, "LOT")
	assert.Contains(t, stdout, "EQUIPEMENT MEDICAL")
}

func TestExtractCommand_MissingFile(t *testing.T) {
	_, _, err := runCommand(t, "extract", "/nonexistent/avis.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestFieldsCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "fields", "-o", "json")
	require.NoError(t, err)

	var out FieldList
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.NotEmpty(t, out.Fields)

	names := make(map[string]bool)
	for _, f := range out.Fields {
		names[f.Name] = true
	}
	assert.True(t, names["reference_procedure"])
	assert.True(t, names["date_limite"])
}

func TestFormatTable(t *testing.T) {
	t.Parallel()

	out := FormatTable([]string{"A", "LONG"}, [][]string{{"x", "y"}, {"wider", "z"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A      LONG", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "-----"))
}

func TestFormatTable_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTable(nil, nil))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklm", 10))
}

func TestGetCLIContext_MissingContext(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	_, err := GetCLIContext(root)
	assert.Error(t, err)
}

//Personal.AI order the ending
