package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoGrammar = `{
	"name": "demo",
	"extension": ".demo",
	"states": {
		"start": [
			{"token": "keyword.control", "regex": "if|else"},
			{"default_token": "text"}
		]
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "demo.json", demoGrammar)
	out, err := runCommand(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "demo: ok (1 states)")
	assert.Contains(t, out, "start")
}

func TestCheckCommandRejectsBadGrammar(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{
		"check_rules": false,
		"states": {"start": [{"token": "nope", "regex": "a"}]}
	}`)
	_, err := runCommand(t, "check", path)
	require.Error(t, err, "check forces rule validation despite the opt-out")
	assert.Contains(t, err.Error(), "nope")
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "demo.json", demoGrammar)
	sourcePath := writeFile(t, dir, "prog.demo", "if x\n")

	out, err := runCommand(t, "scan", sourcePath, "--grammar", grammarPath)
	require.NoError(t, err)
	assert.Contains(t, out, "keyword.control")
	assert.Contains(t, out, `"if"`)

	out, err = runCommand(t, "scan", sourcePath, "--grammar", grammarPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "keyword.control"`)
	assert.Contains(t, out, `"endState": "start"`)
}

func TestScanCommandRequiresGrammar(t *testing.T) {
	_, err := runCommand(t, "scan", "whatever.demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--grammar")
}
