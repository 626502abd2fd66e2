package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personConfig = `backend: %s
log:
  level: warn
entities:
  - type: person
    properties:
      - name: name
        kind: string
      - name: age
        kind: int
      - name: active
        kind: bool
`

// env is a config dir and data dir pair for one test.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T, backend string) env {
	t.Helper()
	t.Setenv("ENTS_BACKEND", "")
	e := env{
		configDir: filepath.Join(t.TempDir(), "config"),
		dataDir:   filepath.Join(t.TempDir(), "data"),
	}
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	content := []byte(fmt.Sprintf(personConfig, backend))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), content, 0o644))
	return e
}

// run executes entctl with the env's directories and returns stdout and
// the exit code.
func (e env) run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.Execute()
	if err != nil {
		t.Logf("entctl %v: %v", args, err)
	}
	return out.String(), exitCode(err)
}

func TestVersion(t *testing.T) {
	e := newEnv(t, "sqlite")

	out, code := e.run(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "entctl v")
	assert.Contains(t, out, modulePath)

	out, code = e.run(t, "--json", "version")
	assert.Equal(t, exitSuccess, code)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, modulePath, got["module"])
}

func TestInit(t *testing.T) {
	t.Setenv("ENTS_BACKEND", "")
	configDir := filepath.Join(t.TempDir(), "cfg")
	dataDir := filepath.Join(t.TempDir(), "db")
	e := env{configDir: configDir, dataDir: dataDir}

	out, code := e.run(t, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Initialized entctl")

	cfg, err := loadConfig(configDir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.DirExists(t, dataDir)

	custom := []byte("backend: memory\n")
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), custom, 0o644))
	_, code = e.run(t, "init")
	require.Equal(t, exitSuccess, code)
	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, custom, data, "init keeps an existing config")
}

func TestEntityLifecycle(t *testing.T) {
	e := newEnv(t, "sqlite")

	out, code := e.run(t, "save", "person", "name=ada", "age=36")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "name=ada\nage=36\nactive=false\n", out)

	_, code = e.run(t, "save", "person", "name=bob", "age=40", "active=true")
	require.Equal(t, exitSuccess, code)

	out, code = e.run(t, "load", "person", "active=true")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "name=bob\nage=40\nactive=true\n", out)

	out, code = e.run(t, "update", "person", "name=ada", "--set", "age=37", "--set", "active=true")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "name=ada\nage=37\nactive=true\n", out)

	out, code = e.run(t, "--json", "load", "person", "name=ada")
	require.Equal(t, exitSuccess, code)
	assert.JSONEq(t, `{"type":"person","properties":{"name":"ada","age":37,"active":true}}`, out)

	_, code = e.run(t, "delete", "person", "name=ada")
	require.Equal(t, exitSuccess, code)

	_, code = e.run(t, "load", "person", "name=ada")
	assert.Equal(t, exitUserError, code)

	assert.FileExists(t, filepath.Join(e.dataDir, "person.jsonl"))
}

func TestUserErrors(t *testing.T) {
	e := newEnv(t, "sqlite")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown type", []string{"save", "robot", "name=r2"}},
		{"unknown property", []string{"save", "person", "email=x"}},
		{"malformed argument", []string{"save", "person", "name"}},
		{"value of the wrong kind", []string{"save", "person", "age=old"}},
		{"update without --set", []string{"update", "person", "name=ada"}},
		{"nothing to load", []string{"load", "person", "name=nobody"}},
		{"missing type", []string{"load"}},
		{"unknown command", []string{"frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := e.run(t, tt.args...)
			assert.Equal(t, exitUserError, code)
		})
	}
}

func TestInvalidDeclaration(t *testing.T) {
	e := newEnv(t, "sqlite")
	bad := "entities:\n  - type: gadget\n    properties:\n      - name: size\n        kind: complex\n"
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte(bad), 0o644))

	_, code := e.run(t, "save", "gadget", "size=1")
	assert.Equal(t, exitUserError, code)

	reserved := "entities:\n  - type: gadget\n    properties:\n      - name: _id\n        kind: string\n"
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte(reserved), 0o644))
	_, code = e.run(t, "save", "gadget", "_id=x")
	assert.Equal(t, exitUserError, code, "a reserved property name is a user error")
}

func TestMemoryBackendDoesNotPersist(t *testing.T) {
	e := newEnv(t, "memory")

	_, code := e.run(t, "save", "person", "name=ada")
	require.Equal(t, exitSuccess, code)

	_, code = e.run(t, "load", "person", "name=ada")
	assert.Equal(t, exitUserError, code, "each run starts with empty memory")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitSysError, exitCode(sysError("x", nil)))
	assert.Equal(t, exitUserError, exitCode(userError("x", nil)))
	assert.Equal(t, exitUserError, exitCode(assert.AnError))
}
