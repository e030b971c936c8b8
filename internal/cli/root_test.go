package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vvka-141/belaz/pkg/belaz"
)

func resetRootFlags() {
	rootFlags.configFile = ""
	rootFlags.dryRun = false
	rootFlags.tables = nil
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetRootFlags()
	t.Cleanup(func() {
		resetRootFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFixture(t *testing.T) (configPath string) {
	t.Helper()
	dir := t.TempDir()

	var dump bytes.Buffer
	for _, doc := range []bson.D{
		{{Key: "_id", Value: int32(1)}, {Key: "name", Value: "ann"}},
		{{Key: "_id", Value: int32(2)}, {Key: "name", Value: "o'brien"}},
	} {
		data, err := bson.Marshal(doc)
		require.NoError(t, err)
		dump.Write(data)
	}
	dumpPath := filepath.Join(dir, "users.bson")
	require.NoError(t, os.WriteFile(dumpPath, dump.Bytes(), 0644))

	config := `{"host":"localhost","database":"dwh","schema":"staging","user":"loader","password":"x","port":5432,
"tables":[
 {"name":"users","file":` + quote(dumpPath) + `,"columns":"['_id','name']","dump_flag":"1"},
 {"name":"orders","file":"orders.bson","columns":"['_id']","dump_flag":"0"}
]}`
	configPath = filepath.Join(dir, "belaz.json")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0644))
	return configPath
}

func quote(s string) string {
	var b bytes.Buffer
	b.WriteByte('"')
	for _, r := range s {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func TestRootCmd_ArgsValidation(t *testing.T) {
	err := rootCmd.Args(rootCmd, []string{"belaz.json"})
	require.Error(t, err)
	assert.Equal(t, belaz.ExitUsageError, belaz.ExitCodeForError(err))

	assert.NoError(t, rootCmd.Args(rootCmd, []string{}))
}

func TestRootCmd_PositionalArgument(t *testing.T) {
	stdout, _, err := execute(t, "belaz.json")
	require.Error(t, err)
	assert.Equal(t, belaz.ExitUsageError, belaz.ExitCodeForError(err))
	assert.Contains(t, stdout, "--config_file")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, belaz.ErrUsage))
	assert.Equal(t, belaz.ExitUsageError, belaz.ExitCodeForError(err))
	assert.Contains(t, stdout, "Usage:")
}

func TestRootCmd_EmptyConfigFile(t *testing.T) {
	_, _, err := execute(t, "--config_file=")
	assert.Equal(t, belaz.ExitUsageError, belaz.ExitCodeForError(err))
}

func TestRootCmd_UnknownFlag(t *testing.T) {
	_, _, err := execute(t, "--no-such-flag")
	require.Error(t, err)
	assert.True(t, errors.Is(err, belaz.ErrUsage))
}

func TestRootCmd_ConfigNotFound(t *testing.T) {
	_, _, err := execute(t, "--config_file", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, belaz.ExitConfigError, belaz.ExitCodeForError(err))
}

func TestRootCmd_MalformedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "belaz.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, _, err := execute(t, "--config_file", path)
	assert.Equal(t, belaz.ExitConfigError, belaz.ExitCodeForError(err))
}

func TestRootCmd_DryRun(t *testing.T) {
	configPath := writeFixture(t)

	stdout, stderr, err := execute(t, "--config_file", configPath, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, stdout, "TRUNCATE TABLE staging.users;")
	assert.Contains(t, stdout, "INSERT INTO staging.users\nVALUES\n    ('1','ann'),\n    ('2','o''brien')")
	assert.NotContains(t, stdout, "orders", "unflagged tables are never touched")

	assert.Contains(t, stderr, "Dry run")
	assert.Contains(t, stderr, "users")
}

func TestRootCmd_TableNotFlagged(t *testing.T) {
	configPath := writeFixture(t)

	_, _, err := execute(t, "--config_file", configPath, "--dry-run", "--table", "orders")
	require.Error(t, err)
	assert.Equal(t, belaz.ExitConfigError, belaz.ExitCodeForError(err))
	assert.Contains(t, err.Error(), "orders")
}

func TestRootCmd_TableSelection(t *testing.T) {
	configPath := writeFixture(t)

	stdout, _, err := execute(t, "--config_file", configPath, "--dry-run", "--table", "users")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TRUNCATE TABLE staging.users;")
}

func TestVersionCmd_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, versionCmd, cmd)
}
