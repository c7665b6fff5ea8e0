package main

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

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcile_TextOutput(t *testing.T) {
	out, err := execute(t, "reconcile", "--driver=memory", "--start=2022-04-01", "--end=2022-04-03")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[2022-04-01, 2022-04-03]: 3 entries created", lines[0])
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "2022-04-01"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[3]), "2022-04-03"))
}

func TestReconcile_JSONOutputAgainstSQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "timeentry.db")
	args := []string{"reconcile", "--db=" + db, "--start=2022-04-01", "--end=2022-04-02", "--format=json"}

	out, err := execute(t, args...)
	require.NoError(t, err)
	var first struct {
		Start      string   `json:"start"`
		CreatedIDs []string `json:"created_ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, "2022-04-01", first.Start)
	assert.Len(t, first.CreatedIDs, 2)

	// Same file, second pass: nothing left to create
	out, err = execute(t, args...)
	require.NoError(t, err)
	var second struct {
		CreatedIDs []string `json:"created_ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Empty(t, second.CreatedIDs)
}

func TestReconcile_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing end", []string{"reconcile", "--driver=memory", "--start=2022-04-01"}},
		{"inverted", []string{"reconcile", "--driver=memory", "--start=2022-04-05", "--end=2022-04-01"}},
		{"garbage", []string{"reconcile", "--driver=memory", "--start=soon", "--end=2022-04-01"}},
		{"bad format", []string{"reconcile", "--driver=memory", "--start=2022-04-01", "--end=2022-04-01", "--format=xml"}},
		{"bad driver", []string{"reconcile", "--driver=dataverse", "--start=2022-04-01", "--end=2022-04-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestReconcile_DBFlagOverridesConfigDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeentry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\n"), 0o600))
	db := filepath.Join(dir, "override.db")

	_, err := execute(t, "reconcile", "--config="+path, "--db="+db, "--start=2022-04-01", "--end=2022-04-01")
	require.NoError(t, err)

	// --db implies the sqlite driver, so the file now exists
	_, err = os.Stat(db)
	assert.NoError(t, err)
}
