package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"fpc-portal/internal/model"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		navOpts.role, navOpts.format = "", "text"
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestNavPrintsRoleMenu(t *testing.T) {
	out, err := runRoot(t, "nav", "--role", "regional_manager")
	require.NoError(t, err)
	require.Contains(t, out, "Dashboard")
	require.Contains(t, out, "/fpo/pending")
	require.NotContains(t, out, "/fpo/register")
}

func TestNavJSON(t *testing.T) {
	out, err := runRoot(t, "nav", "--role", "AGRIBUSINESS_OFFICER", "--format", "json")
	require.NoError(t, err)

	var entries []model.NavigationEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	require.Equal(t, "/dashboard", entries[0].TargetPath)
	require.Equal(t, "/agri-business/new", entries[2].TargetPath)
}

func TestNavRejectsUnknownRole(t *testing.T) {
	_, err := runRoot(t, "nav", "--role", "janitor")
	require.ErrorContains(t, err, "unknown role")
}
