package catalog

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	ordinal *int32
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(**int32)) = r.ordinal
	return nil
}

func TestSeniorOrdinalEmptyCatalog(t *testing.T) {
	// MIN over an empty table yields one NULL row, not zero rows.
	_, err := seniorOrdinal(fakeRow{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSeniorOrdinalValue(t *testing.T) {
	one := int32(1)
	ordinal, err := seniorOrdinal(fakeRow{ordinal: &one})
	require.NoError(t, err)
	require.Equal(t, int32(1), ordinal)
}

// The repositories are mocked everywhere else, so nothing would notice the
// queries drifting from the schema. Pin the selected columns to the DDL.
func TestPermissionColumnsMatchMigration(t *testing.T) {
	ddl, err := os.ReadFile("../../migrations/0001_init.sql")
	require.NoError(t, err)

	start := strings.Index(string(ddl), "CREATE TABLE permissions (")
	require.Greater(t, start, -1)
	end := strings.Index(string(ddl)[start:], ");")
	require.Greater(t, end, -1)
	table := string(ddl)[start : start+end]

	for _, column := range strings.Split(permissionColumns, ",") {
		column = strings.TrimSpace(column)
		require.Regexp(t, regexp.MustCompile(`(?m)^\s+`+column+`\s`), table,
			"column %q selected by the repository is missing from the permissions DDL", column)
	}
}
