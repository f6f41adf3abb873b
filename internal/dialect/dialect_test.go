package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	pg, err := ByName("postgresql")
	require.NoError(t, err)
	require.Equal(t, "PostgreSQL", pg.Name)
	require.Equal(t, "pgx", pg.Driver)
	require.Contains(t, pg.CatalogQuery, "table_schema = 'public'")

	my, err := ByName(" MySQL ")
	require.NoError(t, err)
	require.Equal(t, "mysql", my.Driver)
	require.Contains(t, my.CatalogQuery, "DATABASE()")

	_, err = ByName("sqlite")
	require.Error(t, err)
}

func TestNormalizeForClassification(t *testing.T) {
	pg, err := ByName("postgresql")
	require.NoError(t, err)
	my, err := ByName("mysql")
	require.NoError(t, err)

	backticked := "SELECT `name` FROM `users`"
	require.Equal(t, backticked, pg.NormalizeForClassification(backticked))
	require.Equal(t, `SELECT "name" FROM "users"`, my.NormalizeForClassification(backticked))
}

func TestCatalogQueriesOrderByTable(t *testing.T) {
	for _, name := range []string{"postgresql", "mysql"} {
		d, err := ByName(name)
		require.NoError(t, err)
		require.True(t, strings.Contains(d.CatalogQuery, "ORDER BY table_name"), "dialect %s", name)
	}
}
