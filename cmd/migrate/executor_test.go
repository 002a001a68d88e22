package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMigrationFile(t *testing.T) {
	fileList := []string{
		"0001_initial.sql",
		"0001_initial_reverse.sql",
		"0002_stock_sector.sql",
		"README.sql",
	}

	assert.Equal(t, "0001_initial.sql", findMigrationFile(fileList, 1, false))
	assert.Equal(t, "0001_initial_reverse.sql", findMigrationFile(fileList, 1, true))
	assert.Equal(t, "0002_stock_sector.sql", findMigrationFile(fileList, 2, false))
	assert.Equal(t, "", findMigrationFile(fileList, 2, true))
	assert.Equal(t, "", findMigrationFile(fileList, 3, false))
}

func TestSplitStatements(t *testing.T) {
	statementList := splitStatements("CREATE TABLE a (id int);\n\nCREATE TABLE b (id int);\n")

	assert.Equal(t, []string{"CREATE TABLE a (id int)", "CREATE TABLE b (id int)"}, statementList)
}

func TestListMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_initial.sql"), []byte("SELECT 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0002_dir.sql"), 0o755))

	fileList, err := listMigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_initial.sql"}, fileList)
}

func TestParseSelectedMigration(t *testing.T) {
	number, err := parseSelectedMigration(nil)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, number)

	number, err = parseSelectedMigration([]string{"0"})
	require.NoError(t, err)
	assert.Zero(t, number)

	_, err = parseSelectedMigration([]string{"-1"})
	assert.Error(t, err)

	_, err = parseSelectedMigration([]string{"1", "2"})
	assert.Error(t, err)
}
