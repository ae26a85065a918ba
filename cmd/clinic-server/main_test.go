package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var insertRe = regexp.MustCompile(`(?is)INSERT INTO\s+(\w+)\s*\(([^)]+)\)`)

// migrationColumns reads every migration file and returns the column names
// defined for each CREATE TABLE.
func migrationColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	tables := make(map[string]map[string]bool)
	createRe := regexp.MustCompile(`(?is)CREATE TABLE\s+(\w+)\s*\((.*?)\n\);`)

	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("load migrations: %v (found %d files)", err, len(files))
	}
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		for _, m := range createRe.FindAllStringSubmatch(string(content), -1) {
			table := strings.ToLower(m[1])
			cols := make(map[string]bool)
			for _, line := range strings.Split(m[2], "\n") {
				fields := strings.Fields(strings.TrimSpace(line))
				if len(fields) == 0 {
					continue
				}
				name := strings.ToLower(fields[0])
				switch name {
				case "primary", "foreign", "unique", "check", "constraint":
					continue
				}
				cols[name] = true
			}
			tables[table] = cols
		}
	}
	return tables
}

// The seeder bypasses the repositories, so its column lists must track the
// migrations by hand. This guards against inserts into columns the schema
// does not define.
func TestSeedStatements_MatchSchema(t *testing.T) {
	tables := migrationColumns(t)

	statements := []string{
		seedPractitionerInsert,
		seedPatientInsert,
		seedAssignmentInsert,
		seedExerciseInsert,
	}
	for _, stmt := range statements {
		m := insertRe.FindStringSubmatch(stmt)
		if m == nil {
			t.Fatalf("statement is not a column-list insert: %s", stmt)
		}
		table := strings.ToLower(m[1])
		cols, ok := tables[table]
		if !ok {
			t.Errorf("seed inserts into unknown table %q", table)
			continue
		}
		for _, col := range strings.Split(m[2], ",") {
			col = strings.ToLower(strings.TrimSpace(col))
			if !cols[col] {
				t.Errorf("seed inserts into %s.%s, which the migrations do not define", table, col)
			}
		}
	}
}
