package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// SeedFixture is the on-disk shape of backend seed data: records keyed by
// collection path, plus optional dashboard stats.
type SeedFixture struct {
	Collections map[string][]map[string]any `json:"collections"`
	Stats       map[string]any              `json:"stats,omitempty"`
}

// SeedFromFixture loads a SeedFixture file into backend.
func SeedFromFixture(t testing.TB, backend *FakeBackend, path string) {
	t.Helper()

	var seed SeedFixture
	LoadFixtureJSON(t, path, &seed)
	for collection, records := range seed.Collections {
		backend.Seed(collection, records...)
	}
	if len(seed.Stats) > 0 {
		backend.SetStats(seed.Stats)
	}
}

// WriteGoldenJSON writes indented JSON to a golden file, creating parent
// directories as needed.
func WriteGoldenJSON(t testing.TB, path string, data any) {
	t.Helper()

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for golden file %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, append(jsonData, '\n'), 0o644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// CompareWithGoldenJSON compares data, marshalled as indented JSON, with a
// golden file. A missing golden file is created from data.
func CompareWithGoldenJSON(t testing.TB, path string, data any) {
	t.Helper()

	actual, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for %s: %v", path, err)
	}
	actual = append(actual, '\n')

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("golden file %s does not exist, creating it", path)
			WriteGoldenJSON(t, path, data)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, actual)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}
