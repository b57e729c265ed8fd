package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope", "arch_cleaner.json"))

	assert.Equal(t, Defaults(), s.Load())
}

func TestLoad_PartialRecordMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch_cleaner.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"keep_versions": 5}`), 0o644))

	got := NewStore(path).Load()

	want := Defaults()
	want.KeepVersions = 5
	assert.Equal(t, want, got)
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch_cleaner.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_log_size": 50, "theme": "dark"}`), 0o644))

	got := NewStore(path).Load()

	assert.Equal(t, 50, got.MaxLogSize)
	assert.Equal(t, Defaults().KeepVersions, got.KeepVersions)
}

func TestLoad_CorruptFileReturnsDefaults(t *testing.T) {
	for _, content := range []string{"{not json", "[1,2,3]", ""} {
		path := filepath.Join(t.TempDir(), "arch_cleaner.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		assert.Equal(t, Defaults(), NewStore(path).Load(), content)
	}
}

func TestLoad_BadValuesFallBackPerKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch_cleaner.json")
	body := `{"keep_versions": 0, "max_log_size": "big", "exclude_dirs": ["/srv"]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	got := NewStore(path).Load()

	assert.Equal(t, Config{KeepVersions: 2, MaxLogSize: 100, ExcludeDirs: []string{"/srv"}}, got)
}

func TestSave_CreatesParentAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "arch_cleaner.json")
	s := NewStore(path)
	cfg := Config{KeepVersions: 3, MaxLogSize: 20, ExcludeDirs: []string{"/data"}}

	require.NoError(t, s.Save(cfg))

	assert.Equal(t, cfg, s.Load())
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSave_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewStore(filepath.Join(blocker, "arch_cleaner.json")).Save(Defaults())

	assert.ErrorIs(t, err, ErrPersist)
}

func TestSave_RejectsInvalid(t *testing.T) {
	err := NewStore(filepath.Join(t.TempDir(), "c.json")).Save(Config{KeepVersions: 0, MaxLogSize: 1})
	assert.ErrorIs(t, err, ErrPersist)
}

func TestSetAndGet(t *testing.T) {
	cfg, err := Defaults().Set("keep_versions", "4")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.KeepVersions)

	cfg, err = cfg.Set("exclude_dirs", "/home, /srv ,,")
	require.NoError(t, err)
	v, err := cfg.Get("exclude_dirs")
	require.NoError(t, err)
	assert.Equal(t, "/home,/srv", v)

	_, err = cfg.Set("keep_versions", "0")
	assert.Error(t, err)
	_, err = cfg.Set("colour", "red")
	assert.Error(t, err)
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected("/usr/"))
	assert.True(t, IsProtected("/etc"))
	assert.False(t, IsProtected("/tmp/build-123"))
}

func TestIsExcluded(t *testing.T) {
	dirs := []string{"/home", "/etc"}
	assert.True(t, IsExcluded("/home/user/big.iso", dirs))
	assert.True(t, IsExcluded("/etc", dirs))
	assert.False(t, IsExcluded("/homework/file", dirs))
	assert.False(t, IsExcluded("/var/cache/x", dirs))
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("ARCHMOLE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	assert.Equal(t, "/cfg/arch_cleaner.json", DefaultConfigPath())

	t.Setenv("ARCHMOLE_CONFIG", "/tmp/x.json")
	assert.Equal(t, "/tmp/x.json", DefaultConfigPath())
}
