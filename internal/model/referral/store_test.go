package referral

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore(Seed())

	dir := store.Directory()
	require.NotEmpty(t, dir.Therapists)
	dir.Therapists[0].Name = "changed"

	assert.NotEqual(t, "changed", store.Directory().Therapists[0].Name)
}

func TestFindTherapist(t *testing.T) {
	store := NewMemoryStore(Seed())

	got, ok := store.FindTherapist("t-2")
	require.True(t, ok)
	assert.Equal(t, "Trauma & PTSD", got.Specialty)

	_, ok = store.FindTherapist("missing")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "referral.yaml")
	content := `hotlines:
  - name: Samaritans
    phone: "116 123"
    hours: 24/7
therapists:
  - id: local-1
    name: Dr. Ada Osei
    specialty: Grief
    availability: Weekdays
    contact: Call clinic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := LoadFile(path)
	require.NoError(t, err)

	dir := store.Directory()
	require.Len(t, dir.Hotlines, 1)
	assert.Equal(t, "116 123", dir.Hotlines[0].Phone)
	require.Len(t, dir.Therapists, 1)
	assert.Equal(t, "Grief", dir.Therapists[0].Specialty)
}

func TestLoadFileRejectsEmptyDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hotlines: []\n"), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
