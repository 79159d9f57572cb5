package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	defer func(v, c string) { semverString, commit = v, c }(semverString, commit)

	semverString, commit = "", ""
	assert.Equal(t, "undefined", Version())
	assert.Equal(t, "undefined", Commit())
	_, err := Semver()
	assert.Error(t, err)
	assert.Equal(t, "leannode/undefined", UserAgent())

	semverString, commit = "v1.2.3-rc.1", "abc123"
	v, err := Semver()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Major)
	assert.Equal(t, int64(2), v.Minor)
	assert.Equal(t, "rc.1", string(v.PreRelease))
	assert.Equal(t, "leannode/v1.2.3-rc.1", UserAgent())
	assert.Equal(t, "abc123", Commit())
}
