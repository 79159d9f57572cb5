package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printVersion(&out))
	assert.Contains(t, out.String(), "version: undefined")
	assert.Contains(t, out.String(), "agent:   leannode/undefined")
}
