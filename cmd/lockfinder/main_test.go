package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace(t *testing.T) {
	log := strings.Join([]string{
		"Oct 17 10:00:00.000000001 [runner] --- begin ---",
		"Oct 17 10:00:00.000000002 [runner] Status seeks lock",
		"Oct 17 10:00:00.000000003 [runner] Status receives lock",
		"Oct 17 10:00:00.000000004 [ui] println seeks lock",
		"Oct 17 10:00:00.000000005 [ui] println receives lock",
		"Oct 17 10:00:00.000000006 [ui] releases lock",
		"Oct 17 10:00:00.000000007 [printer] Write:build seeks lock",
		"not a trace line",
	}, "\n")

	holders, err := trace(strings.NewReader(log))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"runner":  "Status",
		"ui":      "",
		"printer": "",
	}, holders)

	assert.Equal(t, strings.Join([]string{
		"report",
		"- runner is held by Status",
		"- printer is not held",
		"- ui is not held",
		"",
	}, "\n"), report(holders))
}
