package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadKernelVersion(t *testing.T) {
	originalProcVersionPath := procVersionPath
	procVersionPath = createTempFile(t, t.TempDir(),
		"Linux version 5.4.0-91-generic (buildd@host) (gcc version 9.3.0) #102\n")
	defer func() { procVersionPath = originalProcVersionPath }()

	release, err := ReadKernelVersion()
	require.NoError(t, err)
	assert.Equal(t, "5.4.0-91-generic", release)
}

func TestReadKernelVersionBadFormat(t *testing.T) {
	originalProcVersionPath := procVersionPath
	procVersionPath = createTempFile(t, t.TempDir(), "not a version banner\n")
	defer func() { procVersionPath = originalProcVersionPath }()

	_, err := ReadKernelVersion()
	assert.Error(t, err)
}

func TestBoostHoldSupported(t *testing.T) {
	for _, tc := range []struct {
		testCase  string
		release   string
		supported bool
	}{
		{
			testCase:  "Test Case 1 - Exactly 4.14",
			release:   "4.14.0",
			supported: true,
		},
		{
			testCase:  "Test Case 2 - Newer kernel",
			release:   "5.10.43-android12",
			supported: true,
		},
		{
			testCase:  "Test Case 3 - Older kernel",
			release:   "4.9.189-g7a2b3c4",
			supported: false,
		},
		{
			testCase:  "Test Case 4 - Two component release",
			release:   "4.19",
			supported: true,
		},
	} {
		t.Log(tc.testCase)

		supported, err := BoostHoldSupported(tc.release)
		require.NoError(t, err)
		assert.Equal(t, tc.supported, supported)
	}
}

func TestBoostHoldSupportedUnparsable(t *testing.T) {
	_, err := BoostHoldSupported("mystery-kernel")
	assert.Error(t, err)
}
