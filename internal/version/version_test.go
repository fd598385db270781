package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version())
	assert.Contains(t, Version(), version)
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
