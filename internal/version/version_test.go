package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	v := Current()
	assert.Equal(t, Build, v.Build)
	assert.Equal(t, "v0.0.0 (dev, "+runtime.Version()+")", v.String())
}
