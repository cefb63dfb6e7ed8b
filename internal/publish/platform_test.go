package publish

import (
	"testing"

	"github.com/Kavex/Third3D-uploader/internal/archive"
	"github.com/stretchr/testify/assert"
)

func TestPlatformToken(t *testing.T) {
	assert.Equal(t, "standalonewindows", platformToken(archive.PlatformWindows))
	assert.Equal(t, "android", platformToken(archive.PlatformAndroid))
	assert.Equal(t, "ios", platformToken(archive.PlatformIOS))
}
