package publish

import "github.com/Kavex/Third3D-uploader/internal/archive"

// platformToken maps a manifest platform key to the Service's platform
// identifier, per spec §4.6 step 5.
func platformToken(p archive.Platform) string {
	switch p {
	case archive.PlatformWindows:
		return "standalonewindows"
	case archive.PlatformAndroid:
		return "android"
	case archive.PlatformIOS:
		return "ios"
	default:
		return string(p)
	}
}
