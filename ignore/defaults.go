package ignore

// DefaultIgnorePatterns contains paths a Unity project never needs scanned:
// editor-generated caches, IDE state and OS litter. Asset
// files themselves (textures, audio) are not listed because their .meta
// sidecars must still be read.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",
	".plastic",

	// Unity generated folders
	"Library",
	"Temp",
	"Logs",
	"obj",
	"UserSettings",
	"MemoryCaptures",

	// IDE / Editor
	".idea",
	".vscode",
	".vs",
	".gradle",
	"*.swp",
	"*~",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}

// BinaryAssetPatterns lists asset types whose content is never searched by the
// in-memory index. Their sidecars are still indexed.
var BinaryAssetPatterns = []string{
	// Images
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.tga", "*.tif", "*.tiff", "*.psd", "*.exr", "*.hdr",

	// Audio / Video
	"*.wav", "*.mp3", "*.ogg", "*.aif", "*.aiff", "*.mp4", "*.mov", "*.webm",

	// Models
	"*.fbx", "*.obj", "*.blend", "*.max", "*.ma", "*.mb", "*.3ds", "*.dae",

	// Fonts
	"*.ttf", "*.otf",

	// Compiled code and archives
	"*.dll", "*.so", "*.dylib", "*.a", "*.zip", "*.unitypackage",
}
