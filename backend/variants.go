package backend

import (
	"runtime"

	"github.com/lexandro/refviewer-mcp/refs"
)

// SpotlightAdvisory is attached to results produced through the desktop
// content index, which silently skips files it has not indexed.
const SpotlightAdvisory = "Spotlight only reports files it has already indexed. " +
	"Recently changed files, files in hidden folders, and folders excluded in the Spotlight " +
	"privacy settings are missing from the results. Use the grep or gitgrep backend for a complete scan."

// IndexAdvisory is attached to results produced by the in-memory index.
const IndexAdvisory = "The in-memory index matches whole tokens only and skips binary and oversized files."

// Descriptors returns the process-based backends in preference order.
func Descriptors() []Descriptor {
	return []Descriptor{
		grepDescriptor(),
		gitGrepDescriptor(),
		spotlightDescriptor(),
		findStrDescriptor(),
	}
}

func grepDescriptor() Descriptor {
	return Descriptor{
		Variant:     ContentGrep,
		Description: "recursive grep over the asset folder",
		Command:     "grep",
		Separator:   "\x00",
		Arguments: func(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
			args := []string{"-r", "-l", "--null", "-F"}
			for _, extension := range rules.ExcludedExtensions {
				args = append(args, "--exclude=*"+extension)
			}
			for _, filename := range rules.ExcludedFilenames {
				args = append(args, "--exclude="+filename)
			}
			return append(args, "-e", identifier, searchRoot)
		},
	}
}

func spotlightDescriptor() Descriptor {
	return Descriptor{
		Variant:     FilesystemIndexSearch,
		Description: "macOS Spotlight content index",
		Command:     "mdfind",
		Separator:   "\x00",
		Advisory:    SpotlightAdvisory,
		Arguments: func(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
			return []string{"-onlyin", searchRoot, "-0", identifier}
		},
	}
}

func gitGrepDescriptor() Descriptor {
	return Descriptor{
		Variant:     VersionControlGrep,
		Description: "git grep over tracked files",
		Command:     "git",
		Separator:   "\x00",
		Arguments: func(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
			args := []string{"-C", searchRoot, "grep", "-z", "-l", "-F", "-e", identifier}
			if len(rules.ExcludedExtensions) == 0 {
				return args
			}
			args = append(args, "--", ".")
			for _, extension := range rules.ExcludedExtensions {
				args = append(args, ":(exclude)*"+extension)
			}
			return args
		},
	}
}

func findStrDescriptor() Descriptor {
	return Descriptor{
		Variant:     PlatformFileSearch,
		Description: "Windows findstr over the asset folder",
		Command:     "findstr",
		Separator:   lineSeparator(),
		Arguments: func(identifier string, searchRoot string, rules refs.ExclusionRules) []string {
			return []string{"/M", "/S", "/L", "/C:" + identifier, "*"}
		},
	}
}

func lineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}
