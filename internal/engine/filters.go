package engine

import (
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Directories pruned when default excludes are on: VCS metadata, dependency
// trees and build output.
var defaultExcludeDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"bin":          true,
	"obj":          true,
	"coverage":     true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// Base-name patterns for files that hold no human-written text. Archives are
// listed here and reached through scan --archives instead.
var defaultExcludeFiles = []string{
	"*.lock", "go.sum", "package-lock.json", "pnpm-lock.yaml", ".ds_store",
	"*.min.{js,css}", "*.map",
	"*.{png,jpg,jpeg,gif,webp,bmp,ico,svg}",
	"*.{mp3,mp4,wav,ogg,mov,avi,webm}",
	"*.{ttf,otf,woff,woff2,eot}",
	"*.{zip,gz,tgz,tar,7z,rar,jar}",
	"*.{exe,dll,so,dylib,class,pyc,wasm,o,a}",
	"*.{db,sqlite,bolt}",
	"*.pdf",
}

// State files written by wordsift itself; never scanned.
var stateFiles = map[string]bool{
	".wordsiftcache.json":      true,
	".wordsift_last_scan.json": true,
	".wordsift_audit.jsonl":    true,
	"wordsift.baseline.json":   true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isStateFile(name string) bool { return stateFiles[name] }

// isDefaultFileExcluded matches the base name of a lower-cased,
// slash-separated path against defaultExcludeFiles.
func isDefaultFileExcluded(lowerRel string) bool {
	base := path.Base(lowerRel)
	for _, pat := range defaultExcludeFiles {
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}
