package review

import (
	"path"
	"strings"
)

// DisplayDir turns a forward-slash server path into the directory an operator
// opens locally: separators become sep, root is prefixed, the file name is dropped.
func DisplayDir(processedPath, root, sep string) string {
	p := strings.TrimSpace(processedPath)
	if p == "" {
		return ""
	}
	if sep == "" {
		sep = "/"
	}

	dir := path.Dir(p)
	if dir == "." {
		dir = ""
	}
	local := strings.ReplaceAll(dir, "/", sep)
	if root == "" {
		return local
	}
	return strings.TrimRight(root, sep) + sep + strings.TrimLeft(local, sep)
}
