package analyzer

import (
	"encoding/json"
	"sort"
	"strings"
)

// ManifestPath 根据仓库主语言返回要读取的依赖清单文件，没有则返回空串
func ManifestPath(language string) string {
	switch language {
	case "JavaScript", "TypeScript":
		return "package.json"
	case "Python":
		return "requirements.txt"
	}
	return ""
}

// ParseManifest 按文件名解析依赖名
func ParseManifest(path, content string) ([]string, error) {
	switch path {
	case "package.json":
		return PackageJSONDeps(content)
	case "requirements.txt":
		return RequirementsNames(content), nil
	}
	return nil, nil
}

// PackageJSONDeps 返回 dependencies、devDependencies、peerDependencies 中的包名 (已排序)
func PackageJSONDeps(content string) ([]string, error) {
	var pkg struct {
		Dependencies     map[string]any `json:"dependencies"`
		DevDependencies  map[string]any `json:"devDependencies"`
		PeerDependencies map[string]any `json:"peerDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, deps := range []map[string]any{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		for name := range deps {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RequirementsNames 解析 requirements.txt，去掉版本约束与注释行
func RequirementsNames(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, sep := range []string{"==", ">=", "<="} {
			line, _, _ = strings.Cut(line, sep)
		}
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
