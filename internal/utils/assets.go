package utils

import "strings"

// ParseAssetList reads a comma separated asset list such as "IWDA.L, AGG,GLD".
// Names are trimmed, blanks are skipped and a repeated name keeps its first
// position. An empty list is nil, which callers read as "every asset".
func ParseAssetList(s string) []string {
	var assets []string
	seen := make(map[string]bool)
	for _, field := range strings.Split(s, ",") {
		asset := strings.TrimSpace(field)
		if asset == "" || seen[asset] {
			continue
		}
		seen[asset] = true
		assets = append(assets, asset)
	}
	return assets
}
