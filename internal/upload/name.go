package upload

import "strings"

var assetNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"#", "",
	"%", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// AssetName makes name safe to use as a single path segment on the backend.
// Separators become dashes, characters with URL or shell meaning are dropped,
// and control characters are removed. An empty result is returned as-is so the
// backend can reject it.
func AssetName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, assetNameReplacer.Replace(name))
	name = strings.Trim(strings.TrimSpace(name), ".")
	return name
}
