package transform

import "strings"

// Asset turns root-relative references into emitted assets into
// same-directory references by removing base + assetsDir + "/" wherever it
// occurs. Non-executable assets (stylesheets, manifests) only reference other
// emitted assets, which all live in the assets directory, so a plain string
// replacement is exact. Content that mentions base but never the assets
// prefix breaks that assumption and is reported as an *InvariantViolation.
func Asset(content, base, assetsDir string) (string, error) {
	assetsPrefix := AssetsPrefix(base, assetsDir)

	if !strings.Contains(content, assetsPrefix) {
		if strings.Contains(content, base) {
			return "", NewInvariantViolation(base, assetsPrefix)
		}
		return content, nil
	}

	return strings.ReplaceAll(content, assetsPrefix, ""), nil
}

// AssetsPrefix joins base and the assets directory into the prefix every
// emitted asset URL starts with
func AssetsPrefix(base, assetsDir string) string {
	dir := strings.Trim(assetsDir, "/")
	if dir == "" {
		return base
	}
	return base + dir + "/"
}
