package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProcessedMarker is inserted before the extension when the output would
// otherwise share the source's name.
const ProcessedMarker = "[processed]"

// maxNameAttempts bounds AvailableOutputPath's marker chain.
const maxNameAttempts = 100

// OutputName swaps the extension of source for ext. When the source already
// has that extension (case-insensitive) the processed marker is inserted
// before it instead, so the source is never the destination.
func OutputName(source, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	dir := filepath.Dir(source)
	base := filepath.Base(source)
	cur := filepath.Ext(base)
	stem := strings.TrimSuffix(base, cur)
	if strings.ToLower(strings.TrimPrefix(cur, ".")) == ext {
		stem += ProcessedMarker
	}
	return filepath.Join(dir, stem+"."+ext)
}

// AvailableOutputPath returns the first OutputName candidate that exists
// reports as free, feeding each taken candidate back through OutputName.
// A nil exists uses the file system.
func AvailableOutputPath(source, ext string, exists func(string) bool) (string, error) {
	if exists == nil {
		exists = fileExists
	}
	candidate := OutputName(source, ext)
	for i := 0; i < maxNameAttempts; i++ {
		if !exists(candidate) {
			return candidate, nil
		}
		candidate = OutputName(candidate, ext)
	}
	return "", fmt.Errorf("no free output name for %q after %d attempts", source, maxNameAttempts)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
