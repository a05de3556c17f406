package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/matzehuels/reefgrid/pkg/render/sink"
)

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string // source path, used to derive output names
	output    string // -o value; a file for one format, a base path for several
	suffix    string // appended to derived names, e.g. "_collapsed"
	copy      bool   // put the first text artifact on the clipboard
}

// writeArtifacts writes one file per format and prints each path.
func writeArtifacts(p artifactWriteParams) error {
	paths := outputPaths(p.output, p.input, p.suffix, p.formats)
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return fmt.Errorf("no %s artifact rendered", format)
		}
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	if p.copy {
		return copyArtifact(p.artifacts, p.formats)
	}
	return nil
}

// copyArtifact puts the first SVG or JSON artifact on the system clipboard.
func copyArtifact(artifacts map[string][]byte, formats []string) error {
	for _, f := range formats {
		if f == "png" {
			continue
		}
		if clipboard.Unsupported {
			printWarning("clipboard not available on this system")
			return nil
		}
		if err := clipboard.WriteAll(string(artifacts[f])); err != nil {
			return fmt.Errorf("copy %s to clipboard: %w", f, err)
		}
		printDetail("copied %s to clipboard", f)
		return nil
	}
	printWarning("--copy needs an svg or json format")
	return nil
}

// outputPaths maps each format to a file path. A single format with an
// explicit -o uses it verbatim; otherwise the base name gets the format's
// extension.
func outputPaths(output, input, suffix string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input) + suffix
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath strips a known format extension from output, or derives a
// name from input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if slices.Contains(sink.Formats, ext) {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}
