package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"webmc/internal/util"
)

var versionRe = regexp.MustCompile(`version\s+(\S+)`)

// FindFFmpeg returns the path to ffmpeg. A non-empty customPath is tried as a
// file first, then looked up in PATH.
func FindFFmpeg(customPath string) (string, error) {
	return find("ffmpeg", customPath)
}

// FindFFprobe returns the path to ffprobe, with the same lookup as FindFFmpeg.
func FindFFprobe(customPath string) (string, error) {
	return find("ffprobe", customPath)
}

func find(name, customPath string) (string, error) {
	if customPath != "" {
		if fi, err := os.Stat(customPath); err == nil && !fi.IsDir() {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s at %q", name, customPath)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s in PATH. Please install ffmpeg.", name)
}

// Version runs "<bin> -version" and returns the token after "version" on the
// first line, or "unknown" when the banner has no such token.
func Version(ctx context.Context, runner util.CmdRunner, bin string) (string, error) {
	res, err := runner.Run(ctx, util.CmdSpec{Path: bin, Args: []string{"-version"}, CaptureStdout: true})
	if err != nil {
		return "", err
	}
	return ParseVersion(string(res.Stdout)), nil
}

// ParseVersion extracts the version token from a -version banner.
func ParseVersion(banner string) string {
	first, _, _ := strings.Cut(banner, "\n")
	if m := versionRe.FindStringSubmatch(first); m != nil {
		return m[1]
	}
	return "unknown"
}
