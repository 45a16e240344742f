package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveFFprobe picks the ffprobe that belongs to the configured ffmpeg.
//
// Static ffmpeg builds ship ffprobe in the same directory, and mixing a
// distro ffprobe with a custom ffmpeg gives mismatched stream reports. When
// ffprobe is left at its bare default name and a sibling exists next to the
// resolved ffmpeg, the sibling wins. An explicit ffprobe path is returned
// unchanged.
func ResolveFFprobe(ffmpegCommand, ffprobeCommand string) string {
	ffprobeCommand = strings.TrimSpace(ffprobeCommand)
	if ffprobeCommand == "" {
		ffprobeCommand = "ffprobe"
	}
	if strings.ContainsRune(ffprobeCommand, filepath.Separator) {
		return ffprobeCommand
	}
	ffmpegCommand = strings.TrimSpace(ffmpegCommand)
	if ffmpegCommand == "" {
		return ffprobeCommand
	}
	resolved, err := exec.LookPath(ffmpegCommand)
	if err != nil {
		return ffprobeCommand
	}
	candidate := filepath.Join(filepath.Dir(resolved), ffprobeCommand)
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return ffprobeCommand
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
