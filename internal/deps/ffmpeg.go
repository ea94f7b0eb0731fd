package deps

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Version the tool is developed and tested against.
	expectedFFmpegMajor = 7
	expectedFFmpegMinor = 1
	// Oldest release known to carry every filter the pipeline needs.
	minimumFFmpegMajor = 4
)

var versionPattern = regexp.MustCompile(`ffmpeg version (\d+)\.(\d+)(?:\.(\d+))?`)

// VersionInfo describes a detected ffmpeg release.
type VersionInfo struct {
	Major      int
	Minor      int
	Patch      int
	Compatible bool
	Tested     bool
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// EngineCheck aggregates the availability of everything the pipeline needs
// from the media engine.
type EngineCheck struct {
	FFmpeg     Status
	FFprobe    Status
	Version    *VersionInfo
	HasEBUR128 bool
}

// ParseFFmpegVersion extracts version numbers from `ffmpeg -version` output.
func ParseFFmpegVersion(output string) (VersionInfo, error) {
	caps := versionPattern.FindStringSubmatch(output)
	if caps == nil {
		return VersionInfo{}, fmt.Errorf("could not parse ffmpeg version from output")
	}
	major, _ := strconv.Atoi(caps[1])
	minor, _ := strconv.Atoi(caps[2])
	patch := 0
	if caps[3] != "" {
		patch, _ = strconv.Atoi(caps[3])
	}
	return VersionInfo{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Compatible: major >= minimumFFmpegMajor,
		Tested:     major == expectedFFmpegMajor && minor == expectedFFmpegMinor,
	}, nil
}

// CheckEngine inspects the configured ffmpeg and ffprobe binaries, the ffmpeg
// version, and the availability of the ebur128 loudness filter.
func CheckEngine(ctx context.Context, ffmpegBinary, ffprobeBinary string) EngineCheck {
	check := EngineCheck{}
	statuses := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Extraction, loudness metering, encode, remux"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Stream inventory and durations"},
	})
	check.FFmpeg, check.FFprobe = statuses[0], statuses[1]

	if check.FFmpeg.Available {
		if output, err := exec.CommandContext(ctx, ffmpegBinary, "-version").Output(); err == nil {
			if info, parseErr := ParseFFmpegVersion(string(output)); parseErr == nil {
				check.Version = &info
			}
		}
		if output, err := exec.CommandContext(ctx, ffmpegBinary, "-hide_banner", "-filters").Output(); err == nil {
			check.HasEBUR128 = strings.Contains(string(output), "ebur128")
		}
	}
	return check
}

// VerifyFFmpegVersion gates a run on the tested ffmpeg release. A mismatch is
// fatal unless ignore is set.
func VerifyFFmpegVersion(ctx context.Context, ffmpegBinary string, ignore bool) error {
	if ignore {
		return nil
	}
	output, err := exec.CommandContext(ctx, ffmpegBinary, "-version").Output()
	if err != nil {
		return fmt.Errorf("run %s -version: %w", ffmpegBinary, err)
	}
	info, err := ParseFFmpegVersion(string(output))
	if err != nil {
		return fmt.Errorf("%w (use --ignore-ffmpeg-version to bypass)", err)
	}
	if info.Major != expectedFFmpegMajor || info.Minor != expectedFFmpegMinor {
		return fmt.Errorf("ffmpeg version mismatch: expected v%d.%d, found v%d.%d (use --ignore-ffmpeg-version to bypass)",
			expectedFFmpegMajor, expectedFFmpegMinor, info.Major, info.Minor)
	}
	return nil
}
