// Package ffmpeg is the single translation layer between the pipeline and the
// ffmpeg binary. Each exported method corresponds to one engine request shape
// (extract, adjust, concat, encode, remux, loudness metering); nothing outside
// this package assembles raw ffmpeg arguments.
package ffmpeg
