// Package video inspects video files with the ffprobe and ffmpeg command
// line tools.
//
// Both tools are optional. When a binary cannot be found the Prober
// reports itself unavailable and callers fall back to extension and
// content sniffing.
//
// # Probing
//
// Probe runs ffprobe with JSON output and returns the first video
// stream's codec and dimensions plus the container duration:
//
//	info, err := prober.Probe(ctx, "/media/clip.mp4")
//	if err == nil && !video.IsCompatibleCodec(info.Codec) { ... }
//
// # Poster frames
//
// PosterFrame extracts a single frame one second into the video (falling
// back to the first frame for shorter clips) as a decoded image.
package video
