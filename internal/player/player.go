// Package player launches mpv against resolved stream URLs. The hosts check
// Referer and User-Agent on the media request, so both are forwarded as mpv
// options.
package player

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/np4abdou/gocenima/internal/util"
)

// StreamRequest carries everything needed to start playback.
type StreamRequest struct {
	VideoURL  string
	Referer   string
	UserAgent string
	Title     string
}

// Play blocks until mpv exits.
func Play(req StreamRequest) error {
	if req.VideoURL == "" {
		return errors.New("no video URL to play")
	}

	mpvPath, err := exec.LookPath("mpv")
	if err != nil {
		return errors.Wrap(err, "mpv not found in PATH, install mpv to play streams")
	}

	args := []string{
		req.VideoURL,
		"--vo=gpu",
		"--hwdec=auto-safe",
		"--cache=yes",
		"--x11-bypass-compositor=no",
	}
	if req.Referer != "" {
		args = append(args, "--referrer="+req.Referer)
	}
	if req.UserAgent != "" {
		args = append(args, "--user-agent="+req.UserAgent)
	}
	if req.Title != "" {
		args = append(args, "--force-media-title="+req.Title)
	}

	util.Debug("starting mpv", "url", req.VideoURL, "referer", req.Referer)

	cmd := exec.Command(mpvPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "mpv exited with an error")
	}
	return nil
}
