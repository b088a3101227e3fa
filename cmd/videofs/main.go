// Command videofs mounts a video file as a FUSE tree of decoded, transformed,
// and encoded frame images.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strconv"

	"github.com/jacobsa/daemonize"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"

	"github.com/frameloop/videofs/internal/cache"
	"github.com/frameloop/videofs/internal/codec"
	"github.com/frameloop/videofs/internal/fs"
	"github.com/frameloop/videofs/internal/logger"
	"github.com/frameloop/videofs/internal/nodes"
	"github.com/frameloop/videofs/internal/viewfs"
)

// exitInvalidVideoPath is the documented exit code for an invalid video
// path argument.
const exitInvalidVideoPath = 10

// inBackgroundEnvVar distinguishes a daemonized child invocation from the
// user's original foreground invocation.
const inBackgroundEnvVar = "VIDEOFS_IN_BACKGROUND"

var (
	foreground bool
	logfile    string
)

func main() {
	root := &cobra.Command{
		Use:           "videofs <video-path> <mount-path>",
		Short:         "Mount a video's frames as a browsable image tree",
		Args:          cobra.ExactArgs(2),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().BoolVar(&foreground, "foreground", false, "run attached to the controlling terminal instead of detaching")
	root.Flags().StringVar(&logfile, "logfile", "", "when backgrounded, redirect stdout/stderr to this path (mutually exclusive with --foreground)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	videoPath, mountPath := args[0], args[1]

	if foreground && logfile != "" {
		return fmt.Errorf("--foreground and --logfile are mutually exclusive")
	}

	if _, err := os.Stat(videoPath); err != nil {
		fmt.Fprintf(os.Stderr, "invalid video path %q: %v\n", videoPath, err)
		os.Exit(exitInvalidVideoPath)
	}

	inBackground := os.Getenv(inBackgroundEnvVar) != ""

	logOut := io.Writer(os.Stderr)
	if inBackground && logfile != "" {
		f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening logfile: %w", err)
		}
		os.Stdout = f
		os.Stderr = f
		logOut = f
	}
	logger.Init(logOut)

	if !foreground && !inBackground {
		return daemonizeSelf()
	}

	if err := os.MkdirAll(mountPath, 0o755); err != nil {
		return fmt.Errorf("creating mount directory: %w", err)
	}

	return mount(videoPath, mountPath, inBackground)
}

// daemonizeSelf re-execs the current binary detached from the terminal via
// github.com/jacobsa/daemonize, which blocks until the child reports its
// mount outcome through SignalOutcome.
func daemonizeSelf() error {
	self, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	env := []string{
		fmt.Sprintf("PATH=%s", os.Getenv("PATH")),
		fmt.Sprintf("VIDEOFS_LOG_LEVEL=%s", os.Getenv("VIDEOFS_LOG_LEVEL")),
		fmt.Sprintf("%s=true", inBackgroundEnvVar),
	}

	return daemonize.Run(self, os.Args[1:], env, os.Stdout, os.Stderr)
}

func mount(videoPath, mountPath string, inBackground bool) error {
	signalOutcome := func(err error) {
		if !inBackground {
			return
		}
		if err2 := daemonize.SignalOutcome(err); err2 != nil {
			logger.Errorf("signaling mount outcome to parent: %v", err2)
		}
	}

	codecImpl := codec.NewFFmpegCodec()

	frameCount, err := codecImpl.FrameCount(videoPath)
	if err != nil {
		err = fmt.Errorf("reading frame count: %w", err)
		signalOutcome(err)
		return err
	}

	uid, gid, err := currentIds()
	if err != nil {
		err = fmt.Errorf("resolving current uid/gid: %w", err)
		signalOutcome(err)
		return err
	}

	store := nodes.NewStore(uid, gid)
	matrices := cache.NewMatrixCache()
	images := cache.NewImageCache()
	builders := viewfs.StandardBuilders(codecImpl, matrices, logger.Default())

	viewfs.BuildRootTree(store, videoPath, frameCount, builders, images, logger.Default())

	server := fs.NewServer(store, timeutil.RealClock())

	cfg := &fuse.MountConfig{
		FSName:                  "video-fuse-system",
		DisableWritebackCaching: true,
		ErrorLogger:             logger.StdError(),
	}

	mfs, err := fuse.Mount(mountPath, server, cfg)
	if err != nil {
		err = fmt.Errorf("mount: %w", err)
		signalOutcome(err)
		return err
	}

	logger.Infof("mounted %s at %s (%d frames)", videoPath, mountPath, frameCount)
	signalOutcome(nil)

	return mfs.Join(context.Background())
}

func currentIds() (uint32, uint32, error) {
	u, err := user.Current()
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(uid), uint32(gid), nil
}
