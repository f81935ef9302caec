package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Runner executes adb with the given arguments and returns stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// ADB drives an Android device through the adb command line tool.
type ADB struct {
	Serial string
	run    Runner
}

const remoteDumpPath = "/sdcard/window_dump.xml"

var (
	reSize    = regexp.MustCompile(`(Physical|Override) size:\s*(\d+)x(\d+)`)
	reFocus   = regexp.MustCompile(`mCurrentFocus=Window\{[^}]*\s([\w.]+)/([\w.$]+)\}`)
	reFocusNA = regexp.MustCompile(`mFocusedApp=.*\s([\w.]+)/([\w.$]+)`)
)

// NewADB returns a driver bound to serial. An empty adbPath resolves "adb"
// from PATH.
func NewADB(adbPath, serial string) *ADB {
	bin := strings.TrimSpace(adbPath)
	if bin == "" {
		bin = "adb"
	}
	return &ADB{Serial: strings.TrimSpace(serial), run: execRunner(bin)}
}

// NewADBWithRunner is used by tests to replace process execution.
func NewADBWithRunner(serial string, run Runner) *ADB {
	return &ADB{Serial: serial, run: run}
}

func execRunner(bin string) Runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, bin, args...)
		cmd.Env = os.Environ()
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return stdout.Bytes(), fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
			}
			return stdout.Bytes(), fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return stdout.Bytes(), nil
	}
}

func (a *ADB) exec(ctx context.Context, args ...string) ([]byte, error) {
	if a == nil || a.run == nil {
		return nil, errors.New("device: adb driver is nil")
	}
	if a.Serial != "" {
		args = append([]string{"-s", a.Serial}, args...)
	}
	return a.run(ctx, args...)
}

func (a *ADB) shell(ctx context.Context, args ...string) ([]byte, error) {
	return a.exec(ctx, append([]string{"shell"}, args...)...)
}

func (a *ADB) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := a.exec(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("device: empty screenshot")
	}
	return out, nil
}

func (a *ADB) DumpTree(ctx context.Context) (string, error) {
	if _, err := a.shell(ctx, "uiautomator", "dump", remoteDumpPath); err != nil {
		return "", err
	}
	out, err := a.exec(ctx, "exec-out", "cat", remoteDumpPath)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (a *ADB) Tap(ctx context.Context, x, y int) error {
	_, err := a.shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

func (a *ADB) Swipe(ctx context.Context, x1, y1, x2, y2 int, d time.Duration) error {
	ms := d.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	_, err := a.shell(ctx, "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2),
		strconv.FormatInt(ms, 10))
	return err
}

func (a *ADB) PressBack(ctx context.Context) error {
	_, err := a.shell(ctx, "input", "keyevent", "4")
	return err
}

// WindowSize prefers the override size reported by wm, which is what input
// coordinates are interpreted against.
func (a *ADB) WindowSize(ctx context.Context) (int, int, error) {
	out, err := a.shell(ctx, "wm", "size")
	if err != nil {
		return 0, 0, err
	}
	return parseWMSize(string(out))
}

func parseWMSize(out string) (int, int, error) {
	var w, h int
	for _, m := range reSize.FindAllStringSubmatch(out, -1) {
		pw, _ := strconv.Atoi(m[2])
		ph, _ := strconv.Atoi(m[3])
		if m[1] == "Override" || w == 0 {
			w, h = pw, ph
		}
	}
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("device: cannot parse window size from %q", strings.TrimSpace(out))
	}
	return w, h, nil
}

func (a *ADB) CurrentApp(ctx context.Context) (App, error) {
	out, err := a.shell(ctx, "dumpsys", "window")
	if err != nil {
		return App{}, err
	}
	return parseFocus(string(out))
}

func parseFocus(out string) (App, error) {
	if m := reFocus.FindStringSubmatch(out); m != nil {
		return App{Package: m[1], Activity: m[2]}, nil
	}
	if m := reFocusNA.FindStringSubmatch(out); m != nil {
		return App{Package: m[1], Activity: m[2]}, nil
	}
	return App{}, errors.New("device: no focused window")
}

func (a *ADB) AppStart(ctx context.Context, pkg string) error {
	_, err := a.shell(ctx, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	return err
}

func (a *ADB) AppStop(ctx context.Context, pkg string) error {
	_, err := a.shell(ctx, "am", "force-stop", pkg)
	return err
}
