package device

import (
	"context"
	"time"
)

// App identifies the foreground application.
type App struct {
	Package  string `json:"package"`
	Activity string `json:"activity"`
}

// Driver is the low-level device surface the explorer works against.
// Every call blocks until the device has executed it.
type Driver interface {
	Screenshot(ctx context.Context) ([]byte, error)
	// DumpTree returns the serialized UI hierarchy of the current screen.
	DumpTree(ctx context.Context) (string, error)
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2 int, d time.Duration) error
	PressBack(ctx context.Context) error
	WindowSize(ctx context.Context) (int, int, error)
	CurrentApp(ctx context.Context) (App, error)
}

// AppController starts and stops packages. Implemented by ADB and Fake.
type AppController interface {
	AppStart(ctx context.Context, pkg string) error
	AppStop(ctx context.Context, pkg string) error
}
