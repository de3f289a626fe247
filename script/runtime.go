package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wesleyorama2/minigun/http"
)

// Runtime is a JavaScript VM with the minigun global installed.
// A Runtime is not safe for concurrent use; the *http.Client it wraps is, so
// several Runtimes may share one client.
type Runtime struct {
	vm      *goja.Runtime
	client  *http.Client
	stdout  io.Writer
	logger  *zap.Logger
	timeout time.Duration

	// ctx of the Run in progress, used by the request functions
	ctx context.Context
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithStdout sets where console output goes. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) {
		r.stdout = w
	}
}

// WithLogger sets the logger for script lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTimeout interrupts scripts that run longer than d. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// New creates a runtime whose minigun functions execute on client. A nil
// client means http.Default().
func New(client *http.Client, opts ...Option) *Runtime {
	if client == nil {
		client = http.Default()
	}
	r := &Runtime{
		vm:     goja.New(),
		client: client,
		stdout: os.Stdout,
		logger: zap.NewNop(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("console", r.newConsole())
	r.vm.Set("minigun", r.newModule())
	return r
}

// Run compiles and runs src. The script's completion value is exported to Go.
// A cancelled ctx or an expired timeout interrupts the script and aborts any
// request in flight.
func (r *Runtime) Run(ctx context.Context, name, src string) (any, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	r.vm.ClearInterrupt()
	r.ctx = ctx
	defer func() { r.ctx = context.Background() }()

	// The watcher must be gone before Run returns, or a late Interrupt could
	// hit the next script.
	done := make(chan struct{})
	stopped := make(chan struct{})
	defer func() {
		close(done)
		<-stopped
	}()
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	start := time.Now()
	val, err := r.vm.RunProgram(prog)
	r.logger.Debug("script finished",
		zap.String("script", name),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return nil, fmt.Errorf("run %s: interrupted: %w", name, cause)
			}
		}
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	if val == nil {
		return nil, nil
	}
	return val.Export(), nil
}

func (r *Runtime) newConsole() *goja.Object {
	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		console.Set(level, r.consoleFunc(level))
	}
	return console
}

func (r *Runtime) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		line := strings.Join(parts, " ")
		if level == "warn" || level == "error" {
			line = strings.ToUpper(level) + ": " + line
		}
		fmt.Fprintln(r.stdout, line)
		return goja.Undefined()
	}
}
