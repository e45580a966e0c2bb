package cmd

import (
	"io"
	"os"
	"strings"
	"testing"
)

// execute runs the command tree with args and captures error output.
// Cobra writes usage messages to the out stream and error messages to
// the err stream, so both are captured into the same buffer.
// REWIND_DEPLOY_DIR is deliberately left unset in these tests: reaching
// config load would panic, so a clean error return proves the command
// failed before any configuration or IO was attempted.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	if os.Getenv("REWIND_DEPLOY_DIR") != "" {
		t.Setenv("REWIND_DEPLOY_DIR", "")
	}

	var errBuf strings.Builder
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&errBuf)
	root.SetErr(&errBuf)

	err := root.Execute()
	return errBuf.String(), err
}

func TestRollbackWrongArity(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no args", args: []string{"rollback"}},
		{name: "one arg", args: []string{"rollback", "abcd123"}},
		{name: "three args", args: []string{"rollback", "abcd123", "example.com", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stderr, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an arity error")
			}
			if !strings.Contains(stderr, "Usage:") {
				t.Errorf("arity errors must print usage, got:\n%s", stderr)
			}
		})
	}
}

func TestRollbackRejectsMalformedVersionID(t *testing.T) {
	stderr, err := execute(t, "rollback", "abcd 123", "example.com")
	if err == nil {
		t.Fatal("expected a version id error")
	}
	if !strings.Contains(err.Error(), "alphanumeric") {
		t.Errorf("err = %v", err)
	}
	// Runtime errors must not re-print usage.
	if strings.Contains(stderr, "Usage:") {
		t.Errorf("runtime error re-printed usage:\n%s", stderr)
	}
}

func TestServeRejectsArgs(t *testing.T) {
	if _, err := execute(t, "serve", "extra"); err == nil {
		t.Fatal("expected an arity error")
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "restore"); err == nil {
		t.Fatal("expected an unknown command error")
	}
}

func TestVersion(t *testing.T) {
	root := NewRootCmd()
	var out strings.Builder
	root.SetArgs([]string{"version"})
	root.SetOut(&out)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "rewind ") {
		t.Errorf("output = %q", out.String())
	}
}
