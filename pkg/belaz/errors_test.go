package belaz_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/belaz/pkg/belaz"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, belaz.ExitSuccess},
		{"usage sentinel", fmt.Errorf("--config_file is required: %w", belaz.ErrUsage), belaz.ExitUsageError},
		{"unknown flag", errors.New("unknown flag: --foo"), belaz.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x' in -x"), belaz.ExitUsageError},
		{"accepts args", errors.New("unknown command \"a\" for \"belaz\""), belaz.ExitUsageError},
		{"flag needs argument", errors.New("flag needs an argument: --config_file"), belaz.ExitUsageError},
		{"config error", fmt.Errorf("read config: %w", belaz.ErrInvalidConfig), belaz.ExitConfigError},
		{"auth method", fmt.Errorf("auth: %w", belaz.ErrUnsupportedAuthMethod), belaz.ExitConfigError},
		{"general error", errors.New("something went wrong"), belaz.ExitGeneralError},
		{"database error is general", belaz.ErrDatabase, belaz.ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := belaz.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
