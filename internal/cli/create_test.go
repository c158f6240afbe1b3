package cli

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/vkmsctl/pkg/errors"
)

func TestLeftovers(t *testing.T) {
	cause := stderrors.New("permission denied")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"clean rollback", errors.Wrap(errors.ErrCodeMaterializeFailed, cause, "create \"dev1\" failed"), 0},
		{"rollback failures", errors.Wrap(errors.ErrCodeMaterializeFailed, cause, "create \"dev1\" failed").
			WithDetails("rmdir vkms/dev1/crtcs/c0: busy", "rmdir vkms/dev1: busy"), 2},
		{"validation", func() error {
			verr := &errors.ValidationError{Device: "dev1"}
			verr.Add(`plane "p0"`, "possible_crtcs", "missing", "no crtc with this name in the device")
			return verr
		}(), 0},
		{"exists", errors.New(errors.ErrCodeAlreadyExists, "device %q already exists", "dev1"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(leftovers(tt.err)); got != tt.want {
				t.Errorf("len(leftovers()) = %d, want %d", got, tt.want)
			}
		})
	}
}
