package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "dev1", false},
		{"valid with dash", "plane-0", false},
		{"valid with underscore", "crtc_0", false},
		{"valid with dot", "enc.0", false},
		{"valid with space", "hdmi a", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 256), true},
		{"dot", ".", true},
		{"dot dot", "..", true},
		{"slash", "a/b", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
		{"unicode", "plané", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestViolationString(t *testing.T) {
	tests := []struct {
		name string
		v    Violation
		want string
	}{
		{
			name: "full",
			v:    Violation{Entity: `plane "p0"`, Field: "possible_crtcs", Value: "missing", Reason: "no such crtc"},
			want: `plane "p0": possible_crtcs "missing": no such crtc`,
		},
		{
			name: "entity only",
			v:    Violation{Entity: `device ""`, Reason: "name cannot be empty"},
			want: `device "": name cannot be empty`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationErrorErrOrNil(t *testing.T) {
	verr := &ValidationError{Device: "dev1"}
	if verr.ErrOrNil() != nil {
		t.Error("ErrOrNil() should be nil without violations")
	}

	verr.Add(`crtc "c0"`, "name", "c0", "duplicate name")
	verr.Add(`crtc "c1"`, "name", "c1", "duplicate name")
	err := verr.ErrOrNil()
	if err == nil {
		t.Fatal("ErrOrNil() should return the error once violations exist")
	}
	if !strings.Contains(err.Error(), "2 violation(s)") {
		t.Errorf("Error() should report every violation, got %q", err.Error())
	}
}
