package errors

import "testing"

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"run.json", false},
		{"cleaner/function_reasoning_cleaner_steps.json", false},
		{"a..b.json", false},
		{"", true},
		{"/etc/passwd", true},
		{"../secret.json", true},
		{"sub/../../x.json", true},
		{"dir\\file.json", true},
		{"bad\x00name.json", true},
	}

	for _, tt := range tests {
		err := ValidatePath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidPath) {
			t.Errorf("ValidatePath(%q) code = %v, want %v", tt.path, GetCode(err), ErrCodeInvalidPath)
		}
	}
}

func TestValidateUploadName(t *testing.T) {
	if err := ValidateUploadName("thoughts.json"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateUploadName(""); err == nil {
		t.Error("empty name accepted")
	}
	if err := ValidateUploadName("a\nb.json"); err == nil {
		t.Error("control character accepted")
	}
}
