package doctype

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"conversational", Conversational, false},
		{"reference", Reference, false},
		{"other", Other, false},
		{"", Other, false},
		{"email", "", true},
		{"CONVERSATIONAL", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsConversational(t *testing.T) {
	if !Conversational.IsConversational() {
		t.Error("Conversational should be conversational")
	}
	if Reference.IsConversational() {
		t.Error("Reference should not be conversational")
	}
	if Other.IsConversational() {
		t.Error("Other should not be conversational")
	}
}
