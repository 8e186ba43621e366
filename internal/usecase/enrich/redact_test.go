package enrich

import "testing"

func TestRedactPII(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "email", in: "write to jane.doe+x@mail.example.com today", want: "write to [email removed] today"},
		{name: "dashed phone", in: "call 555-123-4567", want: "call [phone removed]"},
		{name: "dotted phone", in: "call 555.123.4567", want: "call [phone removed]"},
		{name: "bare phone", in: "call 5551234567 now", want: "call [phone removed] now"},
		{name: "both", in: "a@b.io or 555-123-4567", want: "[email removed] or [phone removed]"},
		{name: "short number kept", in: "I have 3 cats and 12 plants", want: "I have 3 cats and 12 plants"},
		{name: "clean", in: "I love hiking", want: "I love hiking"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactPII(tt.in); got != tt.want {
				t.Errorf("RedactPII(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
