package csrf

import "testing"

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t1, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	t2, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if t1 == "" || t2 == "" {
		t.Fatal("expected non-empty tokens")
	}
	if t1 == t2 {
		t.Fatal("two generated tokens must not collide")
	}
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		submitted string
		stored    string
		want      bool
	}{
		{"both empty", "", "", false},
		{"empty submitted", "", "x", false},
		{"empty stored", "x", "", false},
		{"mismatch", "x", "y", false},
		{"different length", "x", "xx", false},
		{"match", "x", "x", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ValidateToken(tt.submitted, tt.stored); got != tt.want {
				t.Fatalf("ValidateToken(%q, %q) = %v, want %v", tt.submitted, tt.stored, got, tt.want)
			}
		})
	}
}

func TestValidateToken_GeneratedRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if !ValidateToken(token, token) {
		t.Fatal("a generated token must validate against itself")
	}
}
