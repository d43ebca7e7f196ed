package main

import "testing"

func TestParseBox(t *testing.T) {
	from, to, err := parseBox(" 500, 400,100 ,100")
	if err != nil {
		t.Fatalf("parseBox failed: %v", err)
	}
	if from.X != 500 || from.Y != 400 || to.X != 100 || to.Y != 100 {
		t.Errorf("Unexpected corners %v %v", from, to)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,3,4,5"} {
		if _, _, err := parseBox(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
