package vectorstore

import "testing"

func TestSaveResult_String(t *testing.T) {
	tests := map[SaveResult]string{
		Inserted: "inserted",
		Updated:  "updated",
		Skipped:  "skipped",
	}
	for result, want := range tests {
		if got := result.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
