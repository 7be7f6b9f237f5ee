package validation

import "testing"

func TestIsSlug(t *testing.T) {
	valid := []string{"a", "hello-world", "chapter-101", "a-b-c"}
	for _, s := range valid {
		if !IsSlug(s) {
			t.Errorf("IsSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "Hello-World", "double--hyphen", "-leading", "trailing-", "with space", "unicode-é"}
	for _, s := range invalid {
		if IsSlug(s) {
			t.Errorf("IsSlug(%q) = true, want false", s)
		}
	}
}

func TestIsUsername(t *testing.T) {
	valid := []string{"abc", "reader_01", "SomeUser"}
	for _, s := range valid {
		if !IsUsername(s) {
			t.Errorf("IsUsername(%q) = false, want true", s)
		}
	}

	invalid := []string{"ab", "has space", "dash-ed", "waytoolongusernameexceedingthirtychars"}
	for _, s := range invalid {
		if IsUsername(s) {
			t.Errorf("IsUsername(%q) = true, want false", s)
		}
	}
}

func TestObjectID(t *testing.T) {
	if _, err := ObjectID("507f1f77bcf86cd799439011"); err != nil {
		t.Errorf("valid hex rejected: %v", err)
	}
	if _, err := ObjectID("nope"); err == nil {
		t.Error("invalid hex accepted")
	}
}
