package ioc

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{"8.8.8.8", KindIP},
		{"255.255.255.255", KindIP},
		{"0.0.0.0", KindIP},
		{"192.168.1.100", KindIP},
		{"256.1.1.1", KindUnknown},
		{"1.2.3", KindUnknown},
		{"evil.example.com", KindDomain},
		{"example.com", KindDomain},
		{"sub-domain.example.co.uk", KindDomain},
		{"-leading.example.com", KindUnknown},
		{"5d41402abc4b2a76b9719d911017c592", KindMD5},
		{"aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", KindSHA1},
		{"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", KindSHA256},
		{"analyst@example.com", KindEmail},
		{"first.last+tag@sub.example.org", KindEmail},
		{"http://evil.example.com/payload.exe", KindURL},
		{"https://example.com", KindURL},
		{"ftp://example.com", KindUnknown},
		{"http://has space.com", KindUnknown},
		{"not a valid indicator!!", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.raw); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestClassify_HexNotDomain(t *testing.T) {
	// A 32-hex-digit string has no dot so the domain pattern cannot claim it,
	// but the fixed ordering guards this anyway.
	if got := Classify("5d41402abc4b2a76b9719d911017c592"); got != KindMD5 {
		t.Fatalf("hex string classified as %q, want md5", got)
	}
}

func TestNew(t *testing.T) {
	ind := New("8.8.8.8")
	if ind.Value != "8.8.8.8" || ind.Kind != KindIP {
		t.Errorf("New = %+v", ind)
	}
}

func TestKindIsHash(t *testing.T) {
	for _, k := range []Kind{KindMD5, KindSHA1, KindSHA256} {
		if !k.IsHash() {
			t.Errorf("%q should be a hash kind", k)
		}
	}
	for _, k := range []Kind{KindIP, KindDomain, KindEmail, KindURL, KindUnknown} {
		if k.IsHash() {
			t.Errorf("%q should not be a hash kind", k)
		}
	}
}
