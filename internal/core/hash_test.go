package core

import "testing"

func TestContentHash(t *testing.T) {
	t.Run("known value", func(t *testing.T) {
		got := ContentHash([]byte("hi"))
		want := "j0NDRmSPa5bfid2pAcUXaxCm2Dlh3TwayItZstwyeqQ="
		if got != want {
			t.Errorf("ContentHash() = %q, want %q", got, want)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := ContentHash([]byte("hello world"))
		b := ContentHash([]byte("hello world"))
		if a != b {
			t.Errorf("same content hashed differently: %q vs %q", a, b)
		}
	})

	t.Run("distinct content distinct hash", func(t *testing.T) {
		if ContentHash([]byte("a")) == ContentHash([]byte("b")) {
			t.Error("different content produced the same hash")
		}
	})

	t.Run("fixed length", func(t *testing.T) {
		// base64 of a 32-byte digest, always 44 characters
		if got := len(ContentHash([]byte("anything"))); got != 44 {
			t.Errorf("hash length = %d, want 44", got)
		}
	})
}

func TestFileExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"a.txt", "txt"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"trailingdot.", ""},
		{"", ""},
	}

	for _, c := range cases {
		if got := fileExtension(c.filename); got != c.want {
			t.Errorf("fileExtension(%q) = %q, want %q", c.filename, got, c.want)
		}
	}
}
