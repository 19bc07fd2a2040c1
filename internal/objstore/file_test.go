package objstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStore_PutExistsDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, Config{Driver: "file", BaseDir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ok, err := s.Exists(ctx, "save1.ret")
	if err != nil || ok {
		t.Fatalf("expected missing before put, ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "save1.ret", strings.NewReader("payload"), 7, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ok, _ := s.Exists(ctx, "save1.ret"); !ok {
		t.Fatalf("expected file after put")
	}
	rc, err := s.Open(ctx, "save1.ret")
	if err != nil {
		t.Fatalf("open object: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "payload" {
		t.Fatalf("unexpected content %q", b)
	}
	if err := s.Delete(ctx, "save1.ret"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "save1.ret")); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if _, err := s.Open(ctx, "save1.ret"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFileStore_KeysCannotEscapeBaseDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	base := filepath.Join(root, "uploads")
	s, err := OpenFile(ctx, Config{BaseDir: base})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "../../escape.ret", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.ret")); err != nil {
		t.Fatalf("expected key to be confined to base dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.ret")); !os.IsNotExist(err) {
		t.Fatalf("file escaped base dir")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		c     Config
		valid bool
	}{
		{Config{Driver: "file", BaseDir: "uploads"}, true},
		{Config{BaseDir: "uploads"}, true},
		{Config{Driver: "file"}, false},
		{Config{Driver: "s3"}, false},
		{Config{Driver: "s3", Bucket: "b"}, true},
		{Config{Driver: "oss", Bucket: "b", Endpoint: "e"}, false},
		{Config{Driver: "cos", Bucket: "b", Region: "r", AccessKey: "a", SecretKey: "s"}, true},
		{Config{Driver: "ftp"}, false},
	}
	for i, tc := range cases {
		err := Validate(tc.c)
		if (err == nil) != tc.valid {
			t.Fatalf("case %d: valid=%v err=%v", i, tc.valid, err)
		}
	}
}
