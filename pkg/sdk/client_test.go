package sdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newHub(t *testing.T) (*Client, *[]string) {
	t.Helper()
	var uploads []string
	mux := http.NewServeMux()
	mux.HandleFunc("/upload.php", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("fileToUpload")
		if err != nil {
			http.Error(w, "missing", http.StatusBadRequest)
			return
		}
		defer f.Close()
		if r.FormValue("submit") != "send" {
			http.Error(w, "no submit", http.StatusBadRequest)
			return
		}
		if filepath.Ext(hdr.Filename) != ".ret" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = io.WriteString(w, "Sorry, only KeeperRL files are allowed.")
			return
		}
		uploads = append(uploads, hdr.Filename)
	})
	mux.HandleFunc("/get_games.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("version") != "3" {
			return
		}
		_, _ = io.WriteString(w, "save1.ret,Keeper%2C the Bold,3,1700000000,1,4\n")
	})
	mux.HandleFunc("/get_messages.php", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Cid,beware%2C%20the%20dragon%0Abelow\n")
	})
	mux.HandleFunc("/game_event.php", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("eventType") != "turn" || r.FormValue("turn") != "17" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "Error: bad event")
		}
	})
	mux.HandleFunc("/uploads/save1.ret", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "payload")
	})
	mux.HandleFunc("/uploads/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Sorry, this file does not exist.")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL + "/"}), &uploads
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUploadReportsServerMessage(t *testing.T) {
	c, uploads := newHub(t)
	ctx := context.Background()
	if err := c.Upload(ctx, writeTemp(t, "save1.ret", "x")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(*uploads) != 1 || (*uploads)[0] != "save1.ret" {
		t.Fatalf("server saw %v", *uploads)
	}
	err := c.Upload(ctx, writeTemp(t, "save2.txt", "x"))
	var se *ServerError
	if !errors.As(err, &se) || se.Status != http.StatusUnsupportedMediaType || se.Message != "Sorry, only KeeperRL files are allowed." {
		t.Fatalf("want server rejection, got %v", err)
	}
}

func TestListGamesDecodesFields(t *testing.T) {
	c, _ := newHub(t)
	v := 3
	games, err := c.ListGames(context.Background(), &v)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 {
		t.Fatalf("want 1 game, got %d", len(games))
	}
	g := games[0]
	if g.DisplayName != "Keeper, the Bold" || g.Version != 3 || g.UploadTime.Unix() != 1700000000 || g.WonGames != 1 || g.TotalGames != 4 {
		t.Fatalf("unexpected game: %+v", g)
	}
	v = 4
	games, err = c.ListGames(context.Background(), &v)
	if err != nil || len(games) != 0 {
		t.Fatalf("want empty list, got %v %v", games, err)
	}
}

func TestMessagesAndEvents(t *testing.T) {
	c, _ := newHub(t)
	msgs, err := c.Messages(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Text != "beware, the dragon\nbelow" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if err := c.Event(context.Background(), "turn", map[string]string{"gameId": "g1", "turn": "17"}); err != nil {
		t.Fatalf("event: %v", err)
	}
	if err := c.Event(context.Background(), "turn", map[string]string{"gameId": "g1", "turn": "x"}); !IsServerError(err) {
		t.Fatalf("want server error, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	c, _ := newHub(t)
	dir := t.TempDir()
	path, err := c.Download(context.Background(), "save1.ret", dir)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "payload" {
		t.Fatalf("downloaded %q", b)
	}
	if _, err := c.Download(context.Background(), "missing.ret", dir); !IsServerError(err) {
		t.Fatalf("want not found, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "missing.ret")); !os.IsNotExist(err) {
		t.Fatalf("no file should be left behind")
	}
}
