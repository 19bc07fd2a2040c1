// Package sdk is a Go client for the hub's file-sharing endpoints, matching
// what the game itself sends and expects back.
package sdk

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cuihairu/keeperhub/internal/textenc"
)

// ClientConfig defines client options.
type ClientConfig struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds listing calls. Uploads and downloads are bounded by ctx only.
	Timeout time.Duration
}

type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// ServerError is a rejection reported by the hub. Message is the text the
// game would show to the player.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hub: status %d", e.Status)
	}
	return fmt.Sprintf("hub: %s (status %d)", e.Message, e.Status)
}

type GameInfo struct {
	Filename    string
	DisplayName string
	Version     int
	UploadTime  time.Time
	WonGames    int
	TotalGames  int
}

type SiteInfo struct {
	Filename   string
	UploadTime time.Time
	WonGames   int
	TotalGames int
	SaveInfo   string
	Version    int
}

type Highscore struct {
	GameID     string
	PlayerName string
	WorldName  string
	GameResult string
	GameWon    bool
	Points     int
	Turns      int
	GameType   string
	PlayerRole string
}

type Message struct {
	Author string
	Text   string
}

func (c *Client) Upload(ctx context.Context, path string) error {
	return c.upload(ctx, "/upload.php", path)
}

func (c *Client) UploadSite(ctx context.Context, path string) error {
	return c.upload(ctx, "/upload_site.php", path)
}

func (c *Client) UploadScores(ctx context.Context, path string) error {
	return c.upload(ctx, "/upload_scores.php", path)
}

func (c *Client) UploadHighscores(ctx context.Context, path string) error {
	return c.upload(ctx, "/upload_highscores.php", path)
}

// upload posts path as fileToUpload. Any response body is an error message.
func (c *Client) upload(ctx context.Context, endpoint, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("fileToUpload", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(fw, f)
		}
		if err == nil {
			err = mw.WriteField("submit", "send")
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// Event posts one game event as form fields.
func (c *Client) Event(ctx context.Context, eventType string, fields map[string]string) error {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	form.Set("eventType", eventType)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/game_event.php", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) ListGames(ctx context.Context, version *int) ([]GameInfo, error) {
	rows, err := c.list(ctx, "/get_games.php", versionQuery(version), 6)
	if err != nil {
		return nil, err
	}
	out := make([]GameInfo, 0, len(rows))
	for _, f := range rows {
		var n numbers
		g := GameInfo{
			Filename:    f[0],
			DisplayName: f[1],
			Version:     n.atoi(f[2]),
			UploadTime:  n.unix(f[3]),
			WonGames:    n.atoi(f[4]),
			TotalGames:  n.atoi(f[5]),
		}
		if n.err != nil {
			return nil, n.err
		}
		out = append(out, g)
	}
	return out, nil
}

func (c *Client) ListSites(ctx context.Context, version *int) ([]SiteInfo, error) {
	rows, err := c.list(ctx, "/get_sites.php", versionQuery(version), 6)
	if err != nil {
		return nil, err
	}
	out := make([]SiteInfo, 0, len(rows))
	for _, f := range rows {
		var n numbers
		s := SiteInfo{
			Filename:   f[0],
			UploadTime: n.unix(f[1]),
			WonGames:   n.atoi(f[2]),
			TotalGames: n.atoi(f[3]),
			SaveInfo:   f[4],
			Version:    n.atoi(f[5]),
		}
		if n.err != nil {
			return nil, n.err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) Highscores(ctx context.Context, version *int) ([]Highscore, error) {
	rows, err := c.list(ctx, "/get_highscores.php", versionQuery(version), 9)
	if err != nil {
		return nil, err
	}
	out := make([]Highscore, 0, len(rows))
	for _, f := range rows {
		var n numbers
		h := Highscore{
			GameID:     f[0],
			PlayerName: f[1],
			WorldName:  f[2],
			GameResult: f[3],
			GameWon:    n.atoi(f[4]) != 0,
			Points:     n.atoi(f[5]),
			Turns:      n.atoi(f[6]),
			GameType:   f[7],
			PlayerRole: f[8],
		}
		if n.err != nil {
			return nil, n.err
		}
		out = append(out, h)
	}
	return out, nil
}

func (c *Client) Messages(ctx context.Context, boardID int) ([]Message, error) {
	rows, err := c.list(ctx, "/get_messages.php", url.Values{"boardId": {strconv.Itoa(boardID)}}, 2)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(rows))
	for _, f := range rows {
		out = append(out, Message{Author: f[0], Text: f[1]})
	}
	return out, nil
}

// Download saves a stored artifact into dir. A partial file is removed on failure.
func (c *Client) Download(ctx context.Context, filename, dir string) (string, error) {
	name := filepath.Base(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/uploads/"+url.PathEscape(name), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (c *Client) list(ctx context.Context, endpoint string, q url.Values, fields int) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	u := c.cfg.BaseURL + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	var rows [][]string
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		f, err := textenc.Split(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
		if len(f) != fields {
			return nil, fmt.Errorf("%s: want %d fields, got %d", endpoint, fields, len(f))
		}
		rows = append(rows, f)
	}
	return rows, sc.Err()
}

// do sends a request whose success is an empty 200 response.
func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK || len(bytes.TrimSpace(body)) > 0 {
		return &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return nil
}

func versionQuery(v *int) url.Values {
	if v == nil {
		return nil
	}
	return url.Values{"version": {strconv.Itoa(*v)}}
}

// numbers collects the first conversion error of a row.
type numbers struct{ err error }

func (n *numbers) atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil && n.err == nil {
		n.err = fmt.Errorf("not an integer: %q", s)
	}
	return v
}

func (n *numbers) unix(s string) time.Time {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil && n.err == nil {
		n.err = fmt.Errorf("not a timestamp: %q", s)
	}
	return time.Unix(v, 0)
}

// IsServerError reports whether err is a rejection carrying a hub message.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
