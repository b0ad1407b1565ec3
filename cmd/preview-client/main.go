// preview-client: connects to a running focuscam, saves live preview
// frames to disk and prints capture status events. With -capture it
// instead triggers one capture, saves the photo and releases it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/focuscam/internal/httpc"
	"github.com/teslashibe/focuscam/internal/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "focuscam host:port")
	out := flag.String("out", "frames", "Directory preview frames are written to")
	limit := flag.Int("frames", 10, "Stop after this many frames (0 = run until interrupted)")
	page := flag.String("capture", "", "Capture once on this page (camera, react-camera, auto-camera) and exit")
	smart := flag.Bool("smart", false, "Content-aware square crop for -capture react-camera")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level, "")

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Error("create output directory", "dir", *out, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return printStatus(gctx, *addr) })
	if *page != "" {
		g.Go(func() error { return captureOnce(gctx, *addr, *out, *page, *smart) })
	} else {
		g.Go(func() error { return savePreview(gctx, *addr, *out, *limit) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errDone) && ctx.Err() == nil {
		log.Error("preview client failed", "error", err)
		os.Exit(1)
	}
}

// errDone ends the group once the requested work is finished.
var errDone = errors.New("frame limit reached")

func dial(ctx context.Context, addr, path string) (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: path}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	// Unblock reads on shutdown.
	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()
	return conn, nil
}

func savePreview(ctx context.Context, addr, dir string, limit int) error {
	conn, err := dial(ctx, addr, "/ws/preview")
	if err != nil {
		return err
	}

	for n := 1; limit == 0 || n <= limit; n++ {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.BinaryMessage {
			n--
			continue
		}

		name := filepath.Join(dir, fmt.Sprintf("frame-%04d.jpg", n))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
		log.Debug("preview frame saved", "file", name, "bytes", len(data))
	}

	log.Info("preview frames saved", "dir", dir, "frames", limit)
	return errDone
}

func captureOnce(ctx context.Context, addr, dir, page string, smart bool) error {
	client, err := httpc.NewClient("http://"+addr, 0)
	if err != nil {
		return err
	}

	// Give the status stream a moment to attach so focus events show.
	time.Sleep(200 * time.Millisecond)

	photo, err := client.Capture(ctx, page, smart)
	if err != nil {
		return err
	}
	data, err := client.Download(ctx, photo.URL)
	if err != nil {
		return err
	}

	name := filepath.Join(dir, fmt.Sprintf("%s-%s.jpg", page, photo.ID))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return err
	}
	if _, err := client.Release(ctx, photo.URL); err != nil {
		log.Warn("release photo", "url", photo.URL, "error", err)
	}

	log.Info("photo saved", "file", name, "width", photo.Width, "height", photo.Height, "bytes", len(data))
	return errDone
}

// statusEvent mirrors the fields of the server's status events we print.
type statusEvent struct {
	Type  string `json:"type"`
	Page  string `json:"page"`
	Error string `json:"error"`
	Focus *struct {
		State    string   `json:"state"`
		Distance *float64 `json:"distance"`
		Score    *float64 `json:"score"`
	} `json:"focus"`
	Photo *struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"photo"`
}

func printStatus(ctx context.Context, addr string) error {
	conn, err := dial(ctx, addr, "/ws/status")
	if err != nil {
		return err
	}

	for {
		var ev statusEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}

		switch {
		case ev.Focus != nil:
			args := []any{"page", ev.Page, "state", ev.Focus.State}
			if ev.Focus.Distance != nil {
				args = append(args, "distance", *ev.Focus.Distance)
			}
			if ev.Focus.Score != nil {
				args = append(args, "score", *ev.Focus.Score)
			}
			log.Info("focus", args...)
		case ev.Photo != nil:
			log.Info("captured", "page", ev.Page, "url", ev.Photo.URL,
				"width", ev.Photo.Width, "height", ev.Photo.Height)
		default:
			log.Warn("capture failed", "page", ev.Page, "error", ev.Error)
		}
	}
}
