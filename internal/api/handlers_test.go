// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/probe"
	"github.com/ZSC714725/reelprobe/internal/queue"
	"github.com/ZSC714725/reelprobe/internal/thumbnail"
	"github.com/gin-gonic/gin"
)

const fakeFFmpeg = `case "$1" in
-version)
	echo "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers"
	echo "  built with gcc 13.2.0"
	exit 0;;
esac
case "$*" in
*-frames:v*)
	for a; do last=$a; done
	echo png > "$last"
	exit 0;;
esac
echo "  Duration: 00:00:10.00, start: 0.000000, bitrate: 900 kb/s" >&2
echo "  Stream #0:0: Video: h264, 640x360, 800 kb/s, 25 fps" >&2
echo "  Stream #0:1: Audio: aac, 44100 Hz, 96 kb/s" >&2
exit 1`

type testServer struct {
	router      *gin.Engine
	coordinator *probe.Coordinator
	media       string
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	gin.SetMode(gin.TestMode)

	tmp := t.TempDir()
	bin := filepath.Join(tmp, "ffmpeg")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+fakeFFmpeg+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	ff, err := ffmpeg.New(ffmpeg.Config{Binary: bin})
	if err != nil {
		t.Fatal(err)
	}

	dir := thumbnail.NewDir(filepath.Join(tmp, "thumbs"))
	prober := probe.NewProber(probe.Config{
		FFmpeg:     ff,
		Thumbnails: thumbnail.NewExtractor(ff, dir, nil),
	})
	coordinator := probe.NewCoordinator(prober, nil, nil)
	store := queue.NewStore(context.Background(), queue.Config{FFmpeg: ff, Coordinator: coordinator})

	r := gin.New()
	NewHandler(store, ff, dir).Register(r)

	mediaDir := filepath.Join(tmp, "media")
	if err := os.Mkdir(mediaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return &testServer{router: r, coordinator: coordinator, media: mediaDir}
}

func (s *testServer) file(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(s.media, name)
	if err := os.WriteFile(path, make([]byte, 1024), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (s *testServer) do(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, url, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestQueueLifecycle(t *testing.T) {
	s := newServer(t)
	video := s.file(t, "clip.mp4")

	var added AddResponse
	code := s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{video, "/m/notes.txt"}}, &added)
	if code != http.StatusOK {
		t.Fatalf("POST code = %d", code)
	}
	if len(added.Items) != 1 || len(added.Rejected) != 1 {
		t.Fatalf("added = %+v", added)
	}
	if added.Rejected[0].Path != "/m/notes.txt" {
		t.Errorf("rejected = %+v", added.Rejected)
	}
	id := added.Items[0].ID
	s.coordinator.Wait()

	var item Item
	if code := s.do(t, http.MethodGet, "/api/v1/queue/"+id, nil, &item); code != http.StatusOK {
		t.Fatalf("GET code = %d", code)
	}
	if !item.Probed || item.State != string(probe.StateComplete) || item.Error != "" {
		t.Errorf("item = %+v", item)
	}
	if item.Result == nil || item.Result.Resolution != "640x360" || item.Result.Thumbnail == "" {
		t.Errorf("result = %+v", item.Result)
	}
	if item.Summary != "640x360 • 00:00:10.00 • 800 kb/s • 25 fps • 1 KB • 1 video • 1 audio" {
		t.Errorf("summary = %q", item.Summary)
	}
	if len(item.Actions) != 6 {
		t.Errorf("actions = %v", item.Actions)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/queue/"+id+"/thumbnail", nil))
	if w.Code != http.StatusOK || w.Body.String() != "png\n" {
		t.Errorf("thumbnail = %d %q", w.Code, w.Body.String())
	}

	var report ProbeReport
	s.do(t, http.MethodGet, "/api/v1/queue/"+id+"/report", nil, &report)
	if len(report.Log) == 0 {
		t.Error("empty report")
	}

	var list []Item
	s.do(t, http.MethodGet, "/api/v1/queue", nil, &list)
	if len(list) != 1 {
		t.Errorf("list = %+v", list)
	}

	if code := s.do(t, http.MethodDelete, "/api/v1/queue/"+id, nil, nil); code != http.StatusOK {
		t.Errorf("DELETE code = %d", code)
	}
	var errBody ErrorResponse
	if code := s.do(t, http.MethodGet, "/api/v1/queue/"+id, nil, &errBody); code != http.StatusNotFound || errBody.Code != 404 {
		t.Errorf("GET after delete = %d %+v", code, errBody)
	}
}

func TestAddInsertAndClear(t *testing.T) {
	s := newServer(t)
	a, b, c := s.file(t, "a.srt"), s.file(t, "b.srt"), s.file(t, "c.srt")

	s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{a, b}}, nil)
	index := 1
	s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{c}, Index: &index}, nil)
	s.coordinator.Wait()

	var list []Item
	s.do(t, http.MethodGet, "/api/v1/queue", nil, &list)
	if len(list) != 3 || list[1].Name != "c.srt" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Result == nil || list[0].Result.Size != 1024 {
		t.Errorf("subtitle result = %+v", list[0].Result)
	}

	var id = list[0].ID
	if code := s.do(t, http.MethodGet, "/api/v1/queue/"+id+"/thumbnail", nil, nil); code != http.StatusNotFound {
		t.Errorf("thumbnail of subtitle = %d", code)
	}

	s.do(t, http.MethodDelete, "/api/v1/queue", nil, nil)
	s.do(t, http.MethodGet, "/api/v1/queue", nil, &list)
	if len(list) != 0 {
		t.Errorf("list after clear = %+v", list)
	}
}

func TestListByPath(t *testing.T) {
	s := newServer(t)
	a, b := s.file(t, "a.srt"), s.file(t, "b.srt")
	s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{a, b}}, nil)
	s.coordinator.Wait()

	var list []Item
	q := url.Values{"path": {b}}
	if code := s.do(t, http.MethodGet, "/api/v1/queue?"+q.Encode(), nil, &list); code != http.StatusOK {
		t.Fatalf("lookup code = %d", code)
	}
	if len(list) != 1 || list[0].Path != b || list[0].Name != "b.srt" {
		t.Errorf("list = %+v", list)
	}

	var errBody ErrorResponse
	q = url.Values{"path": {filepath.Join(s.media, "missing.srt")}}
	if code := s.do(t, http.MethodGet, "/api/v1/queue?"+q.Encode(), nil, &errBody); code != http.StatusNotFound || errBody.Code != 404 {
		t.Errorf("unknown path = %d %+v", code, errBody)
	}
}

func TestAddErrors(t *testing.T) {
	s := newServer(t)

	var errBody ErrorResponse
	if code := s.do(t, http.MethodPost, "/api/v1/queue", map[string]string{"paths": "x"}, &errBody); code != http.StatusBadRequest {
		t.Errorf("bad JSON code = %d", code)
	}
	if code := s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{}}, nil); code != http.StatusBadRequest {
		t.Errorf("empty paths code = %d", code)
	}

	var added AddResponse
	if code := s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{"relative.mp4"}}, &added); code != http.StatusBadRequest {
		t.Errorf("all rejected code = %d", code)
	}
	if len(added.Rejected) != 1 {
		t.Errorf("rejected = %+v", added.Rejected)
	}

	if code := s.do(t, http.MethodDelete, "/api/v1/queue/nope", nil, nil); code != http.StatusNotFound {
		t.Errorf("delete unknown = %d", code)
	}
	if code := s.do(t, http.MethodGet, "/api/v1/queue/nope/report", nil, nil); code != http.StatusNotFound {
		t.Errorf("report unknown = %d", code)
	}
}

func TestFFmpegInfo(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/v1/queue", AddRequest{Paths: []string{s.file(t, "a.wav")}}, nil)
	s.coordinator.Wait()

	var info FFmpegResponse
	if code := s.do(t, http.MethodGet, "/api/v1/ffmpeg", nil, &info); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if info.Skills.FFmpeg.Version != "6.1.1" || info.Skills.FFmpeg.Compiler != "gcc 13.2.0" {
		t.Errorf("skills = %+v", info.Skills.FFmpeg)
	}
	if info.Stats.Started < 2 || info.Stats.Running != 0 {
		t.Errorf("stats = %+v", info.Stats)
	}
}
