// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package api

import (
	"net/http"
	"os"

	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/probe"
	"github.com/ZSC714725/reelprobe/internal/queue"
	"github.com/ZSC714725/reelprobe/internal/thumbnail"
	"github.com/gin-gonic/gin"
)

// Handler holds dependencies
type Handler struct {
	store  queue.Store
	ffmpeg ffmpeg.FFmpeg
	thumbs *thumbnail.Dir
}

// NewHandler creates API handler. Thumbnails are only served from thumbs.
func NewHandler(store queue.Store, ff ffmpeg.FFmpeg, thumbs *thumbnail.Dir) *Handler {
	return &Handler{store: store, ffmpeg: ff, thumbs: thumbs}
}

// Register adds all routes below r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/ffmpeg", h.FFmpeg)

		v1.GET("/queue", h.ListItems)
		v1.POST("/queue", h.AddItems)
		v1.DELETE("/queue", h.ClearQueue)
		v1.GET("/queue/:id", h.GetItem)
		v1.DELETE("/queue/:id", h.DeleteItem)
		v1.GET("/queue/:id/thumbnail", h.GetThumbnail)
		v1.GET("/queue/:id/report", h.GetReport)
	}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// AddItems POST /api/v1/queue
func (h *Handler) AddItems(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if len(req.Paths) == 0 {
		errResp(c, http.StatusBadRequest, "At least one path required", "")
		return
	}

	var entries []queue.Entry
	var rejected []queue.Rejected
	if req.Index != nil {
		entries, rejected = h.store.Insert(*req.Index, req.Paths)
	} else {
		entries, rejected = h.store.Add(req.Paths)
	}

	resp := AddResponse{
		Items:    make([]Item, 0, len(entries)),
		Rejected: make([]RejectedPath, 0, len(rejected)),
	}
	for _, e := range entries {
		resp.Items = append(resp.Items, h.entryToItem(e))
	}
	for _, r := range rejected {
		resp.Rejected = append(resp.Rejected, RejectedPath{Path: r.Path, Reason: r.Err.Error()})
	}

	code := http.StatusOK
	if len(entries) == 0 {
		code = http.StatusBadRequest
	}
	c.JSON(code, resp)
}

// ListItems GET /api/v1/queue[?path=]
func (h *Handler) ListItems(c *gin.Context) {
	if path := c.Query("path"); path != "" {
		e, err := h.store.Lookup(path)
		if err != nil {
			errResp(c, http.StatusNotFound, "Unknown path", err.Error())
			return
		}
		c.JSON(http.StatusOK, []Item{h.entryToItem(e)})
		return
	}

	entries := h.store.List()
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, h.entryToItem(e))
	}
	c.JSON(http.StatusOK, items)
}

// GetItem GET /api/v1/queue/:id
func (h *Handler) GetItem(c *gin.Context) {
	e, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown item ID", err.Error())
		return
	}
	c.JSON(http.StatusOK, h.entryToItem(e))
}

// DeleteItem DELETE /api/v1/queue/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	if err := h.store.Remove(c.Param("id")); err != nil {
		errResp(c, http.StatusNotFound, "Unknown item ID", err.Error())
		return
	}
	c.JSON(http.StatusOK, "OK")
}

// ClearQueue DELETE /api/v1/queue
func (h *Handler) ClearQueue(c *gin.Context) {
	h.store.Clear()
	c.JSON(http.StatusOK, "OK")
}

// GetThumbnail GET /api/v1/queue/:id/thumbnail
func (h *Handler) GetThumbnail(c *gin.Context) {
	e, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown item ID", err.Error())
		return
	}
	if e.Result == nil || e.Result.Thumbnail == "" {
		errResp(c, http.StatusNotFound, "No thumbnail", "")
		return
	}

	file := e.Result.Thumbnail
	if h.thumbs != nil && !h.thumbs.Contains(file) {
		errResp(c, http.StatusNotFound, "No thumbnail", "")
		return
	}
	if _, err := os.Stat(file); err != nil {
		errResp(c, http.StatusNotFound, "No thumbnail", err.Error())
		return
	}
	c.File(file)
}

// GetReport GET /api/v1/queue/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.Get(id); err != nil {
		errResp(c, http.StatusNotFound, "Unknown item ID", err.Error())
		return
	}

	report := ProbeReport{ID: id, Log: [][2]string{}}
	if job, ok := h.store.Job(id); ok {
		for _, line := range job.Log() {
			report.Log = append(report.Log, [2]string{
				line.Timestamp.Format("2006-01-02 15:04:05.000"),
				line.Data,
			})
		}
	}
	c.JSON(http.StatusOK, report)
}

// FFmpeg GET /api/v1/ffmpeg
func (h *Handler) FFmpeg(c *gin.Context) {
	c.JSON(http.StatusOK, FFmpegResponse{
		Skills: skillsToAPI(h.ffmpeg.Skills()),
		Stats:  h.ffmpeg.Stats(),
	})
}

func (h *Handler) entryToItem(e queue.Entry) Item {
	item := Item{
		ID:        e.ID,
		Path:      e.Path,
		Name:      e.Name,
		Kind:      e.Kind,
		State:     string(probe.StatePending),
		Probed:    e.Probed(),
		Result:    e.Result,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	for _, a := range e.Actions() {
		item.Actions = append(item.Actions, string(a))
	}
	if job, ok := h.store.Job(e.ID); ok {
		item.State = string(job.State())
	}
	if e.Result != nil {
		item.Summary = e.Result.Summary()
	}
	if e.Err != nil {
		item.Error = e.Err.Error()
	}
	return item
}
