// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package api

import (
	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/media"
)

// AddRequest for POST /queue
type AddRequest struct {
	Paths []string `json:"paths" binding:"required"`
	// Index places the new items before the item at this position,
	// appended if absent or out of range.
	Index *int `json:"index"`
}

// AddResponse lists what was queued and what was not
type AddResponse struct {
	Items    []Item         `json:"items"`
	Rejected []RejectedPath `json:"rejected"`
}

// RejectedPath for API
type RejectedPath struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Item represents a queued media file in API response
type Item struct {
	ID        string        `json:"id"`
	Path      string        `json:"path"`
	Name      string        `json:"name"`
	Kind      media.Kind    `json:"kind"`
	Actions   []string      `json:"actions"`
	State     string        `json:"state"`
	Probed    bool          `json:"probed"`
	Summary   string        `json:"summary,omitempty"`
	Result    *media.Result `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt int64         `json:"created_at"`
	UpdatedAt int64         `json:"updated_at"`
}

// ProbeReport is the FFmpeg output of an item's probe runs
type ProbeReport struct {
	ID  string      `json:"id"`
	Log [][2]string `json:"log"`
}

// FFmpegResponse for GET /ffmpeg
type FFmpegResponse struct {
	Skills SkillsResponse `json:"skills"`
	Stats  ffmpeg.Stats   `json:"stats"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
