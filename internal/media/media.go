// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedExtension 文件扩展名不在支持列表中
var ErrUnsupportedExtension = errors.New("unsupported extension")

// Kind 媒体类型, 由扩展名决定
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	KindSubtitle Kind = "subtitle"
)

var extensions = map[string]Kind{
	".mp4":  KindVideo,
	".mkv":  KindVideo,
	".mov":  KindVideo,
	".avi":  KindVideo,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".srt":  KindSubtitle,
	".ass":  KindSubtitle,
}

// Classify 根据扩展名判断媒体类型 (不区分大小写)
func Classify(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if k, ok := extensions[ext]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
}

// IsGIF reports whether path names a GIF image, the only image kind that
// carries a frame rate.
func IsGIF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}

// Action 可对媒体执行的后续编辑操作
type Action string

const (
	ActionSplit    Action = "split"
	ActionMerge    Action = "merge"
	ActionCrop     Action = "crop"
	ActionCompress Action = "compress"
	ActionMix      Action = "mix"
	ActionTour     Action = "tour"
)

// Actions 返回某类媒体可用的操作
func Actions(kind Kind) []Action {
	switch kind {
	case KindVideo:
		return []Action{ActionSplit, ActionMerge, ActionCrop, ActionCompress, ActionMix, ActionTour}
	case KindAudio:
		return []Action{ActionSplit, ActionMerge, ActionCompress, ActionMix}
	case KindImage:
		return []Action{ActionCompress, ActionMix, ActionTour}
	case KindSubtitle:
		return []Action{ActionMix}
	}
	return nil
}

// Item 队列中的一个媒体文件
type Item struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// NewItem classifies path and builds an Item with the given id.
func NewItem(id, path string) (Item, error) {
	kind, err := Classify(path)
	if err != nil {
		return Item{}, err
	}
	return Item{ID: id, Path: path, Name: filepath.Base(path), Kind: kind}, nil
}
