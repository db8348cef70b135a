// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBind            = ":8080"
	defaultFFmpegPath      = "ffmpeg"
	defaultLogLines        = 100
	defaultThumbnailWidth  = 196
	defaultThumbnailHeight = 110
	thumbnailDirName       = "ReelProbeThumbnails"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Probe  ProbeConfig  `yaml:"probe"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path     string   `yaml:"path"`
	LogLines int      `yaml:"log_lines"`
	Allow    []string `yaml:"allow"`
	Block    []string `yaml:"block"`
}

// ProbeConfig 探测与缩略图配置
type ProbeConfig struct {
	ThumbnailDir    string `yaml:"thumbnail_dir"`
	ThumbnailWidth  int    `yaml:"thumbnail_width"`
	ThumbnailHeight int    `yaml:"thumbnail_height"`
	StaleTimeout    uint64 `yaml:"stale_timeout_seconds"`
	PurgeThumbnails bool   `yaml:"purge_thumbnails"`
	WatchDeletions  *bool  `yaml:"watch_deletions"`
}

// LogConfig 日志配置
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// StaleTimeoutDuration converts the configured seconds; zero disables it.
func (p ProbeConfig) StaleTimeoutDuration() time.Duration {
	return time.Duration(p.StaleTimeout) * time.Second
}

// Watch reports whether deleted files should cancel their probes.
func (p ProbeConfig) Watch() bool {
	return p.WatchDeletions == nil || *p.WatchDeletions
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: defaultBind},
		FFmpeg: FFmpegConfig{Path: defaultFFmpegPath, LogLines: defaultLogLines},
		Probe: ProbeConfig{
			ThumbnailDir:    filepath.Join(os.TempDir(), thumbnailDirName),
			ThumbnailWidth:  defaultThumbnailWidth,
			ThumbnailHeight: defaultThumbnailHeight,
		},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.fill()
	return cfg, nil
}

// 填充空值
func (c *Config) fill() {
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = defaultFFmpegPath
	}
	if c.FFmpeg.LogLines <= 0 {
		c.FFmpeg.LogLines = defaultLogLines
	}
	if c.Probe.ThumbnailDir == "" {
		c.Probe.ThumbnailDir = filepath.Join(os.TempDir(), thumbnailDirName)
	}
	if c.Probe.ThumbnailWidth <= 0 {
		c.Probe.ThumbnailWidth = defaultThumbnailWidth
	}
	if c.Probe.ThumbnailHeight <= 0 {
		c.Probe.ThumbnailHeight = defaultThumbnailHeight
	}
}
