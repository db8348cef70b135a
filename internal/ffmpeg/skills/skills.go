// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package skills

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ZSC714725/reelprobe/internal/process"
)

const checkTimeout = 30 * time.Second

// Codec represents a codec FFmpeg can decode
type Codec struct {
	Id       string
	Name     string
	Decoders []string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

type ffmpegInfo struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg relevant for probing
type Skills struct {
	FFmpeg ffmpegInfo
	Codecs struct {
		Audio    []Codec
		Video    []Codec
		Subtitle []Codec
	}
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version (?:n)?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reCodec         = regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)
)

// New runs the binary with -version and -codecs. An error means the binary
// cannot be used as a transcoder at all.
func New(binary string) (Skills, error) {
	c := Skills{}

	lines, err := run(binary, "-version")
	if err != nil {
		return Skills{}, fmt.Errorf("run %s -version: %w", binary, err)
	}
	c.FFmpeg = parseVersion(lines)
	if c.FFmpeg.Version == "" {
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}

	// codec listing is informational only
	if lines, err := run(binary, "-hide_banner", "-codecs"); err == nil {
		c.Codecs = parseCodecs(lines)
	}

	return c, nil
}

func run(binary string, args ...string) ([]string, error) {
	var lines []string
	proc, err := process.New(process.Config{
		Binary: binary,
		Args:   args,
		Parser: process.ParserFunc(func(line string) { lines = append(lines, line) }),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if _, err := proc.Run(ctx); err != nil {
		return lines, err
	}
	return lines, nil
}

func parseVersion(lines []string) ffmpegInfo {
	f := ffmpegInfo{}
	for i, line := range lines {
		if i == 0 {
			if m := reVersion.FindStringSubmatch(line); m != nil {
				f.Version = m[1]
				if len(m[2]) == 0 {
					f.Version += ".0"
				}
			}
			continue
		}
		if m := reCompiler.FindStringSubmatch(line); m != nil && f.Compiler == "" {
			f.Compiler = m[1]
		} else if m := reConfiguration.FindStringSubmatch(line); m != nil && f.Configuration == "" {
			f.Configuration = m[1]
		} else if m := reLibrary.FindStringSubmatch(line); m != nil {
			f.Libraries = append(f.Libraries, Library{Name: m[1], Compiled: m[2], Linked: m[3]})
		}
	}
	return f
}

func parseCodecs(lines []string) struct {
	Audio    []Codec
	Video    []Codec
	Subtitle []Codec
} {
	codecs := struct {
		Audio    []Codec
		Video    []Codec
		Subtitle []Codec
	}{}
	for _, line := range lines {
		m := reCodec.FindStringSubmatch(line)
		if m == nil || m[1] != "D" {
			continue
		}
		c := Codec{Id: m[4], Name: strings.TrimSpace(m[5])}
		if len(m[6]) == 0 {
			c.Decoders = []string{m[4]}
		} else {
			c.Decoders = strings.Fields(m[6])
		}
		switch m[3] {
		case "V":
			codecs.Video = append(codecs.Video, c)
		case "A":
			codecs.Audio = append(codecs.Audio, c)
		case "S":
			codecs.Subtitle = append(codecs.Subtitle, c)
		}
	}
	return codecs
}

// CanDecode reports whether any decoder is known for the codec id.
func (s Skills) CanDecode(id string) bool {
	for _, group := range [][]Codec{s.Codecs.Video, s.Codecs.Audio, s.Codecs.Subtitle} {
		for _, c := range group {
			if c.Id == id {
				return true
			}
		}
	}
	return false
}
