// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	reClock      = regexp.MustCompile(`^([0-9]+):([0-9]{2}):([0-9]{2})(?:\.([0-9]+))?$`)
	reResolution = regexp.MustCompile(`^([0-9]+)x([0-9]+)$`)
)

// ParseDuration converts FFmpeg's HH:MM:SS.ff notation into a time.Duration.
func ParseDuration(s string) (time.Duration, error) {
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if mm > 59 || sec > 59 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	d := time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(sec)*time.Second
	if frac := m[4]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		x, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		div := uint64(1)
		for range frac {
			div *= 10
		}
		d += time.Duration(x * uint64(time.Second) / div)
	}
	return d, nil
}

// ParseResolution splits "WxH" into its width and height.
func ParseResolution(s string) (width, height int, err error) {
	m := reResolution.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid resolution %q", s)
	}
	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q", s)
	}
	return width, height, nil
}

// FormatClock renders d as HH:MM:SS, the form FFmpeg accepts for -ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
