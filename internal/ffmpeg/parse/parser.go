// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package parse

import (
	"regexp"
	"strings"
	"sync"

	"github.com/ZSC714725/reelprobe/internal/process"
)

// Rules selects which extraction rules a parser evaluates.
type Rules uint8

const (
	RuleDuration Rules = 1 << iota
	RuleChapters
	RuleStreams
	RuleVideo
	RuleAudio
)

const (
	// GenericRules is the first pass: duration plus stream and chapter counts.
	GenericRules = RuleDuration | RuleChapters | RuleStreams
	VideoRules   = RuleVideo
	AudioRules   = RuleAudio
	AllRules     = GenericRules | VideoRules | AudioRules

	countingRules = RuleChapters | RuleStreams
)

// StreamCounts counts stream descriptors and chapter markers by kind.
type StreamCounts struct {
	Video      int `json:"video"`
	Audio      int `json:"audio"`
	Subtitle   int `json:"subtitle"`
	Attachment int `json:"attachment"`
	Chapter    int `json:"chapter"`
}

// Facts holds what a parser extracted so far. Empty strings and a nil
// Streams mean "not observed".
type Facts struct {
	Duration   string
	Resolution string
	Bitrate    string
	FrameRate  string
	SampleRate string
	Streams    *StreamCounts
}

// Parser implements process.Parser and extracts media facts from FFmpeg's
// diagnostic output.
type Parser interface {
	process.Parser
	Facts() Facts
	// Done reports that every rule in the set has locked its value, so
	// further lines cannot change the facts.
	Done() bool
}

// Config for the parser
type Config struct {
	Rules Rules
	// FrameRate enables recording the fps of the first video stream.
	FrameRate bool
	// Log receives every line, may be nil.
	Log *Log
}

// state tracks which facts are locked for the lifetime of one run.
type state struct {
	duration bool
	geometry bool
	audio    bool
	bitrate  bool
}

var re = struct {
	duration *regexp.Regexp
	chapter  *regexp.Regexp
	stream   *regexp.Regexp
	video    *regexp.Regexp
	audio    *regexp.Regexp
}{
	duration: regexp.MustCompile(`\s*Duration:\s(\d{2}:\d{2}:\d{2}\.\d{2}).+`),
	chapter:  regexp.MustCompile(`\s*Chapter #0:(\d+).+`),
	stream:   regexp.MustCompile(`\s*Stream #0:(\d+).*?: (\w+).+`),
	video:    regexp.MustCompile(`\s*Stream #\d+:\d+.*?: Video: .+?, (\d+x\d+)(?:.*?(\d+ kb/s))?(?:.*?(\d+?\.?\d*? fps))?`),
	audio:    regexp.MustCompile(`\s*Stream #\d+:\d+.*?: Audio: .+?, (\d+ Hz).*?, (\d+ kb/s)`),
}

type parser struct {
	rules     Rules
	frameRate bool
	log       *Log

	facts  Facts
	counts StreamCounts
	state  state
	lock   sync.RWMutex
}

// New creates a Parser
func New(config Config) Parser {
	return &parser{
		rules:     config.Rules,
		frameRate: config.FrameRate,
		log:       config.Log,
	}
}

func (p *parser) has(r Rules) bool {
	return p.rules&r != 0
}

func (p *parser) Parse(line string) uint64 {
	if p.log != nil {
		p.log.Add(line)
	}
	if strings.TrimSpace(line) == "" {
		return 0
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if p.done() {
		return 0
	}

	var n uint64
	if p.has(RuleDuration) && !p.state.duration {
		if m := re.duration.FindStringSubmatch(line); m != nil {
			p.facts.Duration = m[1]
			p.state.duration = true
			n++
		}
	}

	// a chapter line is never a stream line
	if re.chapter.MatchString(line) {
		if p.has(RuleChapters) {
			p.counts.Chapter++
			n++
		}
		return n
	}

	m := re.stream.FindStringSubmatch(line)
	if m == nil {
		return n
	}
	kind := m[2]

	if p.has(RuleStreams) {
		n++
		switch kind {
		case "Video":
			p.counts.Video++
		case "Audio":
			p.counts.Audio++
		case "Subtitle":
			p.counts.Subtitle++
		case "Attachment":
			p.counts.Attachment++
		default:
			// Data and unknown stream kinds are not tracked
			n--
		}
	}

	switch kind {
	case "Video":
		if p.has(RuleVideo) && !p.state.geometry {
			n += p.video(line)
		}
	case "Audio":
		if p.has(RuleAudio) && !p.state.audio {
			n += p.audio(line)
		}
	}
	return n
}

func (p *parser) video(line string) uint64 {
	m := re.video.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	n := uint64(1)
	p.facts.Resolution = m[1]
	if m[2] != "" && !p.state.bitrate {
		p.facts.Bitrate = m[2]
		p.state.bitrate = true
		n++
	}
	if m[3] != "" && p.frameRate {
		p.facts.FrameRate = m[3]
		n++
	}
	p.state.geometry = true
	return n
}

func (p *parser) audio(line string) uint64 {
	m := re.audio.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	// a track only locks when it reports both sample rate and bitrate
	n := uint64(1)
	p.facts.SampleRate = m[1]
	if !p.state.bitrate {
		p.facts.Bitrate = m[2]
		p.state.bitrate = true
		n++
	}
	p.state.audio = true
	return n
}

func (p *parser) done() bool {
	if p.has(countingRules) {
		return false
	}
	if p.has(RuleDuration) && !p.state.duration {
		return false
	}
	if p.has(RuleVideo) && !p.state.geometry {
		return false
	}
	if p.has(RuleAudio) && !p.state.audio {
		return false
	}
	return true
}

func (p *parser) Done() bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.done()
}

func (p *parser) Facts() Facts {
	p.lock.RLock()
	defer p.lock.RUnlock()

	f := p.facts
	if p.has(countingRules) {
		counts := p.counts
		f.Streams = &counts
	}
	return f
}
