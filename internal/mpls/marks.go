package mpls

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MPLS timestamps tick at 45 kHz.
const ticksPerSecond = 45000

const entryMark = 0x01

var errTruncated = errors.New("truncated playlist")

// playItem is one PlayItem of the PlayList section.
type playItem struct {
	clip string
	in   uint32
}

// mark is one PlayListMark entry.
type mark struct {
	kind  byte
	item  int
	stamp uint32
}

// ReadChapters reads the entry marks of the playlist at path. Each chapter is
// located by the position of its clip in the playlist's unique clip list, with
// the offset measured from that clip's IN time. clips is the clip list
// reported for the playlist, in play item order.
func ReadChapters(path string, clips []string) ([]Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	items, marks, err := parseMarks(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return chaptersOf(items, marks, clips), nil
}

func parseMarks(data []byte) ([]playItem, []mark, error) {
	if len(data) < 20 || string(data[:4]) != "MPLS" {
		return nil, nil, errors.New("not an MPLS file")
	}
	playlistStart := int(binary.BigEndian.Uint32(data[8:12]))
	markStart := int(binary.BigEndian.Uint32(data[12:16]))

	if playlistStart+10 > len(data) {
		return nil, nil, errTruncated
	}
	count := int(binary.BigEndian.Uint16(data[playlistStart+6:]))
	items := make([]playItem, 0, count)
	pos := playlistStart + 10
	for range count {
		if pos+2 > len(data) {
			return nil, nil, errTruncated
		}
		length := int(binary.BigEndian.Uint16(data[pos:]))
		body := pos + 2
		if length < 20 || body+length > len(data) {
			return nil, nil, errTruncated
		}
		items = append(items, playItem{
			clip: string(data[body : body+5]),
			in:   binary.BigEndian.Uint32(data[body+12:]),
		})
		pos = body + length
	}

	if markStart+6 > len(data) {
		return nil, nil, errTruncated
	}
	n := int(binary.BigEndian.Uint16(data[markStart+4:]))
	marks := make([]mark, 0, n)
	pos = markStart + 6
	for range n {
		if pos+14 > len(data) {
			return nil, nil, errTruncated
		}
		marks = append(marks, mark{
			kind:  data[pos+1],
			item:  int(binary.BigEndian.Uint16(data[pos+2:])),
			stamp: binary.BigEndian.Uint32(data[pos+4:]),
		})
		pos += 14
	}
	return items, marks, nil
}

// chaptersOf places entry marks on unique clips. Repeated clips carry the
// same marks on every pass, so duplicates are folded.
func chaptersOf(items []playItem, marks []mark, clips []string) []Chapter {
	position := make(map[string]int)
	for _, path := range clips {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, ok := position[stem]; !ok {
			position[stem] = len(position)
		}
	}

	seen := make(map[Chapter]struct{})
	var out []Chapter
	for _, mk := range marks {
		if mk.kind != entryMark || mk.item >= len(items) {
			continue
		}
		item := items[mk.item]
		clip, ok := position[item.clip]
		if !ok {
			continue
		}
		var offset time.Duration
		if mk.stamp > item.in {
			offset = time.Duration(int64(mk.stamp-item.in) * int64(time.Second) / ticksPerSecond)
		}
		ch := Chapter{Clip: clip, Offset: offset}
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
