// Package extract recovers a start and end instant from one loosely
// structured timeline record.
package extract

import (
	"regexp"
	"strings"

	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

// Layer names the fallback stage that produced a raw timestamp string.
type Layer string

const (
	LayerNone     Layer = ""
	LayerMapping  Layer = "mapping"
	LayerKeyValue Layer = "key_value"
	LayerISOScan  Layer = "iso_scan"
)

var (
	startKeys = []string{"startTime", "start_time", "start"}
	endKeys   = []string{"endTime", "end_time", "end"}
)

// isoPattern matches strict ISO-8601 date-times with a zone designator.
var isoPattern = regexp.MustCompile(
	`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{1,6})?(?:Z|[+-]\d{2}:\d{2})`)

// keyValuePattern matches a known key paired with a quoted string value,
// regardless of whether the surrounding text is well formed.
var keyValuePattern = regexp.MustCompile(
	`(?i)["'](startTime|endTime|start_time|end_time|start|end)["']\s*:\s*["']([^"']+)["']`)

// Meta describes how the interval was recovered.
type Meta struct {
	StartRaw    string
	EndRaw      string
	StartLayer  Layer
	EndLayer    Layer
	StartFormat string
	EndFormat   string

	// Mapping is the syntax that decoded the record as a mapping, if any.
	Mapping Syntax
}

// Result is the outcome of Interval. Start and End are nil when the
// corresponding timestamp could not be found or parsed.
type Result struct {
	Start *timestamp.Instant
	End   *timestamp.Instant
	Meta  Meta
}

// Complete reports whether both ends were recovered.
func (r Result) Complete() bool {
	return r.Start != nil && r.End != nil
}

// Interval extracts the start and end of a record from its text. It tries a
// mapping parse, then a key/value scan, then a scan for bare ISO-8601
// timestamps, stopping as soon as both raw values are known.
func Interval(text string) Result {
	var meta Meta

	if m, syntax := ParseMapping(text); m != nil {
		meta.Mapping = syntax
		if v, ok := firstString(m, startKeys); ok {
			meta.StartRaw, meta.StartLayer = v, LayerMapping
		}
		if v, ok := firstString(m, endKeys); ok {
			meta.EndRaw, meta.EndLayer = v, LayerMapping
		}
	}

	if meta.StartLayer == LayerNone || meta.EndLayer == LayerNone {
		found := make(map[string]string)
		for _, sm := range keyValuePattern.FindAllStringSubmatch(text, -1) {
			found[strings.ToLower(sm[1])] = sm[2]
		}
		if meta.StartLayer == LayerNone {
			if v, ok := firstFound(found, startKeys); ok {
				meta.StartRaw, meta.StartLayer = v, LayerKeyValue
			}
		}
		if meta.EndLayer == LayerNone {
			if v, ok := firstFound(found, endKeys); ok {
				meta.EndRaw, meta.EndLayer = v, LayerKeyValue
			}
		}
	}

	if meta.StartLayer == LayerNone || meta.EndLayer == LayerNone {
		hits := isoPattern.FindAllString(text, -1)
		if meta.StartLayer == LayerNone && len(hits) >= 1 {
			meta.StartRaw, meta.StartLayer = hits[0], LayerISOScan
		}
		if meta.EndLayer == LayerNone && len(hits) >= 2 {
			meta.EndRaw, meta.EndLayer = hits[1], LayerISOScan
		}
	}

	res := Result{Meta: meta}
	if meta.StartRaw != "" {
		if in, name, ok := timestamp.Detect(meta.StartRaw); ok {
			res.Start = &in
			res.Meta.StartFormat = name
		}
	}
	if meta.EndRaw != "" {
		if in, name, ok := timestamp.Detect(meta.EndRaw); ok {
			res.End = &in
			res.Meta.EndFormat = name
		}
	}
	return res
}

func firstString(m map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

func firstFound(found map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := found[strings.ToLower(k)]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}
