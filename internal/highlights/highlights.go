// Package highlights filters and orders article highlights before
// rendering. Ordering supports creation time and in-document location;
// location resolves through position percent first, then a page-specific
// fallback (bounding box for attachment pages, patch offset for text
// pages).
package highlights

import (
	"encoding/json"
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/starford/raido/internal/models"
)

// Order selects how highlights are arranged in rendered output.
type Order string

const (
	OrderLocation Order = "LOCATION"
	OrderTime     Order = "TIME"
)

type point struct {
	x, y float64
}

// patchAnchor is the shape of a highlight patch for attachment pages:
// a JSON object carrying a [left, top, width, height] bounding box.
type patchAnchor struct {
	Bbox []float64 `json:"bbox"`
}

// Filter keeps only actual highlights, dropping notes and redactions.
func Filter(hs []models.Highlight) []models.Highlight {
	out := make([]models.Highlight, 0, len(hs))
	for _, h := range hs {
		if h.Type == models.HighlightTypeHighlight {
			out = append(out, h)
		}
	}
	return out
}

// Note returns the body of the article-level note, the first highlight of
// type NOTE, or "" when the article has none.
func Note(a *models.Article) string {
	for _, h := range a.Highlights {
		if h.Type == models.HighlightTypeNote {
			return h.Annotation
		}
	}
	return ""
}

// Sort arranges highlights in place according to order. TIME keeps the
// server's creation order untouched. LOCATION compares position percent
// when both sides carry one, and otherwise falls back to the page-specific
// anchor comparison.
func Sort(hs []models.Highlight, order Order, pageType models.PageType) {
	if order != OrderLocation {
		return
	}
	sort.SliceStable(hs, func(i, j int) bool {
		return less(hs[i], hs[j], pageType)
	})
}

func less(a, b models.Highlight, pageType models.PageType) bool {
	if a.PositionPercent != nil && b.PositionPercent != nil {
		return *a.PositionPercent < *b.PositionPercent
	}
	if pageType == models.PageTypeFile {
		pa, pb := decodePoint(a.Patch), decodePoint(b.Patch)
		if pa.y != pb.y {
			return pa.y < pb.y
		}
		return pa.x < pb.x
	}
	oa, oka := decodeOffset(a.Patch)
	ob, okb := decodeOffset(b.Patch)
	if oka && okb {
		return oa < ob
	}
	// Offset decoding failed on at least one side; anchor boxes still
	// give a usable relative order.
	pa, pb := decodePoint(a.Patch), decodePoint(b.Patch)
	if pa.y != pb.y {
		return pa.y < pb.y
	}
	return pa.x < pb.x
}

// decodePoint reads the bounding box anchor out of a patch. Any decode
// failure yields the origin, which sorts such highlights first without
// aborting the sync.
func decodePoint(patch string) point {
	var a patchAnchor
	if err := json.Unmarshal([]byte(patch), &a); err != nil || len(a.Bbox) < 2 {
		return point{}
	}
	return point{x: a.Bbox[0], y: a.Bbox[1]}
}

// decodeOffset reads the document offset from a unidiff patch produced by
// the highlighter. The offset is the start position of the first hunk.
func decodeOffset(patch string) (int, bool) {
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patch)
	if err != nil || len(patches) == 0 {
		return 0, false
	}
	return patches[0].Start1, true
}
