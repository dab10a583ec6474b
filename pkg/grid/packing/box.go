package packing

import "math"

// box is one region of the packed area. The root box holds the leaves,
// one per item, which always partition it.
type box struct {
	orgInlineSize  float64
	orgContentSize float64
	inlineSize     float64
	contentSize    float64
	inlinePos      float64
	contentPos     float64
	items          []*box
}

func (b *box) orgSize() float64 { return b.orgInlineSize * b.orgContentSize }

func (b *box) size() float64 { return b.inlineSize * b.contentSize }

func (b *box) orgRatio() float64 {
	if b.orgContentSize == 0 {
		return 0
	}
	return b.orgInlineSize / b.orgContentSize
}

func (b *box) ratio() float64 {
	if b.contentSize == 0 {
		return 0
	}
	return b.inlineSize / b.contentSize
}

// scaleTo stretches the box and every leaf to the given size.
func (b *box) scaleTo(inlineSize, contentSize float64) {
	var sx, sy float64
	if b.inlineSize != 0 {
		sx = inlineSize / b.inlineSize
	}
	if b.contentSize != 0 {
		sy = contentSize / b.contentSize
	}
	for _, item := range b.items {
		if sx != 0 {
			item.inlinePos *= sx
			item.inlineSize *= sx
		}
		if sy != 0 {
			item.contentPos *= sy
			item.contentSize *= sy
		}
	}
	b.inlineSize = inlineSize
	b.contentSize = contentSize
}

// deviation is how far v strays from want as a ratio; 0 means equal.
func deviation(want, v float64) float64 {
	if want == v {
		return 0
	}
	if want <= 0 || v <= 0 {
		return math.Inf(1)
	}
	c := want / v
	if c < 1 {
		c = 1 / c
	}
	return c - 1
}

// split is one candidate placement of a new leaf inside an existing one.
type split struct {
	target        *box
	stacked       bool
	itemInline    float64
	itemContent   float64
	targetInline  float64
	targetContent float64
}

// insert places item into the leaf where splitting costs least. A leaf is
// split side by side or stacked along the content axis. A side-by-side cut
// shares the inline size in proportion to the content sizes, a stacked cut
// shares the content size in proportion to the inline sizes. On equal cost
// the first candidate wins, so side by side beats stacked.
func (b *box) insert(item *box, sizeWeight, ratioWeight float64) {
	if b.ratio() == 0 {
		b.orgInlineSize, b.orgContentSize = item.inlineSize, item.contentSize
		b.inlineSize, b.contentSize = item.inlineSize, item.contentSize
		b.items = append(b.items, item)
		return
	}

	var best split
	minCost := math.Inf(1)
	for _, child := range b.items {
		sizeCost := deviation(child.orgSize(), child.size()) * sizeWeight
		ratioCost := deviation(child.orgRatio(), child.ratio()) * ratioWeight

		for _, stacked := range []bool{false, true} {
			s := split{target: child, stacked: stacked}
			if stacked {
				s.itemInline = child.inlineSize
				s.itemContent = child.contentSize * item.inlineSize / (child.orgInlineSize + item.inlineSize)
				s.targetInline = child.inlineSize
				s.targetContent = child.contentSize - s.itemContent
			} else {
				s.itemInline = child.inlineSize * item.contentSize / (child.orgContentSize + item.contentSize)
				s.itemContent = child.contentSize
				s.targetInline = child.inlineSize - s.itemInline
				s.targetContent = child.contentSize
			}
			cost := deviation(item.orgSize(), s.itemInline*s.itemContent)*sizeWeight +
				deviation(item.orgRatio(), safeRatio(s.itemInline, s.itemContent))*ratioWeight +
				deviation(child.orgSize(), s.targetInline*s.targetContent)*sizeWeight - sizeCost +
				deviation(child.orgRatio(), safeRatio(s.targetInline, s.targetContent))*ratioWeight - ratioCost
			if math.IsNaN(cost) {
				cost = math.Inf(1)
			}
			if best.target == nil || cost < minCost {
				minCost = cost
				best = s
			}
		}
	}
	t := best.target
	item.inlineSize, item.contentSize = best.itemInline, best.itemContent
	t.inlineSize, t.contentSize = best.targetInline, best.targetContent
	if best.stacked {
		item.inlinePos = t.inlinePos
		item.contentPos = t.contentPos + t.contentSize
	} else {
		item.inlinePos = t.inlinePos + t.inlineSize
		item.contentPos = t.contentPos
	}
	b.items = append(b.items, item)
}

func safeRatio(inline, content float64) float64 {
	if content == 0 {
		return 0
	}
	return inline / content
}
