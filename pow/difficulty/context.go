// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package difficulty

import "github.com/zcash/headerpow/pow/target"

const (
	avgWindow       = 17
	medianBlockSpan = 11
	maxAdjustDown   = 32
	maxAdjustUp     = 16
	adjustDen       = 100
	dampingFactor   = 4
	targetSpacing   = 75

	avgWindowTimespan = avgWindow * targetSpacing
	minActualTimespan = (avgWindowTimespan * (adjustDen - maxAdjustUp)) / adjustDen
	maxActualTimespan = (avgWindowTimespan * (adjustDen + maxAdjustDown)) / adjustDen
)

// Context is the sliding window of recent header timestamps and nBits
// values needed to compute the next header's expected difficulty. Callers
// own the mutation sequence: PushHeader must only be called after a header
// verifies successfully, in increasing height order.
type Context struct {
	// TipHeight is the height of the most recently pushed header.
	TipHeight uint32

	times []uint32
	bits  []uint32
}

// NewContext creates an empty context at the given tip height. Callers are
// expected to seed it (via PushHeader) with at least medianBlockSpan+
// avgWindow timestamps and avgWindow nBits values before calling
// VerifyDifficulty for the next header.
func NewContext(tipHeight uint32) *Context {
	return &Context{TipHeight: tipHeight}
}

// PushHeader appends a newly accepted header to the context, evicting the
// oldest entry once the sliding windows are full.
func (c *Context) PushHeader(height, nTime, nBits uint32) {
	c.TipHeight = height

	c.times = append(c.times, nTime)
	if len(c.times) > medianBlockSpan+avgWindow {
		c.times = c.times[1:]
	}

	c.bits = append(c.bits, nBits)
	if len(c.bits) > avgWindow {
		c.bits = c.bits[1:]
	}
}

func median11(values []uint32) uint32 {
	tmp := make([]uint32, medianBlockSpan)
	copy(tmp, values)
	// insertion sort: medianBlockSpan is fixed and tiny.
	for i := 1; i < len(tmp); i++ {
		for j := i; j > 0 && tmp[j-1] > tmp[j]; j-- {
			tmp[j-1], tmp[j] = tmp[j], tmp[j-1]
		}
	}
	return tmp[medianBlockSpan/2]
}

func (c *Context) actualTimespan() int64 {
	n := len(c.times)
	if n < medianBlockSpan+avgWindow {
		return 0
	}

	recentStart := n - medianBlockSpan
	recentMedian := median11(c.times[recentStart:])

	pastStart := n - medianBlockSpan - avgWindow
	pastEnd := pastStart + medianBlockSpan
	pastMedian := median11(c.times[pastStart:pastEnd])

	span := int64(recentMedian) - int64(pastMedian)
	if span == 0 {
		return avgWindowTimespan
	}
	return span
}

func (c *Context) actualTimespanDamped() int64 {
	ats := c.actualTimespan()
	return avgWindowTimespan + (ats-avgWindowTimespan)/dampingFactor
}

func clampTimespan(v int64) int64 {
	if v < minActualTimespan {
		return minActualTimespan
	}
	if v > maxActualTimespan {
		return maxActualTimespan
	}
	return v
}

func (c *Context) meanTarget() target.Target {
	n := len(c.bits)
	start := 0
	if n > avgWindow {
		start = n - avgWindow
	}
	var acc target.Target
	for _, bits := range c.bits[start:] {
		acc = target.Add(acc, target.FromNBits(bits))
	}
	return target.DivU32(acc, avgWindow)
}

func (c *Context) threshold() target.Target {
	ats := clampTimespan(c.actualTimespanDamped())

	mean := c.meanTarget()
	scaled := target.MulU32(target.DivU32(mean, uint32(avgWindowTimespan)), uint32(ats))
	return target.Min(scaled, target.PowLimit)
}

// ExpectedNBits computes the expected nBits for headerHeight given the
// context, which must describe the full sliding window up to
// TipHeight == headerHeight-1.
func (c *Context) ExpectedNBits(headerHeight uint32) (uint32, error) {
	if len(c.times) < medianBlockSpan+avgWindow || len(c.bits) < avgWindow {
		return 0, &Error{Kind: InsufficientContext}
	}
	if headerHeight != c.TipHeight+1 {
		return 0, &Error{Kind: HeightMismatch, Expected: c.TipHeight + 1, Found: headerHeight}
	}
	return target.ToNBits(c.threshold()), nil
}

// VerifyDifficulty checks that headerBits matches the contextual difficulty
// expected at headerHeight.
func (c *Context) VerifyDifficulty(headerHeight, headerBits uint32) error {
	expected, err := c.ExpectedNBits(headerHeight)
	if err != nil {
		return err
	}
	if headerBits != expected {
		return &Error{Kind: BitsMismatch, Expected: expected, Found: headerBits}
	}
	return nil
}
