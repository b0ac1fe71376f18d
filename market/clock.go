package market

import "github.com/tidwall/btree"

// Clock 数据集中去重且有序的时间戳序列。时间戳为同一格式的字符串，按字典序即时间序。
type Clock struct {
	ticks *btree.BTreeG[string]
	wrap  bool
}

// NewClock 创建时钟；wrap 为 true 时越过最后一个时间戳后回到第一个。
func NewClock(timestamps []string, wrap bool) *Clock {
	c := &Clock{
		ticks: btree.NewBTreeG(func(a, b string) bool { return a < b }),
		wrap:  wrap,
	}
	for _, ts := range timestamps {
		c.Add(ts)
	}
	return c
}

// Add 加入时间戳，重复的忽略。
func (c *Clock) Add(ts string) {
	if ts == "" {
		return
	}
	c.ticks.Set(ts)
}

func (c *Clock) Len() int { return c.ticks.Len() }

// First 返回最早的时间戳。
func (c *Clock) First() (string, bool) { return c.ticks.Min() }

// Last 返回最晚的时间戳。
func (c *Clock) Last() (string, bool) { return c.ticks.Max() }

// IsLast 判断 ts 是否为最后一个时间戳。
func (c *Clock) IsLast(ts string) bool {
	last, ok := c.ticks.Max()
	return ok && last == ts
}

// Next 返回严格晚于 ts 的下一个时间戳；到达末尾时若开启 wrap 则回到第一个，
// 否则返回 ok=false。
func (c *Clock) Next(ts string) (string, bool) {
	var next string
	found := false
	c.ticks.Ascend(ts, func(item string) bool {
		if item == ts {
			return true
		}
		next, found = item, true
		return false
	})
	if found {
		return next, true
	}
	if c.wrap && c.ticks.Len() > 0 {
		return c.ticks.Min()
	}
	return "", false
}

// All 返回全部时间戳，升序。
func (c *Clock) All() []string {
	return c.ticks.Items()
}
