package core

import (
	"fmt"
	"strings"
)

// Tier 任务层级。第 k 层开始前，第 k-1 层本轮启动的任务都已结束（成功或失败）
type Tier int

const (
	TierFirst Tier = iota + 1
	TierSecond
	TierThird
	TierFourth
)

var tierNames = map[Tier]string{
	TierFirst:  "first",
	TierSecond: "second",
	TierThird:  "third",
	TierFourth: "fourth",
}

// Tiers 按执行顺序返回所有层级
func Tiers() []Tier {
	return []Tier{TierFirst, TierSecond, TierThird, TierFourth}
}

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier 支持 "first" / "First" / "1" 这几种写法
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range tierNames {
		if s == name || s == fmt.Sprint(int(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// MarshalText 让 JSON 输出层级名而不是数字
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
