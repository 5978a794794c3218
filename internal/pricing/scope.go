package pricing

import (
	"strings"
	"time"
)

// eligibleLines 按包含/排除过滤出规则作用范围内的行。
// 包含条件（品类/品牌/SKU）之间为 OR，全部为空视为全场；任一排除条件命中即否决。
func eligibleLines(lines []CartLine, rule Rule) []CartLine {
	hasInclude := len(rule.IncludeCategories) > 0 || len(rule.IncludeBrands) > 0 || len(rule.IncludeSKUs) > 0
	result := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Qty <= 0 || line.UnitPrice.IsNegative() {
			continue
		}
		if matchAny(line.Category, rule.ExcludeCategories) ||
			matchAny(line.Brand, rule.ExcludeBrands) ||
			matchAny(line.SKU, rule.ExcludeSKUs) {
			continue
		}
		if hasInclude {
			if !matchAny(line.Category, rule.IncludeCategories) &&
				!matchAny(line.Brand, rule.IncludeBrands) &&
				!matchAny(line.SKU, rule.IncludeSKUs) {
				continue
			}
		}
		result = append(result, line)
	}
	return result
}

func matchAny(value string, set []string) bool {
	if value == "" || len(set) == 0 {
		return false
	}
	for _, candidate := range set {
		if strings.EqualFold(strings.TrimSpace(candidate), value) {
			return true
		}
	}
	return false
}

// inSchedule 判断规则在给定时刻是否生效（日期区间、星期、每日时段）。
func inSchedule(rule Rule, now time.Time) bool {
	if rule.StartsAt != nil && now.Before(*rule.StartsAt) {
		return false
	}
	if rule.EndsAt != nil && now.After(*rule.EndsAt) {
		return false
	}
	if len(rule.DaysOfWeek) > 0 {
		day := strings.ToLower(now.Weekday().String())
		matched := false
		for _, d := range rule.DaysOfWeek {
			if strings.EqualFold(strings.TrimSpace(d), day) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if rule.StartTime != "" || rule.EndTime != "" {
		minutes := now.Hour()*60 + now.Minute()
		if rule.StartTime != "" {
			if start, ok := parseClock(rule.StartTime); ok && minutes < start {
				return false
			}
		}
		if rule.EndTime != "" {
			if end, ok := parseClock(rule.EndTime); ok && minutes > end {
				return false
			}
		}
	}
	return true
}

// inChannel 判断规则是否适用于当前渠道（空列表为全渠道）。
func inChannel(rule Rule, channel string) bool {
	if len(rule.Channels) == 0 {
		return true
	}
	return matchAny(channel, rule.Channels)
}

func parseClock(raw string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, minute := 0, 0
	for _, ch := range parts[0] {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		hour = hour*10 + int(ch-'0')
	}
	for _, ch := range parts[1] {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		minute = minute*10 + int(ch-'0')
	}
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
